package arrakis

// SubPhase marks where a battle is in its fixed sequence.
type SubPhase string

const (
	SubPhaseVoice            SubPhase = "voice"
	SubPhasePrescience       SubPhase = "prescience"
	SubPhasePrescienceReveal SubPhase = "prescience_reveal"
	SubPhasePlans            SubPhase = "plans"
	SubPhaseTraitors         SubPhase = "traitors"
	SubPhaseResolution       SubPhase = "resolution"
	SubPhaseDiscard          SubPhase = "discard"
	SubPhaseCapture          SubPhase = "capture"
	SubPhaseDone             SubPhase = "done"
)

// BattlePlan is a faction's secret commitment for one battle. It is
// immutable once revealed.
type BattlePlan struct {
	Faction       Faction  `json:"faction"`
	RegularDialed int      `json:"regular_dialed"`
	EliteDialed   int      `json:"elite_dialed"`
	Leader        LeaderID `json:"leader,omitempty"`
	CheapHero     bool     `json:"cheap_hero,omitempty"`
	NoLeader      bool     `json:"no_leader,omitempty"`
	Weapon        CardID   `json:"weapon,omitempty"`
	Defense       CardID   `json:"defense,omitempty"`
	KwisatzHaderach bool   `json:"kwisatz_haderach,omitempty"`
	SpiceDialed   int      `json:"spice_dialed,omitempty"`
}

// ForcesDialed returns the total troops committed by the plan.
func (p *BattlePlan) ForcesDialed() int {
	return p.RegularDialed + p.EliteDialed
}

// HasLeaderSlot reports whether the plan fields a leader or cheap hero,
// which is what entitles it to treachery cards.
func (p *BattlePlan) HasLeaderSlot() bool {
	return p.Leader != "" || p.CheapHero
}

// PlayedCards returns the treachery cards committed by the plan.
func (p *BattlePlan) PlayedCards() []CardID {
	var cards []CardID
	if p.Weapon != "" {
		cards = append(cards, p.Weapon)
	}
	if p.Defense != "" {
		cards = append(cards, p.Defense)
	}
	if p.CheapHero {
		cards = append(cards, CardCheapHero)
	}
	return cards
}

// Battle is one identified conflict. It lives from identification until
// resolved or reduced to at most one faction with forces present.
type Battle struct {
	Territory TerritoryID `json:"territory"`
	Sectors   []int       `json:"sectors"` // the contested storm arc; nil in the neutral-free single-arc case
	Factions  []Faction   `json:"factions"` // participants in storm order

	Aggressor Faction  `json:"aggressor,omitempty"`
	Defender  Faction  `json:"defender,omitempty"`
	SubPhase  SubPhase `json:"sub_phase,omitempty"`

	AggressorPlan *BattlePlan `json:"aggressor_plan,omitempty"`
	DefenderPlan  *BattlePlan `json:"defender_plan,omitempty"`

	Voice          *VoiceCommand       `json:"voice,omitempty"`
	VoiceTarget    Faction             `json:"voice_target,omitempty"`
	Prescience     *PrescienceQuestion `json:"prescience,omitempty"`
	PrescienceTarget Faction           `json:"prescience_target,omitempty"`
	PrescienceAnswer *PrescienceAnswer `json:"prescience_answer,omitempty"`
	PrescienceUsed bool                `json:"prescience_used,omitempty"`

	TraitorCalls map[Faction]bool `json:"traitor_calls,omitempty"`
}

// Opponents returns the factions the given participant could fight.
func (b *Battle) Opponents(f Faction) []Faction {
	var out []Faction
	for _, p := range b.Factions {
		if p != f {
			out = append(out, p)
		}
	}
	return out
}

// Includes reports whether the faction is a participant.
func (b *Battle) Includes(f Faction) bool {
	for _, p := range b.Factions {
		if p == f {
			return true
		}
	}
	return false
}

// PlanOf returns the submitted plan for a side, or nil.
func (b *Battle) PlanOf(f Faction) *BattlePlan {
	if b.AggressorPlan != nil && b.AggressorPlan.Faction == f {
		return b.AggressorPlan
	}
	if b.DefenderPlan != nil && b.DefenderPlan.Faction == f {
		return b.DefenderPlan
	}
	return nil
}

// withoutFaction returns a copy of the battle's participant list with one
// faction removed. Pending battles are rebuilt, never mutated in place, so
// every intermediate phase state stays inspectable.
func withoutFaction(factions []Faction, f Faction) []Faction {
	out := make([]Faction, 0, len(factions))
	for _, p := range factions {
		if p != f {
			out = append(out, p)
		}
	}
	return out
}
