package arrakis

import "sort"

// ForceStack is a faction's troops in one sector of one territory.
// Advisors (Bene Gesserit only) are part of the stack but do not count
// as a fighting presence.
type ForceStack struct {
	Faction   Faction     `json:"faction"`
	Territory TerritoryID `json:"territory"`
	Sector    int         `json:"sector"`
	Regular   int         `json:"regular"`
	Elite     int         `json:"elite"`
	Advisors  int         `json:"advisors,omitempty"`
}

// Fighters returns the number of troops in the stack that count as a
// fighting presence. Counts are clamped to zero.
func (s *ForceStack) Fighters() int {
	return nonNegative(s.Regular) + nonNegative(s.Elite)
}

// Total returns all troops in the stack including advisors.
func (s *ForceStack) Total() int {
	return s.Fighters() + nonNegative(s.Advisors)
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// GameState is a complete snapshot of the game at a point in time.
// Mutating code must operate on a Clone; snapshots are treated as
// immutable values once published.
type GameState struct {
	StormSector   int                     `json:"storm_sector"`
	StormOrder    []Faction               `json:"storm_order"`
	Seats         map[Faction]int         `json:"seats,omitempty"`
	AdvancedRules bool                    `json:"advanced_rules"`
	Forces        []ForceStack            `json:"forces"`
	Leaders       []LeaderRecord          `json:"leaders"`
	Spice         map[Faction]int         `json:"spice"`
	Hands         map[Faction][]CardID    `json:"hands"`
	Traitors      map[Faction][]TraitorCard `json:"traitors"`
	Alliances     map[Faction]Faction     `json:"alliances,omitempty"`
	// KHAvailable is true once the Atreides may accompany a leader with the
	// Kwisatz Haderach. KHDead is set by a lasgun-shield explosion.
	KHAvailable bool `json:"kh_available,omitempty"`
	KHDead      bool `json:"kh_dead,omitempty"`
}

// Clone returns a deep copy of the GameState.
func (gs *GameState) Clone() *GameState {
	c := &GameState{
		StormSector:   gs.StormSector,
		AdvancedRules: gs.AdvancedRules,
		KHAvailable:   gs.KHAvailable,
		KHDead:        gs.KHDead,
	}
	if gs.StormOrder != nil {
		c.StormOrder = make([]Faction, len(gs.StormOrder))
		copy(c.StormOrder, gs.StormOrder)
	}
	if gs.Seats != nil {
		c.Seats = make(map[Faction]int, len(gs.Seats))
		for k, v := range gs.Seats {
			c.Seats[k] = v
		}
	}
	if gs.Forces != nil {
		c.Forces = make([]ForceStack, len(gs.Forces))
		copy(c.Forces, gs.Forces)
	}
	if gs.Leaders != nil {
		c.Leaders = make([]LeaderRecord, len(gs.Leaders))
		copy(c.Leaders, gs.Leaders)
	}
	if gs.Spice != nil {
		c.Spice = make(map[Faction]int, len(gs.Spice))
		for k, v := range gs.Spice {
			c.Spice[k] = v
		}
	}
	if gs.Hands != nil {
		c.Hands = make(map[Faction][]CardID, len(gs.Hands))
		for k, v := range gs.Hands {
			hand := make([]CardID, len(v))
			copy(hand, v)
			c.Hands[k] = hand
		}
	}
	if gs.Traitors != nil {
		c.Traitors = make(map[Faction][]TraitorCard, len(gs.Traitors))
		for k, v := range gs.Traitors {
			cards := make([]TraitorCard, len(v))
			copy(cards, v)
			c.Traitors[k] = cards
		}
	}
	if gs.Alliances != nil {
		c.Alliances = make(map[Faction]Faction, len(gs.Alliances))
		for k, v := range gs.Alliances {
			c.Alliances[k] = v
		}
	}
	return c
}

// StacksIn returns the force stacks in a territory, ordered by sector then
// faction for deterministic iteration.
func (gs *GameState) StacksIn(territory TerritoryID) []ForceStack {
	var stacks []ForceStack
	for _, s := range gs.Forces {
		if s.Territory == territory {
			stacks = append(stacks, s)
		}
	}
	sort.Slice(stacks, func(i, j int) bool {
		if stacks[i].Sector != stacks[j].Sector {
			return stacks[i].Sector < stacks[j].Sector
		}
		return stacks[i].Faction < stacks[j].Faction
	})
	return stacks
}

// FightersIn returns a faction's fighting troops (regular, elite) within the
// given sectors of a territory. A nil sector arc matches every sector.
func (gs *GameState) FightersIn(f Faction, territory TerritoryID, arc []int) (regular, elite int) {
	for _, s := range gs.Forces {
		if s.Faction != f || s.Territory != territory {
			continue
		}
		if !SectorInArc(s.Sector, arc) {
			continue
		}
		regular += nonNegative(s.Regular)
		elite += nonNegative(s.Elite)
	}
	return regular, elite
}

// HasForcesAnywhere reports whether the faction has any fighting troops on
// the board.
func (gs *GameState) HasForcesAnywhere(f Faction) bool {
	for _, s := range gs.Forces {
		if s.Faction == f && s.Fighters() > 0 {
			return true
		}
	}
	return false
}

// Leader returns the leader record for an ID, or nil.
func (gs *GameState) Leader(id LeaderID) *LeaderRecord {
	for i := range gs.Leaders {
		if gs.Leaders[i].ID == id {
			return &gs.Leaders[i]
		}
	}
	return nil
}

// LeadersHeldBy returns the leader records a faction can currently field,
// including captured leaders, sorted by descending strength then ID.
func (gs *GameState) LeadersHeldBy(f Faction) []*LeaderRecord {
	var recs []*LeaderRecord
	for i := range gs.Leaders {
		if gs.Leaders[i].HeldBy == f {
			recs = append(recs, &gs.Leaders[i])
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		si, sj := LeaderStrength(recs[i].ID), LeaderStrength(recs[j].ID)
		if si != sj {
			return si > sj
		}
		return recs[i].ID < recs[j].ID
	})
	return recs
}

// SpiceOf returns a faction's spice holdings.
func (gs *GameState) SpiceOf(f Faction) int {
	return gs.Spice[f]
}

// HoldsCard reports whether the faction's hand contains the card.
func (gs *GameState) HoldsCard(f Faction, id CardID) bool {
	for _, c := range gs.Hands[f] {
		if c == id {
			return true
		}
	}
	return false
}

// HoldsCardOfKind reports whether the faction's hand contains any card of
// the given kind.
func (gs *GameState) HoldsCardOfKind(f Faction, kind CardKind) bool {
	for _, c := range gs.Hands[f] {
		if def := CardByID(c); def != nil && def.Kind == kind {
			return true
		}
	}
	return false
}

// DiscardCard removes one copy of the card from the faction's hand.
func (gs *GameState) DiscardCard(f Faction, id CardID) {
	hand := gs.Hands[f]
	for i, c := range hand {
		if c == id {
			gs.Hands[f] = append(hand[:i:i], hand[i+1:]...)
			return
		}
	}
}

// AllyOf returns the faction's ally, or NoFaction.
func (gs *GameState) AllyOf(f Faction) Faction {
	return gs.Alliances[f]
}

// SideIncludes reports whether the faction or its ally matches target.
func (gs *GameState) SideIncludes(f, target Faction) bool {
	return f == target || gs.AllyOf(f) == target
}

// RemoveForces removes up to regular+elite fighting troops of a faction from
// the given sectors of a territory, and returns how many were removed.
// Stacks reduced to zero troops are dropped from the snapshot.
func (gs *GameState) RemoveForces(f Faction, territory TerritoryID, arc []int, regular, elite int) (removedRegular, removedElite int) {
	for i := range gs.Forces {
		s := &gs.Forces[i]
		if s.Faction != f || s.Territory != territory || !SectorInArc(s.Sector, arc) {
			continue
		}
		if regular > 0 {
			take := min(regular, nonNegative(s.Regular))
			s.Regular -= take
			regular -= take
			removedRegular += take
		}
		if elite > 0 {
			take := min(elite, nonNegative(s.Elite))
			s.Elite -= take
			elite -= take
			removedElite += take
		}
	}
	gs.compactForces()
	return removedRegular, removedElite
}

// RemoveAllForces removes every troop (fighters and advisors) of a faction
// from the given sectors of a territory and returns the fighter count lost.
func (gs *GameState) RemoveAllForces(f Faction, territory TerritoryID, arc []int) int {
	removed := 0
	for i := range gs.Forces {
		s := &gs.Forces[i]
		if s.Faction != f || s.Territory != territory || !SectorInArc(s.Sector, arc) {
			continue
		}
		removed += s.Fighters()
		s.Regular, s.Elite, s.Advisors = 0, 0, 0
	}
	gs.compactForces()
	return removed
}

func (gs *GameState) compactForces() {
	remaining := gs.Forces[:0]
	for _, s := range gs.Forces {
		if s.Total() > 0 {
			remaining = append(remaining, s)
		}
	}
	gs.Forces = remaining
}
