package arrakis

// Faction represents one of the six great factions.
type Faction string

const (
	Atreides     Faction = "atreides"
	Harkonnen    Faction = "harkonnen"
	Fremen       Faction = "fremen"
	Emperor      Faction = "emperor"
	Guild        Faction = "guild"
	BeneGesserit Faction = "bene_gesserit"
	NoFaction    Faction = ""
)

// AllFactions returns the six factions in rulebook order.
func AllFactions() []Faction {
	return []Faction{Atreides, Harkonnen, Emperor, Fremen, Guild, BeneGesserit}
}

// Abilities is the battle-relevant capability set of a faction.
// Dispatch is by faction identity, never by subtype.
type Abilities struct {
	Voice           bool // dictate an element of the opponent's plan
	Prescience      bool // inspect an element of the opponent's plan
	CaptureLeaders  bool // capture-or-kill a surviving enemy leader
	KwisatzHaderach bool // may accompany a leader for +2 strength
	EliteForces     bool // has starred troops that count double
	BattleHardened  bool // forces always count full strength without spice
}

// abilityTable maps each faction to its capability set.
var abilityTable = map[Faction]Abilities{
	Atreides:     {Prescience: true, KwisatzHaderach: true},
	Harkonnen:    {CaptureLeaders: true},
	Emperor:      {EliteForces: true},
	Fremen:       {EliteForces: true, BattleHardened: true},
	Guild:        {},
	BeneGesserit: {Voice: true},
}

// AbilitiesOf returns the capability set for a faction.
func AbilitiesOf(f Faction) Abilities {
	return abilityTable[f]
}

// EliteName returns the name of a faction's starred troops, or "".
func EliteName(f Faction) string {
	switch f {
	case Emperor:
		return "sardaukar"
	case Fremen:
		return "fedaykin"
	}
	return ""
}
