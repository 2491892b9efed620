package arrakis

import "sort"

// strongholdOccupancyCap is the maximum number of non-advisor factions that
// may occupy a stronghold.
const strongholdOccupancyCap = 2

// FlipLoneAdvisors converts lone Bene Gesserit advisor stacks to fighters
// ahead of battle identification. A stack is left alone when an allied
// faction has forces in the same territory, or when the stack sits in the
// current storm sector. Runs only under advanced rules with the Bene
// Gesserit in the game. Mutates gs in place; callers pass a fresh clone.
func FlipLoneAdvisors(gs *GameState, b *Board) []Event {
	if !gs.AdvancedRules || !factionInGame(gs, BeneGesserit) {
		return nil
	}

	var events []Event
	ally := gs.AllyOf(BeneGesserit)
	for i := range gs.Forces {
		s := &gs.Forces[i]
		if s.Faction != BeneGesserit || nonNegative(s.Advisors) == 0 {
			continue
		}
		if bgFightersInTerritory(gs, s.Territory) > 0 {
			continue
		}
		if ally != NoFaction && factionHasForcesIn(gs, ally, s.Territory) {
			continue // peacetime: advisors stay advisors beside an ally
		}
		if s.Sector == gs.StormSector {
			continue // stormed in
		}
		flipped := nonNegative(s.Advisors)
		s.Regular += flipped
		s.Advisors = 0
		events = append(events, newEvent(EventAdvisorsFlipped, BeneGesserit, s.Territory, map[string]any{
			"sector": s.Sector,
			"count":  flipped,
		}))
	}
	return events
}

func factionInGame(gs *GameState, f Faction) bool {
	for _, p := range gs.StormOrder {
		if p == f {
			return true
		}
	}
	return false
}

func factionHasForcesIn(gs *GameState, f Faction, territory TerritoryID) bool {
	for _, s := range gs.Forces {
		if s.Faction == f && s.Territory == territory && s.Fighters() > 0 {
			return true
		}
	}
	return false
}

func bgFightersInTerritory(gs *GameState, territory TerritoryID) int {
	total := 0
	for _, s := range gs.Forces {
		if s.Faction == BeneGesserit && s.Territory == territory {
			total += s.Fighters()
		}
	}
	return total
}

// IdentifyBattles scans the board for territories contested by two or more
// factions. Stacks separated by the storm belong to different combat groups;
// stacks in the storm sector itself, advisor-only stacks, and the neutral
// zone never fight. Identification is a pure read of the snapshot: running
// it twice against an unchanged state yields an identical battle set.
func IdentifyBattles(gs *GameState, b *Board) ([]Battle, []Event) {
	var battles []Battle
	var events []Event

	ids := make([]TerritoryID, 0, len(b.Territories))
	for id := range b.Territories {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		t := b.Territories[id]
		if t.NeutralZone {
			continue
		}

		occupants := territoryOccupants(gs, id)
		if t.Stronghold && len(occupants) > strongholdOccupancyCap {
			events = append(events, newEvent(EventStrongholdViolation, NoFaction, id, map[string]any{
				"occupants": factionStrings(occupants),
			}))
		}

		for _, arc := range b.StormArcs(id, gs.StormSector) {
			var parties []Faction
			for _, f := range gs.StormOrder {
				reg, elite := gs.FightersIn(f, id, arc)
				if reg+elite > 0 {
					parties = append(parties, f)
				}
			}
			if len(parties) >= 2 {
				battles = append(battles, Battle{
					Territory: id,
					Sectors:   arc,
					Factions:  parties,
				})
			}
		}
	}
	return battles, events
}

// territoryOccupants returns the factions with fighter presence anywhere in
// the territory, in storm order.
func territoryOccupants(gs *GameState, id TerritoryID) []Faction {
	var out []Faction
	for _, f := range gs.StormOrder {
		if factionHasForcesIn(gs, f, id) {
			out = append(out, f)
		}
	}
	return out
}

func factionStrings(fs []Faction) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = string(f)
	}
	return out
}
