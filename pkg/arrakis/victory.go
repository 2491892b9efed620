package arrakis

import "sort"

// victoryStrongholds is the number of solely occupied strongholds that wins
// the game at the end of a turn.
const victoryStrongholds = 3

// StrongholdsHeld counts the strongholds a faction occupies alone with
// fighters.
func StrongholdsHeld(gs *GameState, b *Board, f Faction) int {
	count := 0
	for _, t := range b.Territories {
		if !t.Stronghold {
			continue
		}
		occupants := territoryOccupants(gs, t.ID)
		if len(occupants) == 1 && occupants[0] == f {
			count++
		}
	}
	return count
}

// CheckVictory returns the winning faction at the end of a turn, or NoFaction.
// Ties on stronghold count go to the faction earliest in storm order.
func CheckVictory(gs *GameState, b *Board) Faction {
	type standing struct {
		faction Faction
		held    int
	}
	var standings []standing
	for _, f := range gs.StormOrder {
		standings = append(standings, standing{faction: f, held: StrongholdsHeld(gs, b, f)})
	}
	sort.SliceStable(standings, func(i, j int) bool { return standings[i].held > standings[j].held })
	if len(standings) > 0 && standings[0].held >= victoryStrongholds {
		return standings[0].faction
	}
	return NoFaction
}
