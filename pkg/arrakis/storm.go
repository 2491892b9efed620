package arrakis

import "sort"

// AdvanceStorm moves the storm marker by the dialed count around the sector
// ring.
func AdvanceStorm(sector, dial int) int {
	return ((sector+dial)%SectorCount + SectorCount) % SectorCount
}

// ComputeStormOrder orders the seated factions starting from the first seat
// the storm will reach, given each faction's player marker sector. Ties on
// the same sector break by faction name for determinism.
func ComputeStormOrder(stormSector int, seats map[Faction]int) []Faction {
	factions := make([]Faction, 0, len(seats))
	for f := range seats {
		factions = append(factions, f)
	}
	dist := func(f Faction) int {
		return ((seats[f]-stormSector)%SectorCount + SectorCount) % SectorCount
	}
	sort.Slice(factions, func(i, j int) bool {
		di, dj := dist(factions[i]), dist(factions[j])
		if di != dj {
			return di < dj
		}
		return factions[i] < factions[j]
	})
	return factions
}

// nextAggressor selects, by storm order starting at startIndex, the first
// faction with at least one pending battle in which it still has forces
// present. Returns NoFaction once none remain. A faction eliminated
// mid-sequence is skipped even if it was mid-battle.
func nextAggressor(gs *GameState, battles []Battle, startIndex int) (Faction, int) {
	n := len(gs.StormOrder)
	for off := 0; off < n; off++ {
		idx := (startIndex + off) % n
		f := gs.StormOrder[idx]
		for i := range battles {
			if !battles[i].Includes(f) {
				continue
			}
			if reg, elite := gs.FightersIn(f, battles[i].Territory, battles[i].Sectors); reg+elite > 0 {
				return f, idx
			}
		}
	}
	return NoFaction, startIndex
}

// battlesFor returns the indexes of the pending battles the faction can
// still fight.
func battlesFor(gs *GameState, battles []Battle, f Faction) []int {
	var out []int
	for i := range battles {
		if !battles[i].Includes(f) {
			continue
		}
		if reg, elite := gs.FightersIn(f, battles[i].Territory, battles[i].Sectors); reg+elite > 0 {
			out = append(out, i)
		}
	}
	return out
}
