package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kynes/landsraad/pkg/arrakis"
)

// loadSnapshot reads a GameState fixture from a JSON file.
func loadSnapshot(path string) (*arrakis.GameState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var gs arrakis.GameState
	if err := json.Unmarshal(data, &gs); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if len(gs.StormOrder) == 0 && len(gs.Seats) > 0 {
		gs.StormOrder = arrakis.ComputeStormOrder(gs.StormSector, gs.Seats)
	}
	return &gs, nil
}

// writeJSONFile marshals v with indentation and writes it to path.
func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// printEvent renders one transcript entry as a single line.
func printEvent(seq int, ev arrakis.Event) {
	line := fmt.Sprintf("[%3d] %-36s", seq, ev.Type)
	if ev.Faction != arrakis.NoFaction {
		line += fmt.Sprintf(" %-14s", ev.Faction)
	} else {
		line += fmt.Sprintf(" %-14s", "-")
	}
	if ev.Territory != "" {
		line += fmt.Sprintf(" %-18s", ev.Territory)
	}
	if len(ev.Data) > 0 {
		if data, err := json.Marshal(ev.Data); err == nil {
			line += " " + string(data)
		}
	}
	fmt.Println(line)
}

// printSummary renders the per-battle outcomes after a run.
func printSummary(results []arrakis.BattleResult) {
	if len(results) == 0 {
		fmt.Println("\nNo battles were fought.")
		return
	}
	fmt.Printf("\n%d battle(s) resolved:\n", len(results))
	for i, res := range results {
		switch {
		case res.Explosion:
			fmt.Printf("  %d. %s: lasgun-shield explosion, no winner\n", i+1, res.Territory)
		case res.DoubleTraitor:
			fmt.Printf("  %d. %s: double traitor, both sides lose\n", i+1, res.Territory)
		case res.TraitorWin != arrakis.NoFaction:
			fmt.Printf("  %d. %s: %s wins by traitor over %s\n", i+1, res.Territory, res.TraitorWin, res.Loser)
		case res.Winner != arrakis.NoFaction:
			fmt.Printf("  %d. %s: %s defeats %s (lost %d, enemy lost %d)\n",
				i+1, res.Territory, res.Winner, res.Loser, res.WinnerForcesLost, res.LoserForcesLost)
		default:
			fmt.Printf("  %d. %s: no decision\n", i+1, res.Territory)
		}
	}
}
