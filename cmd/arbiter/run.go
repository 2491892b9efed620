package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kynes/landsraad/internal/agent"
	"github.com/kynes/landsraad/pkg/arrakis"
)

var runCmd = &cobra.Command{
	Use:   "run [fixture.json]",
	Short: "Run a scripted battle phase from a snapshot fixture",
	Long: `Loads a game snapshot from a JSON fixture, drives the battle phase
to completion with heuristic strategies, and prints the event transcript.
Per-faction strategies are assigned with repeated --strategy flags:

	arbiter run fixture.json --strategy atreides=aggressive --strategy harkonnen=craven

Factions without an assignment use the default strategy.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		assignments, _ := cmd.Flags().GetStringToString("strategy")
		fallback, _ := cmd.Flags().GetString("default-strategy")
		recordPath, _ := cmd.Flags().GetString("record")
		transcriptPath, _ := cmd.Flags().GetString("transcript")
		maxSteps, _ := cmd.Flags().GetInt("max-steps")

		gs, err := loadSnapshot(args[0])
		if err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}

		strategyFor := func(f arrakis.Faction) agent.Strategy {
			if name, ok := assignments[string(f)]; ok {
				return agent.ForStrategy(name)
			}
			return agent.ForStrategy(fallback)
		}

		phase := arrakis.NewBattlePhase(gs, arrakis.StandardBoard())
		result, err := phase.Step(nil)
		if err != nil {
			fmt.Println("Engine error:", err)
			os.Exit(1)
		}

		seq := 0
		for _, ev := range result.Events {
			printEvent(seq, ev)
			seq++
		}

		var recorded []arrakis.AgentResponse
		rejected := make(map[arrakis.Faction]bool)
		for steps := 0; !result.Complete; steps++ {
			if steps >= maxSteps {
				fmt.Printf("Error: phase did not complete within %d steps\n", maxSteps)
				os.Exit(1)
			}

			responses := make([]arrakis.AgentResponse, 0, len(result.Pending))
			for _, req := range result.Pending {
				if rejected[req.Faction] {
					responses = append(responses, arrakis.AgentResponse{
						Faction: req.Faction,
						Type:    req.Type,
						Default: true,
					})
					continue
				}
				responses = append(responses, strategyFor(req.Faction).Respond(phase.Game, req))
			}

			result, err = phase.Step(responses)
			if err != nil {
				fmt.Println("Engine error:", err)
				os.Exit(1)
			}

			// A rejected faction falls back to the engine default on the
			// retry so a bad strategy answer cannot stall the run.
			clear(rejected)
			for _, rej := range result.Rejections {
				fmt.Printf("      rejected %s: %s (%s)\n", rej.Faction, rej.Code, rej.Message)
				rejected[rej.Faction] = true
			}
			for _, r := range responses {
				if !rejected[r.Faction] {
					recorded = append(recorded, r)
				}
			}

			for _, ev := range result.Events {
				printEvent(seq, ev)
				seq++
			}
		}

		printSummary(phase.Results)

		if recordPath != "" {
			if err := writeJSONFile(recordPath, recorded); err != nil {
				fmt.Println("Error writing response log:", err)
				os.Exit(1)
			}
			fmt.Printf("\nResponse log written to %s (%d responses)\n", recordPath, len(recorded))
		}
		if transcriptPath != "" {
			if err := writeJSONFile(transcriptPath, phase.Events); err != nil {
				fmt.Println("Error writing transcript:", err)
				os.Exit(1)
			}
			fmt.Printf("Transcript written to %s (%d events)\n", transcriptPath, len(phase.Events))
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringToString("strategy", nil, "Per-faction strategy assignment, e.g. atreides=aggressive")
	runCmd.Flags().String("default-strategy", "cautious", "Strategy for factions without an assignment (cautious, aggressive, craven)")
	runCmd.Flags().String("record", "", "Write the accepted responses to this file for later replay")
	runCmd.Flags().String("transcript", "", "Write the full event transcript to this file as JSON")
	runCmd.Flags().Int("max-steps", 1000, "Abort if the phase needs more than this many steps")
}
