package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kynes/landsraad/pkg/arrakis"
)

var replayCmd = &cobra.Command{
	Use:   "replay [fixture.json] [responses.json]",
	Short: "Replay a recorded response log over a snapshot fixture",
	Long: `Rebuilds a battle phase from its starting snapshot and a recorded
response log, applying each response in order and printing the event
transcript. The engine is deterministic, so a log recorded with
'run --record' replays to the identical transcript. A response the
engine rejects means the log and fixture do not belong together.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		transcriptPath, _ := cmd.Flags().GetString("transcript")
		verifyPath, _ := cmd.Flags().GetString("verify")

		gs, err := loadSnapshot(args[0])
		if err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}

		data, err := os.ReadFile(args[1])
		if err != nil {
			fmt.Println("Error reading response log:", err)
			os.Exit(1)
		}
		var responses []arrakis.AgentResponse
		if err := json.Unmarshal(data, &responses); err != nil {
			fmt.Println("Error parsing response log:", err)
			os.Exit(1)
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

		for i := range responses {
			if result.Complete {
				fmt.Printf("Error: phase completed with %d unused responses\n", len(responses)-i)
				os.Exit(1)
			}
			result, err = phase.Step(responses[i : i+1])
			if err != nil {
				fmt.Println("Engine error:", err)
				os.Exit(1)
			}
			if len(result.Rejections) > 0 {
				rej := result.Rejections[0]
				fmt.Printf("Error: response %d rejected, log does not match fixture: %s %s (%s)\n",
					i, rej.Faction, rej.Code, rej.Message)
				os.Exit(1)
			}
			for _, ev := range result.Events {
				printEvent(seq, ev)
				seq++
			}
		}

		if !result.Complete {
			fmt.Printf("\nLog exhausted before the phase completed; %d request(s) still pending:\n", len(result.Pending))
			for _, req := range result.Pending {
				fmt.Printf("  %s awaits %s\n", req.Faction, req.Type)
			}
			os.Exit(1)
		}

		printSummary(phase.Results)

		if verifyPath != "" {
			want, err := os.ReadFile(verifyPath)
			if err != nil {
				fmt.Println("Error reading reference transcript:", err)
				os.Exit(1)
			}
			var ref []arrakis.Event
			if err := json.Unmarshal(want, &ref); err != nil {
				fmt.Println("Error parsing reference transcript:", err)
				os.Exit(1)
			}
			if err := compareTranscripts(ref, phase.Events); err != nil {
				fmt.Println("Transcript mismatch:", err)
				os.Exit(1)
			}
			fmt.Printf("\nTranscript matches %s (%d events)\n", verifyPath, len(ref))
		}

		if transcriptPath != "" {
			if err := writeJSONFile(transcriptPath, phase.Events); err != nil {
				fmt.Println("Error writing transcript:", err)
				os.Exit(1)
			}
			fmt.Printf("\nTranscript written to %s (%d events)\n", transcriptPath, len(phase.Events))
		}
	},
}

// compareTranscripts checks that the regenerated transcript matches the
// recorded one event for event. Data payloads are compared by their JSON
// encoding.
func compareTranscripts(want, got []arrakis.Event) error {
	if len(want) != len(got) {
		return fmt.Errorf("recorded %d events, replay produced %d", len(want), len(got))
	}
	for i := range want {
		w, g := want[i], got[i]
		if w.Type != g.Type || w.Faction != g.Faction || w.Territory != g.Territory {
			return fmt.Errorf("event %d: recorded %s/%s/%s, replayed %s/%s/%s",
				i, w.Type, w.Faction, w.Territory, g.Type, g.Faction, g.Territory)
		}
		wd, _ := json.Marshal(w.Data)
		gd, _ := json.Marshal(g.Data)
		if string(wd) != string(gd) {
			return fmt.Errorf("event %d (%s): data diverged", i, w.Type)
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().String("transcript", "", "Write the full event transcript to this file as JSON")
	replayCmd.Flags().String("verify", "", "Compare the replayed events against this recorded transcript")
}
