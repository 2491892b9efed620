package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "arbiter",
	Short: "Scripted driver for the Landsraad battle phase engine",
	Long: `arbiter drives the battle phase engine from the command line.
It loads a game snapshot from a fixture file, answers every suspension
point with heuristic strategies, and prints the event transcript.
Recorded runs can be replayed deterministically with the replay command.`,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
