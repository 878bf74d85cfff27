package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/espalier/internal/cli"
)

var rootCmd = &cobra.Command{
	Use:   "espalier",
	Short: "Espalier is a resumable action tree runner",
	Long: `Espalier executes action trees described in Markdown flows: strictly
ordered steps with retries, waits and branches, pausable at any point
and resumable from stored state.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// exitError terminates with a failure status. Run and validation
// failures were already rendered by their handlers, so only other
// errors print here.
func exitError(err error) {
	if !errors.Is(err, cli.ErrRunFailed) && !errors.Is(err, cli.ErrValidationFailed) {
		fmt.Printf("Error: %v\n", err)
	}
	os.Exit(1)
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("dir", ".", "Directory containing the flow library")
	rootCmd.PersistentFlags().String("redis", "", "Redis URL for run state (defaults to files under .espalier/runs)")
}
