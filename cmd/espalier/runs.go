package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/espalier/internal/cli"
	"github.com/aretw0/espalier/pkg/ports"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage stored runs",
	Long:  `List, inspect, and remove resumable runs stored under .espalier/runs or in Redis.`,
}

var runsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all stored runs",
	Run: func(cmd *cobra.Command, args []string) {
		store := getStore(cmd)
		runs, err := store.List(cmd.Context())
		if err != nil {
			fmt.Printf("Error listing runs: %v\n", err)
			os.Exit(1)
		}

		if len(runs) == 0 {
			fmt.Println("No stored runs found.")
			return
		}

		fmt.Println("Stored runs:")
		for _, id := range runs {
			fmt.Println("- " + id)
		}
	},
}

var runsInspectCmd = &cobra.Command{
	Use:   "inspect <run-id>",
	Short: "Inspect the stored state of a run",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runID := args[0]
		store := getStore(cmd)

		snap, err := store.Load(cmd.Context(), runID)
		if err != nil {
			fmt.Printf("Error loading run '%s': %v\n", runID, err)
			os.Exit(1)
		}

		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			fmt.Printf("Error marshaling snapshot: %v\n", err)
			os.Exit(1)
		}

		fmt.Println(string(data))
	},
}

var runsRmCmd = &cobra.Command{
	Use:   "rm <run-id>...",
	Short: "Remove one or more stored runs",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store := getStore(cmd)
		hasError := false

		for _, runID := range args {
			if err := store.Delete(cmd.Context(), runID); err != nil {
				fmt.Printf("Error removing '%s': %v\n", runID, err)
				hasError = true
			} else {
				fmt.Printf("Removed run '%s'\n", runID)
			}
		}

		if hasError {
			os.Exit(1)
		}
	},
}

// TODO: Add an --all flag to rm for clearing the whole store.

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsLsCmd)
	runsCmd.AddCommand(runsInspectCmd)
	runsCmd.AddCommand(runsRmCmd)
}

func getStore(cmd *cobra.Command) ports.RunStore {
	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		dir = "."
	}
	redisURL, _ := cmd.Flags().GetString("redis")

	store, err := cli.OpenStore(dir, redisURL)
	if err != nil {
		fmt.Printf("Error opening run store: %v\n", err)
		os.Exit(1)
	}
	return store
}
