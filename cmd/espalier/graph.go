package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/internal/cli"
	"github.com/aretw0/espalier/internal/logging"
	"github.com/aretw0/espalier/internal/presentation/graph"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <flow>",
	Short: "Export a flow as a Mermaid diagram",
	Long: `Renders a flow's action tree as a Mermaid flowchart. With --run the
diagram shows that run's progress instead: done, current and pending
steps are styled apart.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runID, _ := cmd.Flags().GetString("run")
		if runID == "" && len(args) == 0 {
			fmt.Println("Error: provide a flow name or --run.")
			os.Exit(1)
		}

		engine, err := cli.NewEngine(runOptions(cmd), logging.NewNop())
		if err != nil {
			fmt.Printf("Error initializing engine: %v\n", err)
			os.Exit(1)
		}

		var output string
		if runID != "" {
			output, err = runGraph(cmd, engine, runID)
		} else {
			output, err = flowGraph(engine, args[0])
		}
		if err != nil {
			fmt.Printf("Error rendering graph: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(output)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)

	graphCmd.Flags().String("run", "", "Overlay the progress of a stored run")
}

func flowGraph(engine *espalier.Engine, name string) (string, error) {
	flow, err := engine.LoadFlow(name)
	if err != nil {
		return "", err
	}
	return graph.GenerateMermaid(flow, nil), nil
}

func runGraph(cmd *cobra.Command, engine *espalier.Engine, runID string) (string, error) {
	snap, err := engine.Store().Load(cmd.Context(), runID)
	if err != nil {
		return "", err
	}
	flow, err := engine.LoadFlow(snap.Flow)
	if err != nil {
		return "", err
	}
	if err := snap.ApplyTo(flow); err != nil {
		return "", err
	}
	return graph.GenerateMermaid(flow, graph.SnapshotOverlay(flow)), nil
}
