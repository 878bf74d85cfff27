package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/espalier/internal/cli"
	"github.com/aretw0/espalier/internal/logging"
	"github.com/aretw0/espalier/pkg/adapters/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the engine as an MCP server on stdio, so AI agents (like
Claude Desktop) can list, validate and run flows as tools. Logs go to
stderr; stdout carries only JSON-RPC.`,
	Run: func(cmd *cobra.Command, args []string) {
		opts := runOptions(cmd)

		level := slog.LevelInfo
		if opts.Debug {
			level = slog.LevelDebug
		}
		logger := logging.New(level)

		engine, err := cli.NewEngine(opts, logger)
		if err != nil {
			log.Fatalf("Error initializing engine: %v", err)
		}

		// Ensure logs don't corrupt JSON-RPC on stdout.
		log.SetOutput(os.Stderr)
		logger.Info("starting MCP server", "transport", "stdio")

		srv := mcp.NewServer(engine)
		if err := srv.ServeStdio(); err != nil {
			logger.Error("MCP server execution failed", "error", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().Bool("debug", false, "Verbose engine logging on stderr")
	mcpCmd.Flags().String("programs", "", "Program allow list for run_process actions")
}
