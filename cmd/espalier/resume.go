package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/espalier/internal/cli"
)

// resumeCmd represents the resume command
var resumeCmd = &cobra.Command{
	Use:   "resume <run-id>",
	Short: "Continue a paused or failed run",
	Long: `Loads a stored run and continues it from where it stopped. Completed
steps are not executed again; the run picks up at the recorded
position with its saved environment.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := runOptions(cmd)
		opts.RunID = args[0]

		if err := cli.Resume(cmd.Context(), opts); err != nil {
			exitError(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(resumeCmd)

	resumeCmd.Flags().Bool("headless", false, "Run without prompts; launch confirmations auto approve")
	resumeCmd.Flags().Bool("json", false, "Machine readable IO (NDJSON on stdin/stdout)")
	resumeCmd.Flags().Bool("debug", false, "Verbose engine logging on stderr")
	resumeCmd.Flags().String("programs", "", "Program allow list for run_process actions")
	resumeCmd.Flags().Bool("shallow", false, "Trust the stored cursor instead of replaying the path to it")
}
