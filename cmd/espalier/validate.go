package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/espalier/internal/cli"
)

var validateCmd = &cobra.Command{
	Use:   "validate [flow...]",
	Short: "Check flows for blocking findings",
	Long: `Statically analyzes flows and reports findings by severity: criticals
that cannot execute, errors that will fail at runtime and warnings
worth a look. Without arguments the whole library is checked.`,
	Run: func(cmd *cobra.Command, args []string) {
		dir, _ := cmd.Flags().GetString("dir")
		jsonMode, _ := cmd.Flags().GetBool("json")
		plain, _ := cmd.Flags().GetBool("plain")
		watch, _ := cmd.Flags().GetBool("watch")
		debug, _ := cmd.Flags().GetBool("debug")
		programs, _ := cmd.Flags().GetString("programs")

		opts := cli.ValidateOptions{
			LibraryPath: dir,
			Flows:       args,
			JSON:        jsonMode,
			Plain:       plain,
			Watch:       watch,
			Debug:       debug,
			Programs:    programs,
		}
		if err := cli.Validate(cmd.Context(), opts); err != nil {
			exitError(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().Bool("json", false, "Emit summaries as JSON")
	validateCmd.Flags().Bool("plain", false, "Plain text reports instead of rendered markdown")
	validateCmd.Flags().BoolP("watch", "w", false, "Stay up and revalidate when the library changes")
	validateCmd.Flags().Bool("debug", false, "Verbose engine logging on stderr")
	validateCmd.Flags().String("programs", "", "Program allow list for run_process actions")
}
