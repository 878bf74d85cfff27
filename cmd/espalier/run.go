package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/espalier/internal/cli"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <flow>",
	Short: "Execute a flow on this terminal",
	Long: `Loads a flow from the library and executes it until it completes,
fails or pauses. Paused and failed runs keep their position in the run
store and can be continued with 'espalier resume'.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := runOptions(cmd)
		opts.Flow = args[0]

		if err := cli.Run(cmd.Context(), opts); err != nil {
			exitError(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringArrayP("env", "e", nil, "Inject an environment value as key=value (repeatable)")
	runCmd.Flags().String("env-json", "", "Inject typed environment values as a JSON object")
	runCmd.Flags().Bool("headless", false, "Run without prompts; launch confirmations auto approve")
	runCmd.Flags().Bool("json", false, "Machine readable IO (NDJSON on stdin/stdout)")
	runCmd.Flags().Bool("debug", false, "Verbose engine logging on stderr")
	runCmd.Flags().String("programs", "", "Program allow list for run_process actions")
	runCmd.Flags().Bool("preflight", false, "Validate the flow and refuse to run on blocking findings")
}

// runOptions collects the flag set shared across the hosting commands.
// Flags a command does not register simply read as their zero value.
func runOptions(cmd *cobra.Command) cli.RunOptions {
	dir, _ := cmd.Flags().GetString("dir")
	redisURL, _ := cmd.Flags().GetString("redis")
	env, _ := cmd.Flags().GetStringArray("env")
	envJSON, _ := cmd.Flags().GetString("env-json")
	headless, _ := cmd.Flags().GetBool("headless")
	jsonMode, _ := cmd.Flags().GetBool("json")
	debug, _ := cmd.Flags().GetBool("debug")
	programs, _ := cmd.Flags().GetString("programs")
	preflight, _ := cmd.Flags().GetBool("preflight")
	shallow, _ := cmd.Flags().GetBool("shallow")

	return cli.RunOptions{
		LibraryPath: dir,
		Env:         env,
		EnvJSON:     envJSON,
		JSON:        jsonMode,
		Headless:    headless,
		Debug:       debug,
		RedisURL:    redisURL,
		Programs:    programs,
		Preflight:   preflight,
		Shallow:     shallow,
	}
}
