package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/internal/presentation/tui"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/runner"
)

// RunOptions carries everything the run and resume commands collect
// from their flags.
type RunOptions struct {
	LibraryPath string   // flow library directory
	Flow        string   // flow to run
	RunID       string   // run to resume
	Env         []string // key=value environment injections
	EnvJSON     string   // JSON object of typed injections
	JSON        bool     // machine readable IO on stdin/stdout
	Headless    bool     // auto approve launch confirmations
	Debug       bool     // verbose engine logging to stderr
	RedisURL    string   // keep run state in Redis instead of files
	Programs    string   // explicit allow list for run_process actions
	Preflight   bool     // refuse flows that fail validation
	Shallow     bool     // resume onto the cursor without replay
}

// ErrRunFailed reports a flow that ran to a failed outcome. The IO
// handler has already shown the reason, so commands translate this
// into an exit code without printing it again.
var ErrRunFailed = errors.New("run failed")

// Run loads a flow, applies the injected environment and hosts it on
// this terminal until it completes, fails or pauses.
func Run(ctx context.Context, opts RunOptions) error {
	logger := createLogger(opts.Debug)
	printBanner(opts)

	engine, err := NewEngine(opts, logger)
	if err != nil {
		return err
	}
	flow, err := engine.LoadFlow(opts.Flow)
	if err != nil {
		return err
	}
	env, err := parseEnv(opts.Env, opts.EnvJSON)
	if err != nil {
		return err
	}
	for key, value := range env {
		flow.Env.Set(key, value)
	}

	res, err := buildRunner(opts, logger).Execute(ctx, engine, flow)
	return finishRun(res, err)
}

// Resume restarts a stored run under the same hosting as Run.
func Resume(ctx context.Context, opts RunOptions) error {
	logger := createLogger(opts.Debug)
	printBanner(opts)

	engine, err := NewEngine(opts, logger)
	if err != nil {
		return err
	}
	res, err := buildRunner(opts, logger).Resume(ctx, engine, opts.RunID)
	return finishRun(res, err)
}

// printBanner shows the wordmark on interactive invocations only. JSON
// mode keeps stdout parseable; headless keeps pipelines quiet.
func printBanner(opts RunOptions) {
	if opts.JSON || opts.Headless {
		return
	}
	tui.PrintBanner(espalier.Version)
}

func buildRunner(opts RunOptions, logger *slog.Logger) *runner.Runner {
	ropts := []runner.Option{
		runner.WithLogger(logger),
		runner.WithHeadless(opts.Headless),
	}
	if opts.JSON {
		ropts = append(ropts, runner.WithHandler(runner.NewJSONHandler(os.Stdin, os.Stdout)))
	}
	return runner.New(ropts...)
}

// finishRun folds the run result and the engine error into the
// command's exit status. A pause is a clean exit; the handler already
// showed the resume handle.
func finishRun(res ports.RunResult, err error) error {
	if err := handleExecutionError(err); err != nil {
		return err
	}
	if res.Outcome.Failed() {
		return ErrRunFailed
	}
	return nil
}
