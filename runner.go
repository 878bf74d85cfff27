package espalier

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

// Runner executes flows against a provided writer, streaming progress
// as actions start, retry and fail. This keeps the reporting logic
// testable and lets different frontends (CLI, TUI) reuse one loop.
//
// For signal handling, policy middleware and machine readable output,
// use the runner package instead; this type is the minimal embedding
// surface.
type Runner struct {
	Output   io.Writer
	Quiet    bool
	Renderer ContentRenderer
}

// ContentRenderer transforms a progress line before it is written.
// This allows TUI styling (plain text to ANSI) without coupling the
// core package to a terminal library.
type ContentRenderer func(string) (string, error)

// NewRunner creates a Runner writing to the given writer, typically
// os.Stdout.
func NewRunner(out io.Writer) *Runner {
	return &Runner{Output: out}
}

// Run executes the named flow on the engine, reporting progress to
// Output. The run result is returned along with any engine error.
func (r *Runner) Run(ctx context.Context, engine *Engine, flowName string) (ports.RunResult, error) {
	if r.Output == nil {
		return ports.RunResult{}, fmt.Errorf("output writer must be set (use os.Stdout)")
	}

	ctx = domain.WithObserver(ctx, r.progressHooks())
	res, err := engine.Run(ctx, flowName)
	r.summarize(res, err)
	return res, err
}

// Resume continues the identified run on the engine, reporting
// progress to Output like Run does.
func (r *Runner) Resume(ctx context.Context, engine *Engine, runID string) (ports.RunResult, error) {
	if r.Output == nil {
		return ports.RunResult{}, fmt.Errorf("output writer must be set (use os.Stdout)")
	}

	ctx = domain.WithObserver(ctx, r.progressHooks())
	res, err := engine.Resume(ctx, runID)
	r.summarize(res, err)
	return res, err
}

// progressHooks builds the per-run hooks the progress lines come from.
// The engine merges them with its own hooks for the duration of the
// run.
func (r *Runner) progressHooks() *domain.LifecycleHooks {
	return &domain.LifecycleHooks{
		OnFlowStarted: func(_ context.Context, ev *domain.FlowEvent) {
			if !r.Quiet {
				r.println(fmt.Sprintf("--- %s ---", ev.Flow))
			}
		},
		OnActionStarted: func(_ context.Context, ev *domain.ActionEvent) {
			if !r.Quiet {
				r.println(indentFor(ev.Path) + "-> " + ev.Action)
			}
		},
		OnActionFinished: func(_ context.Context, ev *domain.ActionEvent) {
			if ev.Outcome == domain.OutcomeFailure {
				r.println(indentFor(ev.Path) + "   FAIL " + ev.Action + ": " + ev.Error)
			}
		},
		OnRetryAttempt: func(_ context.Context, ev *domain.ActionEvent) {
			r.println(fmt.Sprintf("%s   retry %d: %s", indentFor(ev.Path), ev.Attempt, ev.Error))
		},
	}
}

// summarize writes the one line verdict after the run returns.
func (r *Runner) summarize(res ports.RunResult, err error) {
	if err != nil {
		r.println("run error: " + err.Error())
		return
	}
	switch {
	case res.Outcome.Paused():
		r.println(fmt.Sprintf("flow paused (resume with run ID %s)", res.RunID))
	case res.Outcome.Failed():
		r.println("flow " + res.Outcome.String())
	default:
		r.println("flow completed")
	}
}

func (r *Runner) println(line string) {
	if r.Renderer != nil {
		if rendered, err := r.Renderer(line); err == nil {
			line = rendered
		}
	}
	fmt.Fprintln(r.Output, line)
}

// indentFor maps a tree position like /2/Then/0 to two spaces per
// level below the root, so nested actions read as a tree.
func indentFor(path string) string {
	depth := strings.Count(path, "/") - 1
	if depth < 1 {
		return ""
	}
	return strings.Repeat("  ", depth)
}
