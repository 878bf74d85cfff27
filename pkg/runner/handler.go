package runner

import (
	"context"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

// IOHandler defines the strategy for presenting a run to its frontend.
// This allows switching between Text (CLI/TUI) and JSON (structured)
// modes without touching the run loop.
type IOHandler interface {
	// Hooks returns the lifecycle hooks the handler renders progress
	// from. The runner attaches them to the run context; they are
	// invoked synchronously from the run loop.
	Hooks() *domain.LifecycleHooks

	// Confirm asks the operator a yes or no question and reports the
	// answer. The launch confirmation policy calls this before a
	// program executes; a read failure counts as a denial upstream.
	Confirm(ctx context.Context, prompt string) (bool, error)

	// Result presents how the run ended, including the resume handle
	// when the run stays resumable.
	Result(ctx context.Context, res ports.RunResult) error

	// SystemOutput presents a meta message distinct from flow
	// progress: signal notices, resume hints, host status.
	SystemOutput(ctx context.Context, msg string) error
}
