package ports

import (
	"context"

	"github.com/aretw0/espalier/pkg/domain"
)

// RunResult is what an engine hands back when a flow stops running,
// whatever the reason.
type RunResult struct {
	// RunID identifies this run for later resume or inspection.
	RunID string

	// Outcome is how the run ended: success, failure or pause.
	Outcome domain.Outcome

	// Snapshot captures the interrupted position. Nil unless the run
	// ended resumable (paused or failed).
	Snapshot *domain.RunSnapshot
}

// Engine drives action trees. This is the interface adapters (HTTP,
// MCP, CLI) program against; the concrete scheduler lives in the
// runtime package.
type Engine interface {
	// Execute runs the flow from its current position and returns when
	// it completes, fails or pauses. The error covers engine level
	// problems (nil flow, snapshot persistence); action failures are
	// reported through the outcome.
	Execute(ctx context.Context, flow *domain.Flow) (RunResult, error)

	// Resume loads the identified run's snapshot, applies it to the
	// given flow definition and executes from the restored position.
	// Returns domain.ErrRunNotFound when no such run is stored.
	Resume(ctx context.Context, flow *domain.Flow, runID string) (RunResult, error)
}
