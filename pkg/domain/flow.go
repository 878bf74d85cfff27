package domain

import (
	"context"

	"github.com/aretw0/espalier/pkg/schema"
)

// Flow is the root container of a runnable action tree: an ordered
// sequence of top level actions plus the environment their run shares.
//
// A Flow satisfies the Action contract itself, so a flow can appear as
// a single step of another flow. When nested that way it runs against
// its own environment, not the parent's.
type Flow struct {
	Base
	Env  *Environment
	Body Sequence

	// Requires names environment keys the host must provide before the
	// flow runs. A missing key stops the run before the first action.
	Requires []string

	// EnvTypes declares the type each environment value must satisfy.
	// Keys listed here are implicitly required.
	EnvTypes schema.Schema
}

// NewFlow returns an empty flow with a fresh environment.
func NewFlow(name string) *Flow {
	f := &Flow{Base: NewBase(name, "")}
	f.Env = NewEnvironment()
	return f
}

// Run executes the flow's body against the flow's own environment. The
// env argument exists only to satisfy the Action contract and is
// ignored. Event paths gain a "Body" segment so nested flow steps read
// like any other branch.
func (f *Flow) Run(ctx context.Context, _ *Environment) Outcome {
	return f.Execute(WithPathSegment(ctx, "Body"))
}

// Execute runs the flow to completion, pause or failure.
//
// A flow that is paused or failed resumes at its recorded current
// action (re-executing it); a ready or completed flow starts from the
// beginning. The returned outcome distinguishes the three endings:
// a pause is a successful stop, not a failure.
//
// The environment contract is checked on every entry, so a nested flow
// with unmet Requires fails as a step without touching its body.
func (f *Flow) Execute(ctx context.Context) Outcome {
	if f.Env == nil {
		f.SetStatus(StatusFailed)
		return Fail(ErrNilEnvironment)
	}
	if err := f.CheckEnv(); err != nil {
		f.SetStatus(StatusFailed)
		return Fail(err)
	}
	f.SetStatus(StatusRunning)
	out := f.Body.Run(ctx, f.Env)
	f.SetStatus(out.Status())
	return out
}

// Current returns the top level action the run is positioned on, or nil
// when the flow is idle or completed. Everything before it in the body
// is complete (or was skipped); everything after it is ready.
func (f *Flow) Current() Action {
	return f.Body.Current()
}

// CurrentIndex returns the position of the current action in the top
// level sequence, or -1 when there is none.
func (f *Flow) CurrentIndex() int {
	if f.Body.Current() == nil {
		return -1
	}
	return f.Body.Cursor()
}

// Rewind resets the flow and its whole tree to ready. Environment
// values are kept; clearing them is the host's call.
func (f *Flow) Rewind() {
	f.Body.Rewind()
	f.SetStatus(StatusReady)
}

// Branches exposes the flow body through the Composite capability so
// tree walkers handle nested flows like any other composite.
func (f *Flow) Branches() []Branch {
	return []Branch{{Label: "Body", Seq: &f.Body}}
}
