// Package runtime drives flows end to end. The engine owns everything
// around the domain scheduler: run identity, lifecycle hook wiring,
// environment contract checks, optional preflight validation, and
// snapshot persistence so paused or failed runs survive the process.
package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/validation"
)

// ResumeMode selects how much of an interrupted position a resume
// honors.
type ResumeMode int

const (
	// ResumeFullPath re-executes exactly the interrupted action,
	// however deep in the tree it sits. Completed siblings inside the
	// interrupted composite are not re-run.
	ResumeFullPath ResumeMode = iota

	// ResumeShallow discards the nested position and re-runs the
	// interrupted top level action from its beginning. Coarser, but
	// immune to drift when composite internals were edited between
	// pause and resume.
	ResumeShallow
)

func (m ResumeMode) String() string {
	if m == ResumeShallow {
		return "shallow"
	}
	return "full-path"
}

// PreflightError reports that a flow was rejected before running
// because validation found critical or error issues.
type PreflightError struct {
	Summary *validation.Summary
}

func (e *PreflightError) Error() string {
	return fmt.Sprintf("flow %q rejected by preflight validation: %d critical, %d error",
		e.Summary.Flow, e.Summary.Criticals, e.Summary.Errors)
}

// Engine is the concrete ports.Engine: it executes flows, stamps runs
// with IDs, and keeps the run store in sync with the flow's fate.
type Engine struct {
	store     ports.RunStore
	hooks     *domain.LifecycleHooks
	logger    *slog.Logger
	mode      ResumeMode
	preflight bool
	newRunID  func() string
}

var _ ports.Engine = (*Engine)(nil)

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithStore persists snapshots of paused and failed runs to the given
// store, and clears them when a run completes.
func WithStore(store ports.RunStore) EngineOption {
	return func(e *Engine) { e.store = store }
}

// WithLifecycleHooks registers observability hooks for every run.
func WithLifecycleHooks(hooks *domain.LifecycleHooks) EngineOption {
	return func(e *Engine) { e.hooks = hooks }
}

// WithLogger sets the structured logger for the engine.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithResumeMode selects shallow or full-path resume.
func WithResumeMode(mode ResumeMode) EngineOption {
	return func(e *Engine) { e.mode = mode }
}

// WithPreflight makes the engine validate every flow before running it
// and refuse flows with critical or error issues.
func WithPreflight() EngineOption {
	return func(e *Engine) { e.preflight = true }
}

// WithRunIDFunc overrides run ID generation. The default draws random
// UUIDs.
func WithRunIDFunc(fn func() string) EngineOption {
	return func(e *Engine) {
		if fn != nil {
			e.newRunID = fn
		}
	}
}

// NewEngine creates an engine. Without options it runs flows in memory
// only: no persistence, no hooks, discarded logs.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		logger:   slog.New(slog.NewJSONHandler(io.Discard, nil)),
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs the flow from its current position under a fresh run
// ID. A flow that is paused or failed in memory continues where it
// stopped; a ready or completed flow starts over.
//
// A flow whose environment does not meet its declared contract is
// rejected here, before any event fires or a run record exists.
func (e *Engine) Execute(ctx context.Context, flow *domain.Flow) (ports.RunResult, error) {
	if flow == nil {
		return ports.RunResult{}, fmt.Errorf("cannot execute a nil flow")
	}
	if err := e.check(flow); err != nil {
		return ports.RunResult{}, err
	}
	if err := flow.CheckEnv(); err != nil {
		return ports.RunResult{}, err
	}
	return e.run(ctx, flow, e.newRunID())
}

// Resume loads the identified run, restores its position and
// environment onto the given flow definition, and executes from there.
// The run keeps its ID across resumes.
func (e *Engine) Resume(ctx context.Context, flow *domain.Flow, runID string) (ports.RunResult, error) {
	if flow == nil {
		return ports.RunResult{}, fmt.Errorf("cannot resume onto a nil flow")
	}
	if e.store == nil {
		return ports.RunResult{}, fmt.Errorf("resuming run %s: no run store configured", runID)
	}

	snap, err := e.store.Load(ctx, runID)
	if err != nil {
		return ports.RunResult{}, fmt.Errorf("loading run %s: %w", runID, err)
	}
	if !snap.Resumable() {
		return ports.RunResult{}, fmt.Errorf("run %s is %s, nothing to resume", runID, snap.Status)
	}

	if err := e.check(flow); err != nil {
		return ports.RunResult{}, err
	}
	if err := snap.ApplyTo(flow); err != nil {
		return ports.RunResult{}, err
	}
	if e.mode == ResumeShallow {
		if current := flow.Current(); current != nil {
			domain.Reset(current)
		}
	}
	// The restored environment is what actually runs; check the
	// contract against it, not the definition's defaults.
	if err := flow.CheckEnv(); err != nil {
		return ports.RunResult{}, err
	}

	e.logger.InfoContext(ctx, "resuming run",
		"run_id", runID,
		"flow", flow.Name(),
		"mode", e.mode.String(),
		"cursor", strings.Join(snap.Cursor, "/"))

	return e.run(ctx, flow, runID)
}

// check is the preflight gate. Warnings pass; criticals and errors
// reject the flow before anything runs.
func (e *Engine) check(flow *domain.Flow) error {
	if !e.preflight {
		return nil
	}
	summary := validation.Analyze(flow)
	if !summary.IsValid() {
		return &PreflightError{Summary: summary}
	}
	return nil
}

func (e *Engine) run(ctx context.Context, flow *domain.Flow, runID string) (ports.RunResult, error) {
	// A caller-attached observer rides along for this run only. Engine
	// hooks fire first, then the caller's.
	hooks := stampRunID(runID, e.hooks.Merge(domain.ObserverFrom(ctx)))
	ctx = domain.WithObserver(ctx, hooks)
	logger := e.logger.With("run_id", runID, "flow", flow.Name())

	logger.InfoContext(ctx, "run starting")
	emitFlowStarted(ctx, hooks, flow)

	out := flow.Execute(ctx)

	emitFlowFinished(ctx, hooks, flow, out)

	res := ports.RunResult{RunID: runID, Outcome: out}
	if out.Status().Resumable() {
		res.Snapshot = domain.NewRunSnapshot(runID, flow)
	}

	if err := e.sync(ctx, logger, res); err != nil {
		return res, err
	}

	logger.InfoContext(ctx, "run finished", "outcome", string(out.Code), "error", outErr(out))
	return res, nil
}

// sync reconciles the run store with the run's fate: interrupted runs
// are saved, finished runs are cleared. Persistence runs on a context
// detached from the run's, because a pause is usually caused by the
// very cancellation that would abort the write.
func (e *Engine) sync(ctx context.Context, logger *slog.Logger, res ports.RunResult) error {
	if e.store == nil {
		return nil
	}
	ctx = context.WithoutCancel(ctx)

	if res.Snapshot != nil {
		if err := e.store.Save(ctx, res.Snapshot); err != nil {
			logger.ErrorContext(ctx, "saving run snapshot", "error", err)
			return fmt.Errorf("run %s ended %s but saving its snapshot failed: %w",
				res.RunID, res.Outcome.Status(), err)
		}
		logger.InfoContext(ctx, "run snapshot saved",
			"cursor", strings.Join(res.Snapshot.Cursor, "/"))
		return nil
	}

	if err := e.store.Delete(ctx, res.RunID); err != nil {
		logger.WarnContext(ctx, "clearing finished run", "error", err)
	}
	return nil
}

// stampRunID decorates hooks so every event carries the run's ID. The
// domain layer emits events without run identity; identity is the
// engine's concern.
func stampRunID(runID string, hooks *domain.LifecycleHooks) *domain.LifecycleHooks {
	if hooks == nil {
		return nil
	}
	stamped := &domain.LifecycleHooks{}
	if fn := hooks.OnFlowStarted; fn != nil {
		stamped.OnFlowStarted = func(ctx context.Context, ev *domain.FlowEvent) {
			ev.RunID = runID
			fn(ctx, ev)
		}
	}
	if fn := hooks.OnFlowFinished; fn != nil {
		stamped.OnFlowFinished = func(ctx context.Context, ev *domain.FlowEvent) {
			ev.RunID = runID
			fn(ctx, ev)
		}
	}
	if fn := hooks.OnActionStarted; fn != nil {
		stamped.OnActionStarted = func(ctx context.Context, ev *domain.ActionEvent) {
			ev.RunID = runID
			fn(ctx, ev)
		}
	}
	if fn := hooks.OnActionFinished; fn != nil {
		stamped.OnActionFinished = func(ctx context.Context, ev *domain.ActionEvent) {
			ev.RunID = runID
			fn(ctx, ev)
		}
	}
	if fn := hooks.OnRetryAttempt; fn != nil {
		stamped.OnRetryAttempt = func(ctx context.Context, ev *domain.ActionEvent) {
			ev.RunID = runID
			fn(ctx, ev)
		}
	}
	if fn := hooks.OnVariableChanged; fn != nil {
		stamped.OnVariableChanged = func(ctx context.Context, ev *domain.VariableEvent) {
			ev.RunID = runID
			fn(ctx, ev)
		}
	}
	return stamped
}
