package domain

import (
	"context"
	"time"
)

// EventType defines the category of a lifecycle event.
type EventType string

const (
	EventFlowStarted     EventType = "flow_started"
	EventFlowFinished    EventType = "flow_finished"
	EventActionStarted   EventType = "action_started"
	EventActionFinished  EventType = "action_finished"
	EventRetryAttempt    EventType = "retry_attempt"
	EventVariableChanged EventType = "variable_changed"
)

// FlowEvent reports a flow level transition. Finished covers all three
// endings: completed, failed and paused.
type FlowEvent struct {
	Timestamp time.Time   `json:"timestamp"`
	Type      EventType   `json:"type"`
	RunID     string      `json:"run_id,omitempty"`
	Flow      string      `json:"flow"`
	Status    Status      `json:"status"`
	Outcome   OutcomeCode `json:"outcome,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// ActionEvent reports entry to or exit from one step of the tree.
type ActionEvent struct {
	Timestamp time.Time   `json:"timestamp"`
	Type      EventType   `json:"type"`
	RunID     string      `json:"run_id,omitempty"`
	Path      string      `json:"path"` // tree position, e.g. /2/Then/0
	Action    string      `json:"action"`
	Status    Status      `json:"status"`
	Outcome   OutcomeCode `json:"outcome,omitempty"`
	Attempt   int         `json:"attempt,omitempty"` // 1-based, retry events only
	Error     string      `json:"error,omitempty"`
}

// VariableEvent reports a change to the run's environment observed
// after a step finished. A nil Value means the variable was deleted.
type VariableEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id,omitempty"`
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	Value     any       `json:"value"`
}

// LifecycleHooks defines callbacks for engine observability. All fields
// are optional. Hooks are invoked synchronously from the run loop, so
// they must be fast and must not call back into the running flow.
type LifecycleHooks struct {
	OnFlowStarted     func(context.Context, *FlowEvent)
	OnFlowFinished    func(context.Context, *FlowEvent)
	OnActionStarted   func(context.Context, *ActionEvent)
	OnActionFinished  func(context.Context, *ActionEvent)
	OnRetryAttempt    func(context.Context, *ActionEvent)
	OnVariableChanged func(context.Context, *VariableEvent)
}

// Merge returns hooks that fan out to both receivers. Either may be nil.
func (h *LifecycleHooks) Merge(other *LifecycleHooks) *LifecycleHooks {
	if h == nil {
		return other
	}
	if other == nil {
		return h
	}
	merged := &LifecycleHooks{}
	merged.OnFlowStarted = fanOut(h.OnFlowStarted, other.OnFlowStarted)
	merged.OnFlowFinished = fanOut(h.OnFlowFinished, other.OnFlowFinished)
	merged.OnActionStarted = fanOut(h.OnActionStarted, other.OnActionStarted)
	merged.OnActionFinished = fanOut(h.OnActionFinished, other.OnActionFinished)
	merged.OnRetryAttempt = fanOut(h.OnRetryAttempt, other.OnRetryAttempt)
	merged.OnVariableChanged = fanOut(h.OnVariableChanged, other.OnVariableChanged)
	return merged
}

func fanOut[E any](a, b func(context.Context, E)) func(context.Context, E) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, ev E) {
		a(ctx, ev)
		b(ctx, ev)
	}
}

type observerKey struct{}

type pathKey struct{}

// WithObserver attaches lifecycle hooks to the run context. The run
// loop and the retry wrapper report progress through them. The engine
// seeds this at the start of every run; tests may seed it directly.
func WithObserver(ctx context.Context, hooks *LifecycleHooks) context.Context {
	if hooks == nil {
		return ctx
	}
	return context.WithValue(ctx, observerKey{}, hooks)
}

// ObserverFrom returns the hooks attached to the context, or nil. The
// engine reads a caller-attached observer here and merges it with its
// own hooks, so hosts can watch a single run without reconfiguring the
// engine.
func ObserverFrom(ctx context.Context) *LifecycleHooks {
	hooks, _ := ctx.Value(observerKey{}).(*LifecycleHooks)
	return hooks
}

func observer(ctx context.Context) *LifecycleHooks {
	return ObserverFrom(ctx)
}

// WithPathSegment extends the tree position recorded in the context.
// Sequences push child indexes and composites push branch labels, so
// events carry positions like /2/Then/0.
func WithPathSegment(ctx context.Context, segment string) context.Context {
	return context.WithValue(ctx, pathKey{}, PathFrom(ctx)+"/"+segment)
}

// PathFrom returns the tree position accumulated in the context.
func PathFrom(ctx context.Context) string {
	p, _ := ctx.Value(pathKey{}).(string)
	return p
}

// EmitRetryAttempt reports one retry attempt through the context
// observer, if any. Called by the retry wrapper.
func EmitRetryAttempt(ctx context.Context, attempt int, err error) {
	hooks := observer(ctx)
	if hooks == nil || hooks.OnRetryAttempt == nil {
		return
	}
	ev := &ActionEvent{
		Timestamp: time.Now(),
		Type:      EventRetryAttempt,
		Path:      PathFrom(ctx),
		Attempt:   attempt,
	}
	if err != nil {
		ev.Error = err.Error()
	}
	hooks.OnRetryAttempt(ctx, ev)
}
