package domain

import (
	"errors"
	"fmt"
)

// ErrElementNotFound is returned by element locator sessions when a
// selector matches nothing. Leaf actions treat it as recoverable, so
// retry and polling wrappers will try again.
var ErrElementNotFound = errors.New("element not found")

// ErrRunNotFound is returned when a run ID cannot be found in the store.
var ErrRunNotFound = errors.New("run not found")

// ErrNilEnvironment is returned when a flow is executed without an
// environment attached.
var ErrNilEnvironment = errors.New("flow has no environment")

// ErrWaitTimeout is the definitive failure of a polling wait that never
// observed its condition within the configured timeout.
var ErrWaitTimeout = errors.New("wait timed out")

// ErrWaitInterrupted reports a polling wait aborted by cancellation.
// Interruption of a wait is a leaf level failure, not a flow pause: the
// awaited condition was never observed.
var ErrWaitInterrupted = errors.New("wait interrupted")

// ConditionError reports a condition expression that failed to evaluate
// or produced a non-boolean value. Conditions are never coerced
// silently; the step fails fast instead.
type ConditionError struct {
	Expr  string
	Value any   // the non-boolean result, nil when evaluation itself failed
	Cause error // the evaluation error, nil when the result had the wrong type
}

func (e *ConditionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("condition %q: %v", e.Expr, e.Cause)
	}
	return fmt.Sprintf("condition %q evaluated to %T (%v), expected bool", e.Expr, e.Value, e.Value)
}

func (e *ConditionError) Unwrap() error { return e.Cause }

// PanicError wraps a panic recovered at the run loop boundary. Rogue
// leaf implementations become ordinary failures instead of tearing the
// host down.
type PanicError struct {
	Action string
	Value  any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("action %q panicked: %v", e.Action, e.Value)
}
