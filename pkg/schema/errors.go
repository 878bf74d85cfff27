package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError is one key failing its declared type.
type ValidationError struct {
	Key    string
	Reason string
	Value  any // nil when the key was absent
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("key %q: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("key %q: %s (got %T)", e.Key, e.Reason, e.Value)
}

// AggregateError collects every key failure of one validation pass, in
// key order. A single failure prints bare; several print as a count
// followed by one line each.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d validation errors:", len(e.Errors))
	for _, err := range e.Errors {
		b.WriteString("\n  ")
		b.WriteString(err.Error())
	}
	return b.String()
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error { return e.Errors }

// ValidationErrors unpacks the individual failures behind err, nil when
// err holds no aggregate.
func ValidationErrors(err error) []error {
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		return aggr.Errors
	}
	return nil
}
