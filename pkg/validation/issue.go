// Package validation statically checks action trees before they run:
// structural problems of the flow itself, per-action self checks, and
// a bounded recursive walk through composite branches.
//
// Severity is three tiered. Warnings flag sloppiness the engine will
// happily run (missing names, empty bodies); errors flag definitions
// that will fail when reached (broken expressions, missing targets);
// criticals flag trees that must not be started at all (no action
// list, a loop condition that cannot be boolean).
package validation

// Severity grades an issue.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Rank orders severities from mildest to worst.
func (s Severity) Rank() int {
	switch s {
	case SeverityError:
		return 1
	case SeverityCritical:
		return 2
	}
	return 0
}

// Issue is one validator finding, anchored to a position in the tree.
type Issue struct {
	Severity Severity `json:"severity"`
	// Path locates the action: sequence indexes alternating with
	// branch labels, e.g. "/2/Then/0". Empty for flow level findings.
	Path    string `json:"path,omitempty"`
	Action  string `json:"action,omitempty"`
	Message string `json:"message"`
}

// Checker is the self check capability of an action type. The walker
// stamps path and action name onto whatever it returns, so
// implementations only fill severity and message.
//
// Check must not run the action; it inspects configuration only.
type Checker interface {
	Check() []Issue
}

// Warn builds a warning finding.
func Warn(message string) Issue {
	return Issue{Severity: SeverityWarning, Message: message}
}

// Err builds an error finding.
func Err(message string) Issue {
	return Issue{Severity: SeverityError, Message: message}
}

// Crit builds a critical finding.
func Crit(message string) Issue {
	return Issue{Severity: SeverityCritical, Message: message}
}
