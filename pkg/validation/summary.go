package validation

import (
	"fmt"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
)

// Summary aggregates a validation run for hosts: counts per severity,
// the verdict, and a renderable report.
type Summary struct {
	Flow      string  `json:"flow"`
	Issues    []Issue `json:"issues"`
	Criticals int     `json:"criticals"`
	Errors    int     `json:"errors"`
	Warnings  int     `json:"warnings"`
}

// Analyze validates the flow and aggregates the findings.
func Analyze(f *domain.Flow, opts ...Option) *Summary {
	name := ""
	if f != nil {
		name = f.Name()
	}
	return Summarize(name, Validate(f, opts...))
}

// Summarize aggregates findings into a summary.
func Summarize(flow string, issues []Issue) *Summary {
	s := &Summary{Flow: flow, Issues: issues}
	for _, issue := range issues {
		switch issue.Severity {
		case SeverityCritical:
			s.Criticals++
		case SeverityError:
			s.Errors++
		default:
			s.Warnings++
		}
	}
	return s
}

// IsValid reports whether the flow may be executed: nothing worse than
// warnings.
func (s *Summary) IsValid() bool {
	return s.Criticals == 0 && s.Errors == 0
}

// HasSyntaxErrors reports whether any finding blocks execution.
func (s *Summary) HasSyntaxErrors() bool {
	return !s.IsValid()
}

func (s *Summary) verdict() string {
	switch {
	case !s.IsValid():
		return "invalid"
	case s.Warnings > 0:
		return "valid with warnings"
	default:
		return "valid"
	}
}

// Report renders the summary as indented plain text, one line per
// finding.
func (s *Summary) Report() string {
	var b strings.Builder
	fmt.Fprintf(&b, "flow %q: %s", s.Flow, s.verdict())
	fmt.Fprintf(&b, " (%d critical, %d error, %d warning)", s.Criticals, s.Errors, s.Warnings)
	for _, issue := range s.Issues {
		b.WriteString("\n  ")
		fmt.Fprintf(&b, "[%s]", issue.Severity)
		if issue.Path != "" {
			fmt.Fprintf(&b, " %s", issue.Path)
		}
		if issue.Action != "" {
			fmt.Fprintf(&b, " (%s)", issue.Action)
		}
		fmt.Fprintf(&b, ": %s", issue.Message)
	}
	return b.String()
}
