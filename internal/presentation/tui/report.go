package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/espalier/pkg/validation"
)

// ValidationMarkdown renders a validation summary as Markdown for the
// glamour renderer: a heading, the verdict with counts, and one bullet
// per finding.
func ValidationMarkdown(s *validation.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Validation: %s\n\n", s.Flow)
	fmt.Fprintf(&b, "%s (%d critical, %d error, %d warning)\n",
		verdict(s), s.Criticals, s.Errors, s.Warnings)

	if len(s.Issues) > 0 {
		b.WriteString("\n")
		for _, issue := range s.Issues {
			b.WriteString("- **" + string(issue.Severity) + "**")
			if issue.Path != "" {
				fmt.Fprintf(&b, " `%s`", issue.Path)
			}
			if issue.Action != "" {
				fmt.Fprintf(&b, " (%s)", issue.Action)
			}
			b.WriteString(": " + issue.Message + "\n")
		}
	}
	return b.String()
}

func verdict(s *validation.Summary) string {
	switch {
	case !s.IsValid():
		return "invalid ❌"
	case s.Warnings > 0:
		return "valid with warnings ⚠️"
	default:
		return "valid ✅"
	}
}
