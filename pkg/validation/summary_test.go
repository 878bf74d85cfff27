package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/espalier/pkg/validation"
)

func TestSummarizeCounts(t *testing.T) {
	summary := validation.Summarize("billing", []validation.Issue{
		validation.Warn("flow has no name"),
		validation.Err("flow has no environment"),
		validation.Crit("flow has no action list"),
		validation.Warn("action has no name"),
	})

	assert.Equal(t, "billing", summary.Flow)
	assert.Equal(t, 1, summary.Criticals)
	assert.Equal(t, 1, summary.Errors)
	assert.Equal(t, 2, summary.Warnings)
	assert.False(t, summary.IsValid())
	assert.True(t, summary.HasSyntaxErrors())
}

func TestSummarizeNoIssues(t *testing.T) {
	summary := validation.Summarize("spotless", nil)

	assert.True(t, summary.IsValid())
	assert.False(t, summary.HasSyntaxErrors())
	assert.Contains(t, summary.Report(), `flow "spotless": valid`)
}

func TestSummaryWarningsDoNotInvalidate(t *testing.T) {
	summary := validation.Summarize("scruffy", []validation.Issue{
		validation.Warn("action has no description"),
	})

	assert.True(t, summary.IsValid())
	assert.Contains(t, summary.Report(), "valid with warnings")
}

func TestSummaryReport(t *testing.T) {
	issue := validation.Crit(`loop condition "42": expected bool`)
	issue.Path = "/2/Body/0"
	issue.Action = "poll loop"

	summary := validation.Summarize("invoices", []validation.Issue{issue})
	report := summary.Report()

	require.Contains(t, report, `flow "invoices": invalid`)
	assert.Contains(t, report, "(1 critical, 0 error, 0 warning)")
	assert.Contains(t, report, "[critical] /2/Body/0 (poll loop): loop condition")
}

func TestSeverityRank(t *testing.T) {
	assert.Less(t, validation.SeverityWarning.Rank(), validation.SeverityError.Rank())
	assert.Less(t, validation.SeverityError.Rank(), validation.SeverityCritical.Rank())
}
