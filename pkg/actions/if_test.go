package actions_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/espalier/pkg/actions"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/expression"
)

func TestIfPicksThenBranch(t *testing.T) {
	env := domain.EnvironmentFrom(map[string]any{"count": 5})

	cond := actions.NewIf("check count", `count > 3`)
	then := ok("then-step")
	els := ok("else-step")
	cond.Then.Append(then)
	cond.Else.Append(els)

	out := cond.Run(context.Background(), env)
	require.True(t, out.Success())
	assert.Equal(t, 1, then.calls)
	assert.Equal(t, 0, els.calls)
}

func TestIfPicksElseBranch(t *testing.T) {
	env := domain.EnvironmentFrom(map[string]any{"count": 1})

	cond := actions.NewIf("check count", `count > 3`)
	then := ok("then-step")
	els := ok("else-step")
	cond.Then.Append(then)
	cond.Else.Append(els)

	out := cond.Run(context.Background(), env)
	require.True(t, out.Success())
	assert.Equal(t, 0, then.calls)
	assert.Equal(t, 1, els.calls)
}

func TestIfEmptyElseSucceeds(t *testing.T) {
	cond := actions.NewIf("no else", `false`)
	cond.Then.Append(ok("then-step"))

	out := cond.Run(context.Background(), domain.NewEnvironment())
	assert.True(t, out.Success())
}

func TestIfRejectsNonBooleanCondition(t *testing.T) {
	cond := actions.NewIf("bad", `1 + 2`)
	then := ok("then-step")
	cond.Then.Append(then)

	out := cond.Run(context.Background(), domain.NewEnvironment())
	require.True(t, out.Failed())

	var condErr *domain.ConditionError
	require.ErrorAs(t, out.Err, &condErr)
	assert.Equal(t, 3, condErr.Value)
	assert.Equal(t, 0, then.calls, "no branch may run on a broken condition")
}

func TestIfResumeSkipsConditionEvaluation(t *testing.T) {
	evals := 0
	eval := expression.New(expression.WithFunction("gate", func() bool {
		evals++
		return true
	}))

	cond := actions.NewIf("gated", `gate()`)
	cond.Eval = eval
	pauser := scripted("pauser", domain.Pause())
	after := ok("after")
	cond.Then.Append(pauser, after)

	env := domain.NewEnvironment()

	out := cond.Run(context.Background(), env)
	require.True(t, out.Paused())
	assert.Equal(t, 1, evals)
	assert.Equal(t, 0, after.calls)

	// The branch decision stands across the pause.
	out = cond.Run(context.Background(), env)
	require.True(t, out.Success())
	assert.Equal(t, 1, evals, "resume must not re-evaluate the condition")
	assert.Equal(t, 2, pauser.calls)
	assert.Equal(t, 1, after.calls)
}

func TestIfFailedBranchReruns(t *testing.T) {
	env := domain.EnvironmentFrom(map[string]any{"go_left": false})

	cond := actions.NewIf("retryable", `go_left`)
	flaky := scripted("flaky", domain.Fail(assert.AnError))
	cond.Else.Append(flaky)

	out := cond.Run(context.Background(), env)
	require.True(t, out.Failed())

	out = cond.Run(context.Background(), env)
	require.True(t, out.Success())
	assert.Equal(t, 2, flaky.calls)
}

func TestIfBranches(t *testing.T) {
	cond := actions.NewIf("branches", `true`)
	labels := []string{}
	for _, b := range cond.Branches() {
		labels = append(labels, b.Label)
	}
	assert.Equal(t, []string{"Then", "Else"}, labels)
}
