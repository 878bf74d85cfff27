package domain_test

import (
	"context"
	"testing"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlowExecute(t *testing.T) {
	flow := domain.NewFlow("deploy")
	a := succeeding("a")
	b := succeeding("b")
	flow.Body.Append(a, b)

	out := flow.Execute(context.Background())

	require.True(t, out.Success())
	assert.Equal(t, domain.StatusCompleted, flow.Status())
	assert.Nil(t, flow.Current())
	assert.Equal(t, -1, flow.CurrentIndex())
}

func TestFlowWithoutEnvironmentFails(t *testing.T) {
	flow := domain.NewFlow("broken")
	flow.Env = nil
	flow.Body.Append(succeeding("a"))

	out := flow.Execute(context.Background())

	require.True(t, out.Failed())
	assert.ErrorIs(t, out.Err, domain.ErrNilEnvironment)
	assert.Equal(t, domain.StatusFailed, flow.Status())
}

func TestFlowPauseRecordsCurrentAction(t *testing.T) {
	flow := domain.NewFlow("pausable")
	pauser := newStub("pauser", nil)
	pauser.fn = func(context.Context, *domain.Environment) domain.Outcome {
		if pauser.calls == 1 {
			return domain.Pause()
		}
		return domain.Succeed()
	}
	flow.Body.Append(succeeding("first"), pauser, succeeding("last"))

	out := flow.Execute(context.Background())
	require.True(t, out.Paused())
	assert.Equal(t, domain.StatusPaused, flow.Status())
	require.NotNil(t, flow.Current())
	assert.Equal(t, "pauser", flow.Current().Name())
	assert.Equal(t, 1, flow.CurrentIndex())

	out = flow.Execute(context.Background())
	require.True(t, out.Success())
	assert.Equal(t, domain.StatusCompleted, flow.Status())
}

func TestFlowRewindKeepsEnvironment(t *testing.T) {
	flow := domain.NewFlow("resettable")
	flow.Env.Set("seed", 42)
	flow.Body.Append(succeeding("a"))

	require.True(t, flow.Execute(context.Background()).Success())

	flow.Rewind()
	assert.Equal(t, domain.StatusReady, flow.Status())
	assert.True(t, flow.Env.Has("seed"))
}

func TestFlowNestsAsAction(t *testing.T) {
	child := domain.NewFlow("child")
	child.Body.Append(newStub("write", func(_ context.Context, env *domain.Environment) domain.Outcome {
		env.Set("from_child", true)
		return domain.Succeed()
	}))

	parent := domain.NewFlow("parent")
	parent.Body.Append(succeeding("before"), child, succeeding("after"))

	out := parent.Execute(context.Background())

	require.True(t, out.Success())
	assert.True(t, child.Env.Has("from_child"), "child runs against its own environment")
	assert.False(t, parent.Env.Has("from_child"), "parent environment stays untouched")

	branches := child.Branches()
	require.Len(t, branches, 1)
	assert.Equal(t, "Body", branches[0].Label)
}
