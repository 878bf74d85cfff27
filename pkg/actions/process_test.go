package actions_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/espalier/pkg/actions"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

// fakeRunner scripts process launches without touching the OS.
type fakeRunner struct {
	calls    int
	lastName string
	lastArgs []string
	fn       func(ctx context.Context, call int) (ports.ProcessResult, error)
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (ports.ProcessResult, error) {
	f.calls++
	f.lastName = name
	f.lastArgs = args
	if f.fn != nil {
		return f.fn(ctx, f.calls)
	}
	return ports.ProcessResult{}, nil
}

func TestRunProcessStoresTrimmedOutput(t *testing.T) {
	runner := &fakeRunner{fn: func(context.Context, int) (ports.ProcessResult, error) {
		return ports.ProcessResult{Stdout: "v2.1.0\n"}, nil
	}}

	launch := actions.NewRunProcess("read version", "myapp", "--version")
	launch.ResultVar = "version"
	launch.Runner = runner

	env := domain.NewEnvironment()
	out := launch.Run(context.Background(), env)
	require.True(t, out.Success())

	assert.Equal(t, "myapp", runner.lastName)
	assert.Equal(t, []string{"--version"}, runner.lastArgs)
	version, okv := env.String("version")
	require.True(t, okv)
	assert.Equal(t, "v2.1.0", version)
}

func TestRunProcessNonZeroExitFails(t *testing.T) {
	runner := &fakeRunner{fn: func(context.Context, int) (ports.ProcessResult, error) {
		return ports.ProcessResult{ExitCode: 3, Stderr: "no such directory\n"}, nil
	}}

	launch := actions.NewRunProcess("cleanup", "tidy")
	launch.Runner = runner

	out := launch.Run(context.Background(), domain.NewEnvironment())
	require.True(t, out.Failed())
	assert.Contains(t, out.Err.Error(), "exited 3")
	assert.Contains(t, out.Err.Error(), "no such directory")
}

func TestRunProcessRetries(t *testing.T) {
	launchErr := errors.New("binary busy")
	runner := &fakeRunner{fn: func(_ context.Context, call int) (ports.ProcessResult, error) {
		if call < 3 {
			return ports.ProcessResult{}, launchErr
		}
		return ports.ProcessResult{}, nil
	}}

	launch := actions.NewRunProcess("flaky", "tool")
	launch.Runner = runner
	launch.Retry = domain.RetryPolicy{Times: 2, Delay: 10 * time.Millisecond}

	out := launch.Run(context.Background(), domain.NewEnvironment())
	require.True(t, out.Success())
	assert.Equal(t, 3, runner.calls)
}

func TestRunProcessRetriesExhausted(t *testing.T) {
	launchErr := errors.New("missing binary")
	runner := &fakeRunner{fn: func(context.Context, int) (ports.ProcessResult, error) {
		return ports.ProcessResult{}, launchErr
	}}

	launch := actions.NewRunProcess("doomed", "ghost")
	launch.Runner = runner
	launch.Retry = domain.RetryPolicy{Times: 1}

	out := launch.Run(context.Background(), domain.NewEnvironment())
	require.True(t, out.Failed())
	assert.ErrorIs(t, out.Err, launchErr)
	assert.Equal(t, 2, runner.calls)
}

func TestRunProcessCancellationPauses(t *testing.T) {
	runner := &fakeRunner{fn: func(ctx context.Context, _ int) (ports.ProcessResult, error) {
		<-ctx.Done()
		return ports.ProcessResult{}, ctx.Err()
	}}

	launch := actions.NewRunProcess("long job", "sleeper")
	launch.Runner = runner

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	out := launch.Run(ctx, domain.NewEnvironment())
	assert.True(t, out.Paused())
}

func TestRunProcessWithoutRunner(t *testing.T) {
	launch := actions.NewRunProcess("unwired", "tool")

	out := launch.Run(context.Background(), domain.NewEnvironment())
	require.True(t, out.Failed())
	assert.Contains(t, out.Err.Error(), "no command runner")
}
