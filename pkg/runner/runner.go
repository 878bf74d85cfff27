package runner

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

// Runner hosts engine runs for operators. It attaches the handler's
// lifecycle hooks to the run, arms interrupt handling so Ctrl+C pauses
// the flow instead of killing the process, and injects the launch
// policy process actions are checked against.
type Runner struct {
	handler     IOHandler
	interceptor LaunchInterceptor
	logger      *slog.Logger
	headless    bool
}

// New creates a Runner. Without options it prompts on stdin/stdout and
// asks for confirmation before every process launch.
func New(opts ...Option) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r
}

// Run executes the named flow under this host's IO and signal policy.
func (r *Runner) Run(ctx context.Context, engine *espalier.Engine, flowName string) (ports.RunResult, error) {
	return r.host(ctx, func(runCtx context.Context) (ports.RunResult, error) {
		return engine.Run(runCtx, flowName)
	})
}

// Execute runs an already built flow under the same hosting as Run,
// for hosts that mutate the environment before starting.
func (r *Runner) Execute(ctx context.Context, engine *espalier.Engine, flow *domain.Flow) (ports.RunResult, error) {
	return r.host(ctx, func(runCtx context.Context) (ports.RunResult, error) {
		return engine.Execute(runCtx, flow)
	})
}

// Resume continues a stored run under the same hosting as Run.
func (r *Runner) Resume(ctx context.Context, engine *espalier.Engine, runID string) (ports.RunResult, error) {
	return r.host(ctx, func(runCtx context.Context) (ports.RunResult, error) {
		return engine.Resume(runCtx, runID)
	})
}

// host wraps one engine call with the interactive machinery. The run
// observes signals.Context(); rendering happens on the parent context,
// which outlives an interrupt.
func (r *Runner) host(ctx context.Context, run func(context.Context) (ports.RunResult, error)) (ports.RunResult, error) {
	handler := r.resolveHandler()
	interceptor := r.resolveInterceptor(handler)

	signals := NewSignalManager(ctx)
	defer signals.Stop()

	runCtx := domain.WithObserver(signals.Context(), handler.Hooks())
	runCtx = WithLaunchPolicy(runCtx, interceptor)

	done := make(chan struct{})
	watcher := make(chan struct{})
	go func() {
		defer close(watcher)
		select {
		case <-signals.Context().Done():
			if ctx.Err() != nil {
				return
			}
			// The engine pauses at the next action boundary. Restoring
			// default delivery here lets a second interrupt kill the
			// process the normal way.
			_ = handler.SystemOutput(ctx, "interrupt received, pausing at the next safe point (interrupt again to abort)")
			signals.Stop()
		case <-done:
		}
	}()

	res, err := run(runCtx)
	close(done)
	<-watcher

	if err != nil {
		r.logger.Error("run aborted", "error", err)
		return res, err
	}

	if rerr := handler.Result(ctx, res); rerr != nil {
		r.logger.Error("rendering result", "error", rerr)
	}
	return res, nil
}

// resolveHandler memoizes the default so Run and Resume on the same
// Runner share one stdin reader.
func (r *Runner) resolveHandler() IOHandler {
	if r.handler == nil {
		r.handler = NewTextHandler(os.Stdin, os.Stdout)
	}
	return r.handler
}

func (r *Runner) resolveInterceptor(handler IOHandler) LaunchInterceptor {
	if r.interceptor != nil {
		return r.interceptor
	}
	if r.headless {
		return AutoApproveMiddleware()
	}
	return ConfirmationMiddleware(handler)
}
