package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/espalier/pkg/ports"
)

// ErrLaunchDenied reports a process launch blocked by policy before
// anything executed.
var ErrLaunchDenied = errors.New("launch denied by policy")

// LaunchRequest describes one process launch a flow asked for.
type LaunchRequest struct {
	Program string
	Args    []string
}

func (req LaunchRequest) String() string {
	if len(req.Args) == 0 {
		return req.Program
	}
	return req.Program + " " + strings.Join(req.Args, " ")
}

// LaunchInterceptor decides whether a launch proceeds. A false verdict
// blocks the launch with the given reason; an error aborts the action
// with a host failure instead of a policy denial.
type LaunchInterceptor func(ctx context.Context, req LaunchRequest) (allowed bool, reason string, err error)

// MultiInterceptor chains interceptors; the first block wins.
func MultiInterceptor(interceptors ...LaunchInterceptor) LaunchInterceptor {
	return func(ctx context.Context, req LaunchRequest) (bool, string, error) {
		for _, interceptor := range interceptors {
			allowed, reason, err := interceptor(ctx, req)
			if err != nil {
				return false, "", err
			}
			if !allowed {
				return false, reason, nil
			}
		}
		return true, "", nil
	}
}

// ConfirmationMiddleware asks the operator through the handler before
// every launch. Anything but an approval blocks.
func ConfirmationMiddleware(handler IOHandler) LaunchInterceptor {
	return func(ctx context.Context, req LaunchRequest) (bool, string, error) {
		ok, err := handler.Confirm(ctx, fmt.Sprintf("Launch request: %s\nAllow execution?", req))
		if err != nil {
			return false, "", err
		}
		if !ok {
			return false, "operator denied execution", nil
		}
		return true, "", nil
	}
}

// AutoApproveMiddleware allows every launch. The headless default.
func AutoApproveMiddleware() LaunchInterceptor {
	return func(ctx context.Context, req LaunchRequest) (bool, string, error) {
		return true, "", nil
	}
}

type launchPolicyKey struct{}

// WithLaunchPolicy attaches a per-run interceptor to the context. The
// policy runner prefers it over its static interceptor, so one engine
// can confirm interactively in one run and auto-approve in the next.
func WithLaunchPolicy(ctx context.Context, interceptor LaunchInterceptor) context.Context {
	if interceptor == nil {
		return ctx
	}
	return context.WithValue(ctx, launchPolicyKey{}, interceptor)
}

func launchPolicyFrom(ctx context.Context) LaunchInterceptor {
	p, _ := ctx.Value(launchPolicyKey{}).(LaunchInterceptor)
	return p
}

// PolicyRunner wraps a command runner with launch interception.
// Blocked launches fail with ErrLaunchDenied and never start the
// program.
type PolicyRunner struct {
	Next        ports.CommandRunner
	Interceptor LaunchInterceptor
}

var _ ports.CommandRunner = (*PolicyRunner)(nil)

// NewPolicyRunner wraps next. With no static interceptor and none in
// the run context, launches pass straight through.
func NewPolicyRunner(next ports.CommandRunner, interceptors ...LaunchInterceptor) *PolicyRunner {
	p := &PolicyRunner{Next: next}
	switch len(interceptors) {
	case 0:
	case 1:
		p.Interceptor = interceptors[0]
	default:
		p.Interceptor = MultiInterceptor(interceptors...)
	}
	return p
}

func (p *PolicyRunner) Run(ctx context.Context, name string, args ...string) (ports.ProcessResult, error) {
	interceptor := launchPolicyFrom(ctx)
	if interceptor == nil {
		interceptor = p.Interceptor
	}
	if interceptor != nil {
		allowed, reason, err := interceptor(ctx, LaunchRequest{Program: name, Args: args})
		if err != nil {
			return ports.ProcessResult{}, fmt.Errorf("launch interceptor: %w", err)
		}
		if !allowed {
			if reason == "" {
				reason = "blocked"
			}
			return ports.ProcessResult{}, fmt.Errorf("%w: %s (%s)", ErrLaunchDenied, name, reason)
		}
	}
	return p.Next.Run(ctx, name, args...)
}
