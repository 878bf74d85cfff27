// Package process implements the command runner port on top of local
// processes. Programs run from a strict allow-list: flows name an
// entry, never an arbitrary binary, unless the host opts in to
// unlisted execution.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"time"

	"github.com/aretw0/espalier/pkg/ports"
)

// ErrNotAllowed reports a program name that is not in the allow-list.
var ErrNotAllowed = errors.New("program not allowed")

// defaultGracePeriod is how long a canceled process gets between the
// interrupt signal and the force kill.
const defaultGracePeriod = 5 * time.Second

// RegisteredProgram defines an allowed command execution. Args are
// prepended before whatever the flow passes at call time.
type RegisteredProgram struct {
	Command string
	Args    []string
	Env     map[string]string
}

// Runner implements ports.CommandRunner.
//
// Register the allow-list before running flows; the registry is not
// guarded for concurrent mutation.
type Runner struct {
	registry      map[string]RegisteredProgram
	allowUnlisted bool
	baseDir       string
	gracePeriod   time.Duration
}

var _ ports.CommandRunner = (*Runner)(nil)

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithRegistry populates the allow-list from a loaded config.
func WithRegistry(programs map[string]ProgramConfig) RunnerOption {
	return func(r *Runner) {
		for name, p := range programs {
			r.registry[name] = RegisteredProgram{
				Command: p.Command,
				Args:    p.Args,
				Env:     p.Environment,
			}
		}
	}
}

// WithUnlistedExecution lets flows run programs that are not in the
// registry, using the name as the command directly. Off by default.
func WithUnlistedExecution(allow bool) RunnerOption {
	return func(r *Runner) {
		r.allowUnlisted = allow
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithGracePeriod sets how long a canceled process may keep running
// after the interrupt signal before it is force-killed.
func WithGracePeriod(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.gracePeriod = d
	}
}

// NewRunner creates a process runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry:    make(map[string]RegisteredProgram),
		gracePeriod: defaultGracePeriod,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted program to the allow-list.
func (r *Runner) Register(name string, command string, args ...string) {
	r.registry[name] = RegisteredProgram{
		Command: command,
		Args:    args,
	}
}

// Programs returns the registered names, sorted.
func (r *Runner) Programs() []string {
	names := make([]string, 0, len(r.registry))
	for name := range r.registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run resolves name against the allow-list and executes it, waiting
// for completion. Non-zero exits come back through the result; errors
// cover policy rejections, start failures and interruption.
func (r *Runner) Run(ctx context.Context, name string, args ...string) (ports.ProcessResult, error) {
	proc, ok := r.registry[name]
	if !ok {
		if !r.allowUnlisted {
			return ports.ProcessResult{}, fmt.Errorf("%w: %s", ErrNotAllowed, name)
		}
		proc = RegisteredProgram{Command: name}
	}

	argv := append(append([]string(nil), proc.Args...), args...)

	cmd := exec.CommandContext(ctx, proc.Command, argv...)
	cmd.Dir = r.baseDir
	cmd.Env = append(cmd.Environ(), envPairs(proc.Env)...)

	// On cancellation, interrupt first so the process can clean up;
	// WaitDelay force-kills stragglers after the grace period. The
	// interrupt signal is not deliverable on every platform, so fall
	// back to an outright kill.
	cmd.Cancel = func() error {
		if err := cmd.Process.Signal(os.Interrupt); err != nil {
			return cmd.Process.Kill()
		}
		return nil
	}
	cmd.WaitDelay = r.gracePeriod

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if runErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ports.ProcessResult{}, fmt.Errorf("process %s interrupted: %w", name, ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return ports.ProcessResult{
				ExitCode: exitErr.ExitCode(),
				Stdout:   stdout.String(),
				Stderr:   stderr.String(),
			}, nil
		}
		return ports.ProcessResult{}, fmt.Errorf("starting %s: %w", proc.Command, runErr)
	}

	return ports.ProcessResult{
		ExitCode: 0,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}, nil
}

func envPairs(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+env[k])
	}
	return pairs
}
