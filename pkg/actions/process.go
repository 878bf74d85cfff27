package actions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/validation"
)

// RunProcess launches an external program through the host's command
// runner and waits for it to finish. A non-zero exit code fails the
// action; canceling the run while the process is in flight pauses the
// flow instead.
type RunProcess struct {
	domain.Base

	Program string   `yaml:"program" mapstructure:"program"`
	Args    []string `yaml:"args,omitempty" mapstructure:"args"`

	// ResultVar, when set, receives the process's stdout (trailing
	// newline stripped).
	ResultVar string `yaml:"result_var,omitempty" mapstructure:"result_var"`

	Retry domain.RetryPolicy `yaml:"retry,omitempty" mapstructure:"retry"`

	Runner ports.CommandRunner `yaml:"-" mapstructure:"-"`
}

// NewRunProcess returns a process launch.
func NewRunProcess(name, program string, args ...string) *RunProcess {
	return &RunProcess{Base: domain.NewBase(name, ""), Program: program, Args: args}
}

func (a *RunProcess) Run(ctx context.Context, env *domain.Environment) domain.Outcome {
	if a.Runner == nil {
		return domain.Fail(errors.New("run process: no command runner configured"))
	}
	return a.Retry.Run(ctx, func(ctx context.Context) domain.Outcome {
		res, err := a.Runner.Run(ctx, a.Program, a.Args...)
		if err != nil {
			if ctx.Err() != nil {
				return domain.Pause()
			}
			return domain.Fail(err)
		}
		if res.ExitCode != 0 {
			if msg := strings.TrimSpace(res.Stderr); msg != "" {
				return domain.Fail(fmt.Errorf("process %s exited %d: %s", a.Program, res.ExitCode, msg))
			}
			return domain.Fail(fmt.Errorf("process %s exited %d", a.Program, res.ExitCode))
		}
		if a.ResultVar != "" {
			env.Set(a.ResultVar, strings.TrimRight(res.Stdout, "\r\n"))
		}
		return domain.Succeed()
	})
}

func (a *RunProcess) Check() []validation.Issue {
	if a.Program == "" {
		return []validation.Issue{validation.Err("no program to run")}
	}
	return nil
}

var _ validation.Checker = (*RunProcess)(nil)
