package actions

import (
	"context"
	"fmt"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/expression"
	"github.com/aretw0/espalier/pkg/validation"
)

// For is a counted loop: one setup action, a boolean condition checked
// before each iteration, a body, and one step action run after each
// successful iteration.
//
// Init and Increment are structurally sequences but are meant to hold
// exactly one action each (typically a SetVariable); the validator
// flags anything else. The body only ever runs after the condition
// admitted it, and the increment only ever runs after the body
// finished cleanly.
type For struct {
	domain.Base

	// Condition must evaluate to a bool before every iteration.
	Condition string `yaml:"condition" mapstructure:"condition"`

	Init      domain.Sequence `yaml:"-" mapstructure:"-"`
	Body      domain.Sequence `yaml:"-" mapstructure:"-"`
	Increment domain.Sequence `yaml:"-" mapstructure:"-"`

	// Eval defaults to the shared evaluator when nil.
	Eval *expression.Evaluator `yaml:"-" mapstructure:"-"`
}

// NewFor returns a counted loop with empty phases.
func NewFor(name, condition string) *For {
	return &For{Base: domain.NewBase(name, ""), Condition: condition}
}

// Run executes the loop. On a fresh pass Init runs exactly once before
// the first condition check. On resume the interrupted phase finishes
// first, the cycle order is preserved (a resumed body still gets its
// increment), and control returns to the condition.
func (a *For) Run(ctx context.Context, env *domain.Environment) domain.Outcome {
	switch {
	case a.Init.Status().Resumable():
		if out := runBranch(ctx, env, "Init", &a.Init); !out.Success() {
			return out
		}
	case a.Body.Status().Resumable():
		if out := runBranch(ctx, env, "Body", &a.Body); !out.Success() {
			return out
		}
		if out := runBranch(ctx, env, "Increment", &a.Increment); !out.Success() {
			return out
		}
	case a.Increment.Status().Resumable():
		if out := runBranch(ctx, env, "Increment", &a.Increment); !out.Success() {
			return out
		}
	default:
		if out := runBranch(ctx, env, "Init", &a.Init); !out.Success() {
			return out
		}
	}

	eval := expression.OrDefault(a.Eval)
	for {
		if ctx.Err() != nil {
			return domain.Pause()
		}
		ok, err := eval.EvalBool(ctx, a.Condition, env)
		if err != nil {
			return domain.Fail(err)
		}
		if !ok {
			return domain.Succeed()
		}
		if out := runBranch(ctx, env, "Body", &a.Body); !out.Success() {
			return out
		}
		if out := runBranch(ctx, env, "Increment", &a.Increment); !out.Success() {
			return out
		}
	}
}

func (a *For) Branches() []domain.Branch {
	return []domain.Branch{
		{Label: "Init", Seq: &a.Init},
		{Label: "Body", Seq: &a.Body},
		{Label: "Increment", Seq: &a.Increment},
	}
}

// Check verifies the loop condition and the shape of the setup and
// step phases.
func (a *For) Check() []validation.Issue {
	var issues []validation.Issue
	if err := expression.OrDefault(a.Eval).CheckBool(a.Condition); err != nil {
		issues = append(issues, validation.Crit(fmt.Sprintf("loop condition %q: %v", a.Condition, err)))
	}
	if a.Init.Len() > 1 {
		issues = append(issues, validation.Err("init must hold a single action"))
	}
	if a.Increment.Len() > 1 {
		issues = append(issues, validation.Err("increment must hold a single action"))
	}
	return issues
}

var (
	_ domain.Composite   = (*For)(nil)
	_ validation.Checker = (*For)(nil)
)
