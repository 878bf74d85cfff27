package actions

import (
	"context"
	"fmt"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/expression"
	"github.com/aretw0/espalier/pkg/validation"
)

// While repeats its body as long as the condition holds.
//
// There is no iteration cap: a condition that never turns false loops
// until the run is canceled. Cancellation is checked before every
// condition evaluation, so even an empty body cannot wedge the
// scheduler.
type While struct {
	domain.Base

	// Condition must evaluate to a bool before every iteration.
	Condition string `yaml:"condition" mapstructure:"condition"`

	Body domain.Sequence `yaml:"-" mapstructure:"-"`

	// Eval defaults to the shared evaluator when nil.
	Eval *expression.Evaluator `yaml:"-" mapstructure:"-"`
}

// NewWhile returns a loop with an empty body.
func NewWhile(name, condition string) *While {
	return &While{Base: domain.NewBase(name, ""), Condition: condition}
}

// Run executes the loop. A resumed run finishes the interrupted body
// iteration first, then returns to the condition.
func (a *While) Run(ctx context.Context, env *domain.Environment) domain.Outcome {
	if a.Body.Status().Resumable() {
		if out := runBranch(ctx, env, "Body", &a.Body); !out.Success() {
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
	}
}

func (a *While) Branches() []domain.Branch {
	return []domain.Branch{{Label: "Body", Seq: &a.Body}}
}

// Check verifies the loop condition. A condition that cannot be
// boolean is critical: at runtime it would either never loop or never
// stop being wrong.
func (a *While) Check() []validation.Issue {
	if err := expression.OrDefault(a.Eval).CheckBool(a.Condition); err != nil {
		return []validation.Issue{validation.Crit(fmt.Sprintf("loop condition %q: %v", a.Condition, err))}
	}
	return nil
}

var (
	_ domain.Composite   = (*While)(nil)
	_ validation.Checker = (*While)(nil)
)
