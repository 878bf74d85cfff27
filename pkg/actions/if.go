package actions

import (
	"context"
	"fmt"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/expression"
	"github.com/aretw0/espalier/pkg/validation"
)

// If runs one of two branches depending on a boolean condition.
//
// The condition is evaluated once per pass. When a run resumes inside a
// branch, the interrupted branch picks up where it left off and the
// condition is not evaluated again; the decision that admitted the
// branch stands.
type If struct {
	domain.Base

	// Condition must evaluate to a bool. Any other result type fails
	// the action.
	Condition string `yaml:"condition" mapstructure:"condition"`

	Then domain.Sequence `yaml:"-" mapstructure:"-"`
	Else domain.Sequence `yaml:"-" mapstructure:"-"`

	// ShowElse records whether the else branch is expanded in editors.
	// Presentation state only; an empty else branch runs the same
	// either way.
	ShowElse bool `yaml:"show_else,omitempty" mapstructure:"show_else"`

	// Eval defaults to the shared evaluator when nil.
	Eval *expression.Evaluator `yaml:"-" mapstructure:"-"`
}

// NewIf returns a conditional with empty branches.
func NewIf(name, condition string) *If {
	return &If{Base: domain.NewBase(name, ""), Condition: condition}
}

// Run picks and executes a branch. An interrupted branch resumes
// without re-evaluating the condition.
func (a *If) Run(ctx context.Context, env *domain.Environment) domain.Outcome {
	switch {
	case a.Then.Status().Resumable():
		return runBranch(ctx, env, "Then", &a.Then)
	case a.Else.Status().Resumable():
		return runBranch(ctx, env, "Else", &a.Else)
	}

	ok, err := expression.OrDefault(a.Eval).EvalBool(ctx, a.Condition, env)
	if err != nil {
		return domain.Fail(err)
	}
	if ok {
		return runBranch(ctx, env, "Then", &a.Then)
	}
	return runBranch(ctx, env, "Else", &a.Else)
}

// runBranch executes one composite branch with its label on the event
// path, keeping runtime paths aligned with cursors and validator
// output.
func runBranch(ctx context.Context, env *domain.Environment, label string, seq *domain.Sequence) domain.Outcome {
	return seq.Run(domain.WithPathSegment(ctx, label), env)
}

// Branches exposes both arms for tree walkers, whether or not the else
// branch is shown in editors.
func (a *If) Branches() []domain.Branch {
	return []domain.Branch{
		{Label: "Then", Seq: &a.Then},
		{Label: "Else", Seq: &a.Else},
	}
}

// Check verifies the condition parses and is not provably non-boolean.
func (a *If) Check() []validation.Issue {
	if err := expression.OrDefault(a.Eval).CheckBool(a.Condition); err != nil {
		return []validation.Issue{validation.Err(fmt.Sprintf("condition %q: %v", a.Condition, err))}
	}
	return nil
}

var (
	_ domain.Composite   = (*If)(nil)
	_ validation.Checker = (*If)(nil)
)
