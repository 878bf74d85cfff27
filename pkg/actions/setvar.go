package actions

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/expression"
	"github.com/aretw0/espalier/pkg/validation"
)

// SetVariable evaluates an expression and stores the result in the
// flow environment. Literals work too: `42`, `"text"`, `true` are all
// valid expressions.
type SetVariable struct {
	domain.Base

	Variable string `yaml:"variable" mapstructure:"variable"`
	Value    string `yaml:"value" mapstructure:"value"`

	// Eval defaults to the shared evaluator when nil.
	Eval *expression.Evaluator `yaml:"-" mapstructure:"-"`
}

// NewSetVariable returns an assignment named after its target.
func NewSetVariable(variable, value string) *SetVariable {
	return &SetVariable{
		Base:     domain.NewBase("set "+variable, ""),
		Variable: variable,
		Value:    value,
	}
}

func (a *SetVariable) Run(ctx context.Context, env *domain.Environment) domain.Outcome {
	if a.Variable == "" {
		return domain.Fail(errors.New("set variable: no variable name"))
	}
	v, err := expression.OrDefault(a.Eval).Eval(ctx, a.Value, env)
	if err != nil {
		return domain.Fail(err)
	}
	env.Set(a.Variable, v)
	return domain.Succeed()
}

// Check verifies the target name and that the value expression parses.
func (a *SetVariable) Check() []validation.Issue {
	var issues []validation.Issue
	if a.Variable == "" {
		issues = append(issues, validation.Err("no variable name"))
	}
	if err := expression.OrDefault(a.Eval).Check(a.Value); err != nil {
		issues = append(issues, validation.Err(fmt.Sprintf("value %q: %v", a.Value, err)))
	}
	return issues
}

var _ validation.Checker = (*SetVariable)(nil)
