package actions

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/expression"
	"github.com/aretw0/espalier/pkg/validation"
)

// Wait cadence defaults, applied when a WaitUntil leaves them zero.
const (
	DefaultWaitInterval = 500 * time.Millisecond
	DefaultWaitTimeout  = 30 * time.Second
)

// WaitUntil polls a boolean condition at a fixed cadence until it turns
// true or the timeout passes. Conditions usually observe external state
// through evaluator functions (element existence, file presence); the
// environment itself cannot change while the flow is blocked here.
//
// Exhausting the timeout fails the action. So does canceling the run
// mid-wait: an interrupted wait says nothing about whether the
// condition would ever have held, and a resumed wait must restart its
// clock, so the outcome is a failure rather than a pause.
type WaitUntil struct {
	domain.Base

	Condition string        `yaml:"condition" mapstructure:"condition"`
	Interval  time.Duration `yaml:"interval,omitempty" mapstructure:"interval"`
	Timeout   time.Duration `yaml:"timeout,omitempty" mapstructure:"timeout"`

	// Eval defaults to the shared evaluator when nil.
	Eval *expression.Evaluator `yaml:"-" mapstructure:"-"`
}

// NewWaitUntil returns a poll with default cadence and timeout.
func NewWaitUntil(name, condition string) *WaitUntil {
	return &WaitUntil{Base: domain.NewBase(name, ""), Condition: condition}
}

func (a *WaitUntil) Run(ctx context.Context, env *domain.Environment) domain.Outcome {
	eval := expression.OrDefault(a.Eval)
	if err := eval.CheckBool(a.Condition); err != nil {
		return domain.Fail(&domain.ConditionError{Expr: a.Condition, Cause: err})
	}

	interval := a.Interval
	if interval <= 0 {
		interval = DefaultWaitInterval
	}
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}

	return domain.Poll(ctx, interval, timeout, func(ctx context.Context) (bool, error) {
		return eval.EvalBool(ctx, a.Condition, env)
	})
}

// Check verifies the condition parses and is not provably non-boolean.
func (a *WaitUntil) Check() []validation.Issue {
	if err := expression.OrDefault(a.Eval).CheckBool(a.Condition); err != nil {
		return []validation.Issue{validation.Err(fmt.Sprintf("condition %q: %v", a.Condition, err))}
	}
	return nil
}

var _ validation.Checker = (*WaitUntil)(nil)
