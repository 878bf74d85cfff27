package desktop

import (
	"context"
	"fmt"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/expression"
	"github.com/aretw0/espalier/pkg/ports"
)

// SetText writes text into an element. The text is the literal Text
// field unless TextFrom names an expression, in which case the
// expression result (stringified) is written instead.
type SetText struct {
	domain.Base

	Target   ports.Selector     `yaml:"target" mapstructure:"target"`
	Text     string             `yaml:"text,omitempty" mapstructure:"text"`
	TextFrom string             `yaml:"text_from,omitempty" mapstructure:"text_from"`
	Retry    domain.RetryPolicy `yaml:"retry,omitempty" mapstructure:"retry"`

	Locator ports.Locator         `yaml:"-" mapstructure:"-"`
	Eval    *expression.Evaluator `yaml:"-" mapstructure:"-"`
}

// NewSetText returns a literal text entry.
func NewSetText(name string, target ports.Selector, text string) *SetText {
	return &SetText{Base: domain.NewBase(name, ""), Target: target, Text: text}
}

func (a *SetText) Run(ctx context.Context, env *domain.Environment) domain.Outcome {
	text := a.Text
	if a.TextFrom != "" {
		// Evaluated once: the environment cannot change between
		// attempts of the same action.
		v, err := expression.OrDefault(a.Eval).Eval(ctx, a.TextFrom, env)
		if err != nil {
			return domain.Fail(err)
		}
		text = fmt.Sprint(v)
	}

	return a.Retry.Run(ctx, func(ctx context.Context) domain.Outcome {
		return withSession(ctx, a.Locator, func(ctx context.Context, s ports.Session) domain.Outcome {
			el, err := s.Find(ctx, a.Target)
			if err != nil {
				return failOrPause(ctx, err)
			}
			if err := el.SetText(ctx, text); err != nil {
				return failOrPause(ctx, err)
			}
			return domain.Succeed()
		})
	})
}
