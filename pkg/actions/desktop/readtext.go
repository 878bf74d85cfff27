package desktop

import (
	"context"
	"errors"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

// ReadText reads an element's text into an environment variable.
type ReadText struct {
	domain.Base

	Target    ports.Selector     `yaml:"target" mapstructure:"target"`
	ResultVar string             `yaml:"result_var" mapstructure:"result_var"`
	Retry     domain.RetryPolicy `yaml:"retry,omitempty" mapstructure:"retry"`

	Locator ports.Locator `yaml:"-" mapstructure:"-"`
}

// NewReadText returns a read of the element's text into variable.
func NewReadText(name string, target ports.Selector, variable string) *ReadText {
	return &ReadText{Base: domain.NewBase(name, ""), Target: target, ResultVar: variable}
}

func (a *ReadText) Run(ctx context.Context, env *domain.Environment) domain.Outcome {
	if a.ResultVar == "" {
		return domain.Fail(errors.New("read text: no result variable"))
	}
	return a.Retry.Run(ctx, func(ctx context.Context) domain.Outcome {
		return withSession(ctx, a.Locator, func(ctx context.Context, s ports.Session) domain.Outcome {
			el, err := s.Find(ctx, a.Target)
			if err != nil {
				return failOrPause(ctx, err)
			}
			text, err := el.Text(ctx)
			if err != nil {
				return failOrPause(ctx, err)
			}
			env.Set(a.ResultVar, text)
			return domain.Succeed()
		})
	})
}
