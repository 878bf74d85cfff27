package desktop

import (
	"context"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

// Click locates an element and clicks it.
type Click struct {
	domain.Base

	Target ports.Selector     `yaml:"target" mapstructure:"target"`
	Retry  domain.RetryPolicy `yaml:"retry,omitempty" mapstructure:"retry"`

	Locator ports.Locator `yaml:"-" mapstructure:"-"`
}

// NewClick returns a click on the given element.
func NewClick(name string, target ports.Selector) *Click {
	return &Click{Base: domain.NewBase(name, ""), Target: target}
}

func (a *Click) Run(ctx context.Context, _ *domain.Environment) domain.Outcome {
	return a.Retry.Run(ctx, func(ctx context.Context) domain.Outcome {
		return withSession(ctx, a.Locator, func(ctx context.Context, s ports.Session) domain.Outcome {
			el, err := s.Find(ctx, a.Target)
			if err != nil {
				return failOrPause(ctx, err)
			}
			if err := el.Click(ctx); err != nil {
				return failOrPause(ctx, err)
			}
			return domain.Succeed()
		})
	})
}
