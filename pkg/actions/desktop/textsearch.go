package desktop

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

// WindowTextSearch reads a window's text and searches it for a
// substring. With ResultVar set the action records true or false and
// always succeeds; without it the action asserts, failing when the
// text is absent.
type WindowTextSearch struct {
	domain.Base

	Window    ports.Selector     `yaml:"window" mapstructure:"window"`
	Search    string             `yaml:"search" mapstructure:"search"`
	ResultVar string             `yaml:"result_var,omitempty" mapstructure:"result_var"`
	Retry     domain.RetryPolicy `yaml:"retry,omitempty" mapstructure:"retry"`

	Locator ports.Locator `yaml:"-" mapstructure:"-"`
}

// NewWindowTextSearch returns an assertion that the window shows the
// given text.
func NewWindowTextSearch(name string, window ports.Selector, search string) *WindowTextSearch {
	return &WindowTextSearch{Base: domain.NewBase(name, ""), Window: window, Search: search}
}

func (a *WindowTextSearch) Run(ctx context.Context, env *domain.Environment) domain.Outcome {
	return a.Retry.Run(ctx, func(ctx context.Context) domain.Outcome {
		return withSession(ctx, a.Locator, func(ctx context.Context, s ports.Session) domain.Outcome {
			el, err := s.Find(ctx, a.Window)
			if err != nil {
				return failOrPause(ctx, err)
			}
			text, err := el.Text(ctx)
			if err != nil {
				return failOrPause(ctx, err)
			}

			found := strings.Contains(text, a.Search)
			if a.ResultVar != "" {
				env.Set(a.ResultVar, found)
				return domain.Succeed()
			}
			if !found {
				return domain.Fail(fmt.Errorf("window %s does not show %q", a.Window, a.Search))
			}
			return domain.Succeed()
		})
	})
}
