package desktop

import (
	"context"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

// Wait cadence defaults, applied when a WaitForElement leaves them
// zero.
const (
	DefaultProbeInterval = 500 * time.Millisecond
	DefaultProbeTimeout  = 30 * time.Second
)

// WaitForElement polls until the element can be located or the timeout
// passes. Each probe runs in its own session, so the wait observes the
// live UI rather than a cached tree.
//
// Like every polling wait, exhausting the timeout or canceling the run
// mid-wait fails the action.
type WaitForElement struct {
	domain.Base

	Target   ports.Selector `yaml:"target" mapstructure:"target"`
	Interval time.Duration  `yaml:"interval,omitempty" mapstructure:"interval"`
	Timeout  time.Duration  `yaml:"timeout,omitempty" mapstructure:"timeout"`

	Locator ports.Locator `yaml:"-" mapstructure:"-"`
}

// NewWaitForElement returns a wait with default cadence and timeout.
func NewWaitForElement(name string, target ports.Selector) *WaitForElement {
	return &WaitForElement{Base: domain.NewBase(name, ""), Target: target}
}

func (a *WaitForElement) Run(ctx context.Context, _ *domain.Environment) domain.Outcome {
	if a.Locator == nil {
		return domain.Fail(errNoLocator)
	}

	interval := a.Interval
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}

	return domain.Poll(ctx, interval, timeout, func(ctx context.Context) (bool, error) {
		s, err := a.Locator.Open(ctx)
		if err != nil {
			return false, err
		}
		defer func() { _ = s.Close() }()
		if _, err := s.Find(ctx, a.Target); err != nil {
			return false, err
		}
		return true, nil
	})
}
