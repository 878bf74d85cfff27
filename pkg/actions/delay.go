package actions

import (
	"context"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/validation"
)

// Delay waits for a fixed duration. Canceling the run during the wait
// pauses the flow on this action; the resumed run waits the full
// duration again.
type Delay struct {
	domain.Base

	Duration time.Duration `yaml:"duration" mapstructure:"duration"`
}

// NewDelay returns a fixed wait.
func NewDelay(name string, d time.Duration) *Delay {
	return &Delay{Base: domain.NewBase(name, ""), Duration: d}
}

func (a *Delay) Run(ctx context.Context, _ *domain.Environment) domain.Outcome {
	if !domain.Sleep(ctx, a.Duration) {
		return domain.Pause()
	}
	return domain.Succeed()
}

func (a *Delay) Check() []validation.Issue {
	if a.Duration < 0 {
		return []validation.Issue{validation.Warn("negative duration")}
	}
	return nil
}

var _ validation.Checker = (*Delay)(nil)
