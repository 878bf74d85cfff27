package domain

import (
	"context"
	"time"
)

// RetryPolicy bounds re-attempts of a leaf operation: Times additional
// attempts after the first (total attempts = Times+1) with an
// interruptible Delay between attempts. The zero value means a single
// attempt with no waiting.
type RetryPolicy struct {
	Times int           `json:"times" yaml:"times"`
	Delay time.Duration `json:"delay" yaml:"delay"`
}

// Run executes attempt until it succeeds, pauses, or the attempt budget
// is spent. The delay runs between attempts, never after the last.
// Cancellation observed at any point, including mid-delay, aborts
// immediately and reports a pause: an interrupted retry loop is not a
// failure.
func (p RetryPolicy) Run(ctx context.Context, attempt func(context.Context) Outcome) Outcome {
	attempts := p.Times + 1
	if attempts < 1 {
		attempts = 1
	}

	var out Outcome
	for i := 1; i <= attempts; i++ {
		if ctx.Err() != nil {
			return Pause()
		}
		out = attempt(ctx)
		if !out.Failed() {
			return out
		}
		EmitRetryAttempt(ctx, i, out.Err)
		if i == attempts {
			break
		}
		if !Sleep(ctx, p.Delay) {
			return Pause()
		}
	}
	return out
}

// Sleep waits for d, honoring cancellation. It reports false when the
// context was cancelled before the delay elapsed. A non-positive d
// returns immediately.
func Sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
