package domain

import (
	"context"
	"fmt"
	"time"
)

// minPollInterval keeps a misconfigured wait from spinning.
const minPollInterval = 10 * time.Millisecond

// Poll re-checks probe on a fixed cadence until it reports true or the
// timeout elapses, measured wall-clock from the start of this call.
//
// This is distinct from retry: a timeout here is a definitive failure
// carrying ErrWaitTimeout, and cancellation mid-poll is reported as a
// failure carrying ErrWaitInterrupted rather than a pause. The awaited
// condition was never observed, which is a leaf level concern; pause
// semantics belong to the sequence run loop above.
//
// A probe error counts as "not yet true" and polling continues; the
// last error is attached to the timeout failure for context.
func Poll(ctx context.Context, interval, timeout time.Duration, probe func(context.Context) (bool, error)) Outcome {
	if interval < minPollInterval {
		interval = minPollInterval
	}
	deadline := time.Now().Add(timeout)

	var lastErr error
	for {
		if ctx.Err() != nil {
			return Fail(fmt.Errorf("%w: %v", ErrWaitInterrupted, ctx.Err()))
		}

		ok, err := probe(ctx)
		if err == nil && ok {
			return Succeed()
		}
		if err != nil {
			lastErr = err
		}

		if !time.Now().Before(deadline) {
			if lastErr != nil {
				return Fail(fmt.Errorf("%w after %s: %v", ErrWaitTimeout, timeout, lastErr))
			}
			return Fail(fmt.Errorf("%w after %s", ErrWaitTimeout, timeout))
		}
		if !Sleep(ctx, interval) {
			return Fail(fmt.Errorf("%w: %v", ErrWaitInterrupted, ctx.Err()))
		}
	}
}
