package domain_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryAttemptBudget(t *testing.T) {
	// Times = 2 means three attempts in total, with the delay between
	// attempt pairs and never after the last one.
	policy := domain.RetryPolicy{Times: 2, Delay: 100 * time.Millisecond}
	boom := errors.New("still broken")

	var attemptTimes []time.Time
	out := policy.Run(context.Background(), func(context.Context) domain.Outcome {
		attemptTimes = append(attemptTimes, time.Now())
		return domain.Fail(boom)
	})
	finished := time.Now()

	require.True(t, out.Failed())
	assert.ErrorIs(t, out.Err, boom)
	require.Len(t, attemptTimes, 3)

	for i := 1; i < len(attemptTimes); i++ {
		gap := attemptTimes[i].Sub(attemptTimes[i-1])
		assert.GreaterOrEqual(t, gap, 100*time.Millisecond, "delay must separate attempts")
	}
	assert.Less(t, finished.Sub(attemptTimes[2]), 100*time.Millisecond,
		"no delay after the final attempt")
}

func TestRetryStopsOnFirstSuccess(t *testing.T) {
	policy := domain.RetryPolicy{Times: 5, Delay: time.Second}

	calls := 0
	start := time.Now()
	out := policy.Run(context.Background(), func(context.Context) domain.Outcome {
		calls++
		if calls == 2 {
			return domain.Succeed()
		}
		return domain.Fail(errors.New("transient"))
	})

	require.True(t, out.Success())
	assert.Equal(t, 2, calls)
	assert.Less(t, time.Since(start), 3*time.Second, "only one delay should have run")
}

func TestRetryZeroValueMeansSingleAttempt(t *testing.T) {
	var policy domain.RetryPolicy

	calls := 0
	out := policy.Run(context.Background(), func(context.Context) domain.Outcome {
		calls++
		return domain.Fail(errors.New("nope"))
	})

	require.True(t, out.Failed())
	assert.Equal(t, 1, calls)
}

func TestRetryCancellationDuringDelayPauses(t *testing.T) {
	policy := domain.RetryPolicy{Times: 3, Delay: 10 * time.Second}
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	out := policy.Run(ctx, func(context.Context) domain.Outcome {
		calls++
		return domain.Fail(errors.New("transient"))
	})

	require.True(t, out.Paused(), "an interrupted retry loop is a pause, not a failure")
	assert.Equal(t, 1, calls, "no further attempts after cancellation")
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRetryPropagatesPauseFromAttempt(t *testing.T) {
	policy := domain.RetryPolicy{Times: 4, Delay: time.Millisecond}

	calls := 0
	out := policy.Run(context.Background(), func(context.Context) domain.Outcome {
		calls++
		return domain.Pause()
	})

	require.True(t, out.Paused())
	assert.Equal(t, 1, calls, "a pause is never retried")
}

func TestRetryEmitsAttemptEvents(t *testing.T) {
	var attempts []int
	hooks := &domain.LifecycleHooks{
		OnRetryAttempt: func(_ context.Context, ev *domain.ActionEvent) {
			attempts = append(attempts, ev.Attempt)
		},
	}
	ctx := domain.WithObserver(context.Background(), hooks)

	policy := domain.RetryPolicy{Times: 2, Delay: time.Millisecond}
	out := policy.Run(ctx, func(context.Context) domain.Outcome {
		return domain.Fail(errors.New("always"))
	})

	require.True(t, out.Failed())
	assert.Equal(t, []int{1, 2, 3}, attempts)
}

func TestSleepHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	assert.False(t, domain.Sleep(ctx, 10*time.Second))
	assert.Less(t, time.Since(start), 5*time.Second)

	assert.True(t, domain.Sleep(context.Background(), time.Millisecond))
	assert.False(t, domain.Sleep(ctx, 0), "cancelled context fails even for zero delay")
}
