package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcaster_RoutesByRun(t *testing.T) {
	b := observability.NewBroadcaster()
	hooks := b.Hooks()
	ctx := context.Background()

	runOne, cancelOne := b.Subscribe("run-1")
	defer cancelOne()
	all, cancelAll := b.Subscribe("")
	defer cancelAll()

	hooks.OnActionStarted(ctx, &domain.ActionEvent{RunID: "run-1", Action: "fetch"})
	hooks.OnActionStarted(ctx, &domain.ActionEvent{RunID: "run-2", Action: "upload"})

	ev := receiveEvent(t, runOne)
	assert.Equal(t, "fetch", ev.(*domain.ActionEvent).Action)
	select {
	case extra := <-runOne:
		t.Fatalf("run-1 subscriber received a foreign event: %v", extra)
	case <-time.After(50 * time.Millisecond):
	}

	first := receiveEvent(t, all)
	second := receiveEvent(t, all)
	assert.Equal(t, "fetch", first.(*domain.ActionEvent).Action)
	assert.Equal(t, "upload", second.(*domain.ActionEvent).Action)
}

func TestBroadcaster_CancelClosesChannel(t *testing.T) {
	b := observability.NewBroadcaster()

	ch, cancel := b.Subscribe("run-9")
	cancel()
	cancel() // Second cancel must be a no-op

	_, open := <-ch
	assert.False(t, open, "canceled subscription should close its channel")

	// Publishing after cancel must not panic or block
	b.Hooks().OnFlowStarted(context.Background(), &domain.FlowEvent{RunID: "run-9"})
}

func TestBroadcaster_DropsWhenSubscriberIsFull(t *testing.T) {
	b := observability.NewBroadcaster()
	hooks := b.Hooks()
	ctx := context.Background()

	ch, cancel := b.Subscribe("run-slow")
	defer cancel()

	// Publish past the buffer without reading; deliveries must not block.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 25; i++ {
			hooks.OnActionFinished(ctx, &domain.ActionEvent{RunID: "run-slow", Outcome: domain.OutcomeSuccess})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publishing to a full subscriber blocked")
	}

	assert.Equal(t, 10, len(ch), "buffer should hold the first events, the rest dropped")
}

func receiveEvent(t *testing.T, ch <-chan any) any {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	hooks := observability.LoggingHooks(logger)
	ctx := context.Background()

	hooks.OnFlowStarted(ctx, &domain.FlowEvent{Type: domain.EventFlowStarted, RunID: "run-3", Flow: "greet"})
	hooks.OnActionFinished(ctx, &domain.ActionEvent{
		Type:    domain.EventActionFinished,
		RunID:   "run-3",
		Path:    "/0",
		Action:  "say-hello",
		Outcome: domain.OutcomeSuccess,
	})
	hooks.OnRetryAttempt(ctx, &domain.ActionEvent{
		Type:    domain.EventRetryAttempt,
		RunID:   "run-3",
		Path:    "/1",
		Attempt: 2,
		Error:   "connection refused",
	})

	out := buf.String()
	require.Contains(t, out, "flow_started")
	assert.Contains(t, out, "flow=greet")
	assert.Contains(t, out, "action_finished")
	assert.Contains(t, out, "action=say-hello")
	assert.Contains(t, out, "outcome=success")
	assert.Contains(t, out, "retry_attempt")
	assert.Contains(t, out, "attempt=2")
	assert.Contains(t, out, `err="connection refused"`)
}
