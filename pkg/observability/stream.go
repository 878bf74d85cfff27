package observability

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/espalier/pkg/domain"
)

// subscriberBuffer is how many events a slow consumer may fall behind
// before deliveries to it are dropped.
const subscriberBuffer = 10

// Broadcaster fans lifecycle events out to subscribers. Hosts use it
// to stream run progress (the HTTP host's SSE endpoint, the watch
// command); one broadcaster serves any number of concurrent runs.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan any]struct{} // run ID -> set of channels, "" = every run
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[string]map[chan any]struct{}),
	}
}

// Subscribe registers interest in one run's events, or in every run
// when runID is empty. The returned cancel func unregisters and closes
// the channel; callers must invoke it when done.
func (b *Broadcaster) Subscribe(runID string) (<-chan any, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan any, subscriberBuffer)
	if _, ok := b.subscribers[runID]; !ok {
		b.subscribers[runID] = make(map[chan any]struct{})
	}
	b.subscribers[runID][ch] = struct{}{}

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if subs, ok := b.subscribers[runID]; ok {
			if _, live := subs[ch]; live {
				delete(subs, ch)
				close(ch)
				if len(subs) == 0 {
					delete(b.subscribers, runID)
				}
			}
		}
	}
}

// Hooks returns lifecycle hooks that publish every event through the
// broadcaster. Subscribers receive the event pointers themselves, so
// they must not mutate them.
func (b *Broadcaster) Hooks() *domain.LifecycleHooks {
	return &domain.LifecycleHooks{
		OnFlowStarted: func(_ context.Context, ev *domain.FlowEvent) {
			b.publish(ev.RunID, ev)
		},
		OnFlowFinished: func(_ context.Context, ev *domain.FlowEvent) {
			b.publish(ev.RunID, ev)
		},
		OnActionStarted: func(_ context.Context, ev *domain.ActionEvent) {
			b.publish(ev.RunID, ev)
		},
		OnActionFinished: func(_ context.Context, ev *domain.ActionEvent) {
			b.publish(ev.RunID, ev)
		},
		OnRetryAttempt: func(_ context.Context, ev *domain.ActionEvent) {
			b.publish(ev.RunID, ev)
		},
		OnVariableChanged: func(_ context.Context, ev *domain.VariableEvent) {
			b.publish(ev.RunID, ev)
		},
	}
}

func (b *Broadcaster) publish(runID string, event any) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	b.deliver(b.subscribers[runID], runID, event)
	if runID != "" {
		b.deliver(b.subscribers[""], runID, event)
	}
}

func (b *Broadcaster) deliver(subs map[chan any]struct{}, runID string, event any) {
	for ch := range subs {
		select {
		case ch <- event:
		default:
			// Drop the event if the channel is full (slow client)
			slog.Warn("event stream: subscriber buffer full, dropping event", "run_id", runID)
		}
	}
}
