package runner

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// SignalManager ties OS interrupts to context cancellation, including
// the platform race on Windows where Ctrl+C surfaces as a stdin EOF
// slightly before the signal context observes it.
type SignalManager struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewSignalManager starts listening for SIGINT and SIGTERM. The
// returned manager's context is canceled on the first signal or when
// the parent is canceled, whichever comes first.
func NewSignalManager(parent context.Context) *SignalManager {
	sm := &SignalManager{}
	sm.ctx, sm.cancel = signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	return sm
}

// Context returns the signal context. Run flows under it so the first
// interrupt pauses them at the next safe point.
func (sm *SignalManager) Context() context.Context {
	return sm.ctx
}

// Stop unregisters the listener and restores default signal delivery,
// so the next interrupt terminates the process the normal way.
func (sm *SignalManager) Stop() {
	sm.cancel()
}

// CheckRace waits briefly for the signal context to catch up after a
// read error. On Windows a Ctrl+C can fail a pending stdin read before
// the context is canceled; without this grace window the failure would
// be reported as an IO error instead of an interrupt.
func (sm *SignalManager) CheckRace() {
	if sm.ctx.Err() == nil {
		select {
		case <-sm.ctx.Done():
		case <-time.After(100 * time.Millisecond):
		}
	}
}
