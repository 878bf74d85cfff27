package runner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSignalManager_Lifecycle(t *testing.T) {
	sm := NewSignalManager(context.Background())
	defer sm.Stop()

	ctx := sm.Context()
	assert.NotNil(t, ctx)
	assert.NoError(t, ctx.Err())

	sm.Stop()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestSignalManager_ParentCancellation(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	sm := NewSignalManager(parent)
	defer sm.Stop()

	cancel()
	assert.ErrorIs(t, sm.Context().Err(), context.Canceled)
}

func TestSignalManager_CheckRace(t *testing.T) {
	// Without a pending signal, CheckRace waits out the full grace
	// window and returns.
	sm := NewSignalManager(context.Background())
	defer sm.Stop()

	start := time.Now()
	sm.CheckRace()
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
	assert.Less(t, elapsed, 200*time.Millisecond, "CheckRace took too long")
}

func TestSignalManager_CheckRaceAfterCancel(t *testing.T) {
	sm := NewSignalManager(context.Background())
	sm.Stop()

	start := time.Now()
	sm.CheckRace()
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("CheckRace must return immediately once canceled, took %v", elapsed)
	}
}
