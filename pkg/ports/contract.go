package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/espalier/pkg/domain"
)

// RunStoreContract runs a suite of tests to verify that a RunStore
// implementation adheres to the defined interface contract.
func RunStoreContract(t *testing.T, store RunStore) {
	ctx := context.Background()
	runID := "contract-test-run-" + time.Now().Format("20060102150405")

	snapshot := func(id string) *domain.RunSnapshot {
		return &domain.RunSnapshot{
			ID:      id,
			Flow:    "contract-flow",
			Status:  domain.StatusPaused,
			Cursor:  []string{"2", "Then", "0"},
			Env:     map[string]any{"foo": "bar", "count": 42},
			SavedAt: time.Now().UTC(),
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		err := store.Save(ctx, snapshot(runID))
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, "contract-flow", loaded.Flow)
		assert.Equal(t, domain.StatusPaused, loaded.Status)
		assert.Equal(t, []string{"2", "Then", "0"}, loaded.Cursor)
		assert.Equal(t, "bar", loaded.Env["foo"])
		// JSON backed stores may round numeric env values through
		// float64; only require the value to survive.
		assert.NotNil(t, loaded.Env["count"])
	})

	t.Run("Overwrite", func(t *testing.T) {
		snap := snapshot(runID)
		snap.Cursor = []string{"4"}
		require.NoError(t, store.Save(ctx, snap))

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, []string{"4"}, loaded.Cursor)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, snapshot(runID)))

		err := store.Delete(ctx, runID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound, "Load after Delete should return ErrRunNotFound")

		assert.NoError(t, store.Delete(ctx, runID), "Delete of unknown run should be a no-op")
	})

	t.Run("List", func(t *testing.T) {
		id1 := runID + "-1"
		id2 := runID + "-2"
		_ = store.Save(ctx, snapshot(id1))
		_ = store.Save(ctx, snapshot(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		runs, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, runs, id1)
		assert.Contains(t, runs, id2)
	})
}
