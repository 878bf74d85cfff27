package ports_test

import (
	"context"
	"testing"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

// MockStore is an in-memory implementation of RunStore for testing
// purposes.
type MockStore struct {
	data map[string]*domain.RunSnapshot
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]*domain.RunSnapshot),
	}
}

func (m *MockStore) Save(ctx context.Context, snap *domain.RunSnapshot) error {
	// Shallow copy with a detached env map to simulate serialization.
	copied := *snap
	copied.Env = make(map[string]any, len(snap.Env))
	for k, v := range snap.Env {
		copied.Env[k] = v
	}
	m.data[snap.ID] = &copied
	return nil
}

func (m *MockStore) Load(ctx context.Context, id string) (*domain.RunSnapshot, error) {
	snap, ok := m.data[id]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	return snap, nil
}

func (m *MockStore) Delete(ctx context.Context, id string) error {
	delete(m.data, id)
	return nil
}

func (m *MockStore) List(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	return ids, nil
}

var _ ports.RunStore = (*MockStore)(nil)

// TestMockStoreLifecycle verifies the reference in-memory store by
// walking a full save/load/delete cycle by hand.
func TestMockStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMockStore()
	runID := "run-123"

	// 1. Load before save
	_, err := store.Load(ctx, runID)
	if err != domain.ErrRunNotFound {
		t.Fatalf("Expected ErrRunNotFound for unknown run, got %v", err)
	}

	// 2. Save a paused run
	snap := &domain.RunSnapshot{
		ID:     runID,
		Flow:   "invoice-entry",
		Status: domain.StatusPaused,
		Cursor: []string{"1"},
		Env:    map[string]any{"foo": "bar"},
	}
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("Failed to save snapshot: %v", err)
	}

	// 3. Load it back
	loaded, err := store.Load(ctx, runID)
	if err != nil {
		t.Fatalf("Failed to load snapshot: %v", err)
	}
	if loaded.Flow != snap.Flow {
		t.Errorf("Expected flow %s, got %s", snap.Flow, loaded.Flow)
	}
	if loaded.Env["foo"] != "bar" {
		t.Errorf("Expected Env['foo'] = 'bar', got %v", loaded.Env["foo"])
	}

	// 4. Mutating the original must not leak into the stored copy
	snap.Env["foo"] = "changed"
	if loaded.Env["foo"] != "bar" {
		t.Error("Stored snapshot shares env map with caller")
	}

	// 5. Delete
	if err := store.Delete(ctx, runID); err != nil {
		t.Fatalf("Failed to delete run: %v", err)
	}
	if _, err := store.Load(ctx, runID); err != domain.ErrRunNotFound {
		t.Errorf("Expected ErrRunNotFound after delete, got %v", err)
	}
}

// TestMockStoreContract runs the shared contract suite against the
// reference store, anchoring the expectations real adapters are held
// to.
func TestMockStoreContract(t *testing.T) {
	ports.RunStoreContract(t, NewMockStore())
}
