// Package memory provides in-process adapters backed by plain maps: a
// run store and a flow library. They serve tests, examples and single
// process hosts that do not need durability.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

// Store implements ports.RunStore in memory. Snapshots are copied on
// the way in and out, so callers can keep mutating theirs.
type Store struct {
	mu   sync.RWMutex
	runs map[string]*domain.RunSnapshot
}

var _ ports.RunStore = (*Store)(nil)

// NewStore creates an empty in-memory run store.
func NewStore() *Store {
	return &Store{runs: make(map[string]*domain.RunSnapshot)}
}

// Save persists the snapshot, overwriting any previous one for the
// same run ID.
func (s *Store) Save(_ context.Context, snap *domain.RunSnapshot) error {
	if snap == nil {
		return fmt.Errorf("cannot save a nil snapshot")
	}
	if snap.ID == "" {
		return fmt.Errorf("cannot save a snapshot without a run ID")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[snap.ID] = clone(snap)
	return nil
}

// Load retrieves the snapshot for a run ID.
func (s *Store) Load(_ context.Context, id string) (*domain.RunSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", id, domain.ErrRunNotFound)
	}
	return clone(snap), nil
}

// Delete removes the snapshot for a run ID. Unknown IDs are a no-op.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.runs, id)
	return nil
}

// List returns the stored run IDs, sorted.
func (s *Store) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.runs))
	for id := range s.runs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func clone(snap *domain.RunSnapshot) *domain.RunSnapshot {
	c := *snap
	if snap.Cursor != nil {
		c.Cursor = append([]string(nil), snap.Cursor...)
	}
	if snap.Env != nil {
		c.Env = make(map[string]any, len(snap.Env))
		for k, v := range snap.Env {
			c.Env[k] = v
		}
	}
	return &c
}
