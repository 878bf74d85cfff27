package ports

import (
	"context"

	"github.com/aretw0/espalier/pkg/domain"
)

// RunStore defines the interface for persisting interrupted runs.
// Saving a snapshot on every pause is what makes "stop now, resume
// tomorrow, possibly elsewhere" workflows durable.
type RunStore interface {
	// Save persists the snapshot, keyed by its run ID. Saving an ID
	// that already exists overwrites the previous snapshot.
	Save(ctx context.Context, snap *domain.RunSnapshot) error

	// Load retrieves the snapshot for a run ID.
	// Returns domain.ErrRunNotFound if the run does not exist.
	Load(ctx context.Context, id string) (*domain.RunSnapshot, error)

	// Delete removes the snapshot for a run ID. Deleting an unknown ID
	// is not an error.
	Delete(ctx context.Context, id string) error

	// List returns the IDs of all stored runs.
	List(ctx context.Context) ([]string, error)
}
