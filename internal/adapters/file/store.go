// Package file persists run snapshots as JSON files on the local
// filesystem, one file per run. This is the default store for CLI
// usage: no daemon, survives restarts, and a snapshot is a plain file
// the user can inspect or delete.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

// DefaultBasePath is where run snapshots land when the host does not
// configure a directory.
var DefaultBasePath = filepath.Join(".espalier", "runs")

// Store implements ports.RunStore on the local filesystem.
type Store struct {
	BasePath string
}

var _ ports.RunStore = (*Store)(nil)

// New creates a Store rooted at basePath, or at DefaultBasePath when
// empty.
func New(basePath string) *Store {
	if basePath == "" {
		basePath = DefaultBasePath
	}
	return &Store{BasePath: basePath}
}

// Save persists the snapshot atomically: write to a temp file in the
// same directory, fsync, then rename over the destination.
func (s *Store) Save(_ context.Context, snap *domain.RunSnapshot) error {
	if snap == nil {
		return fmt.Errorf("cannot save a nil snapshot")
	}
	if err := checkID(snap.ID); err != nil {
		return err
	}

	if err := os.MkdirAll(s.BasePath, 0o755); err != nil {
		return fmt.Errorf("ensuring run directory: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(s.BasePath, "tmp-"+snap.ID+"-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	dest := s.path(snap.ID)
	// Windows cannot rename over an existing file, so clear it first.
	// The delete+rename window beats a torn write.
	if _, err := os.Stat(dest); err == nil {
		if err := os.Remove(dest); err != nil {
			return fmt.Errorf("replacing previous snapshot: %w", err)
		}
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("publishing snapshot: %w", err)
	}
	return nil
}

// Load retrieves the snapshot for a run ID.
func (s *Store) Load(_ context.Context, id string) (*domain.RunSnapshot, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("run %s: %w", id, domain.ErrRunNotFound)
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snap domain.RunSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", id, err)
	}
	return &snap, nil
}

// Delete removes the snapshot file. Unknown IDs are a no-op.
func (s *Store) Delete(_ context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}

	err := os.Remove(s.path(id))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	return nil
}

// List returns the IDs of all stored runs.
func (s *Store) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("listing runs: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	return ids, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.BasePath, id+".json")
}

// checkID rejects IDs that are empty or would escape the store
// directory. Run IDs normally are UUIDs, but they also arrive as raw
// CLI arguments.
func checkID(id string) error {
	if id == "" {
		return fmt.Errorf("run ID cannot be empty")
	}
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return fmt.Errorf("run ID %q contains path elements", id)
	}
	return nil
}
