package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/aretw0/espalier/internal/logging"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

// defaultLockTTL bounds how long a crashed holder can block a run
// before the distributed lock expires on its own.
const defaultLockTTL = 30 * time.Second

// lockEntry holds the per-run mutex and its reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager serializes access to persisted runs. Within a process it
// hands out refcounted per-run mutexes; across processes it can defer
// to a distributed locker, so two hosts never resume the same run at
// once.
type Manager struct {
	store ports.RunStore

	mu    sync.Mutex            // Guards the lock map
	locks map[string]*lockEntry // Active per-run locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger // Logger for internal events (like deferred errors)
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides how long a distributed lock may outlive a
// crashed holder.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a run manager on top of the given store.
func NewManager(store ports.RunStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: defaultLockTTL,
		logger:  logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference
// count. The caller must Lock the entry.mu and later call release(id)
// after unlocking.
func (m *Manager) acquire(id string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		entry = &lockEntry{}
		m.locks[id] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry once it
// reaches zero, so finished runs do not leak map entries.
func (m *Manager) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		return // Should not happen if paired correctly
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, id)
	}
}

// Load retrieves an existing run snapshot from the store.
func (m *Manager) Load(ctx context.Context, id string) (*domain.RunSnapshot, error) {
	var snap *domain.RunSnapshot
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		snap, err = m.store.Load(ctx, id)
		return err
	})
	return snap, err
}

// LoadOrStart tries to load a run. If it does not exist yet, a fresh
// ready snapshot for the given flow is persisted immediately, which
// reserves the run ID against concurrent starters.
func (m *Manager) LoadOrStart(ctx context.Context, id string, flowName string) (*domain.RunSnapshot, error) {
	var snap *domain.RunSnapshot
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		snap, err = m.store.Load(ctx, id)
		if err == nil {
			return nil
		}

		if !errors.Is(err, domain.ErrRunNotFound) {
			return fmt.Errorf("failed to check run existence: %w", err)
		}

		// Not found, start fresh
		if flowName == "" {
			return fmt.Errorf("cannot start run %s without a flow name", id)
		}
		snap = &domain.RunSnapshot{
			ID:      id,
			Flow:    flowName,
			Status:  domain.StatusReady,
			SavedAt: time.Now().UTC(),
		}

		if err := m.store.Save(ctx, snap); err != nil {
			return fmt.Errorf("failed to initialize run: %w", err)
		}
		return nil
	})
	return snap, err
}

// Save persists the snapshot under its run ID.
func (m *Manager) Save(ctx context.Context, snap *domain.RunSnapshot) error {
	if snap == nil {
		return fmt.Errorf("cannot save a nil snapshot")
	}
	return m.WithLock(ctx, snap.ID, func(ctx context.Context) error {
		return m.store.Save(ctx, snap)
	})
}

// Delete removes the run from the store.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		return m.store.Delete(ctx, id)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying run store.
func (m *Manager) Store() ports.RunStore {
	return m.store
}

// WithLock executes fn while holding the lock for the run: the local
// refcounted mutex always, plus the distributed lock when a locker is
// configured.
func (m *Manager) WithLock(ctx context.Context, id string, fn func(context.Context) error) error {
	entry := m.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(id)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, id, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"run_id", id,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
