package ports

import (
	"context"
	"time"
)

// UnlockFunc is a function that releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker defines the interface for distributed concurrency
// control. It allows the run manager to coordinate access to a run
// across multiple instances (replicas), so two hosts never resume the
// same run at once.
type DistributedLocker interface {
	// Lock attempts to acquire a distributed lock for the given key
	// (e.g. a run ID). It blocks until the lock is acquired, the
	// context is canceled, or the TTL expires (implementation
	// specific). Returns an UnlockFunc that MUST be called to release
	// the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
