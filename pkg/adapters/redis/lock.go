package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/espalier/pkg/ports"
)

// ErrLockAcquire wraps failures to take a distributed lock, including
// giving up because the context ended while waiting.
var ErrLockAcquire = errors.New("failed to acquire distributed lock")

// lockRetryInterval is how often a blocked Lock re-attempts SET NX.
const lockRetryInterval = 100 * time.Millisecond

// unlockScript releases a lock only while the stored token still
// matches the acquirer's. A holder whose TTL lapsed cannot delete a
// lock someone else has since taken.
var unlockScript = backend.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Locker implements ports.DistributedLocker with the SET NX + TTL
// pattern. Each acquisition stores a unique token and release is a
// compare-and-delete script keyed on that token.
type Locker struct {
	client *backend.Client
	prefix string
}

var _ ports.DistributedLocker = (*Locker)(nil)

// NewLocker creates a Redis locker. Lock keys are stored under
// prefix + "lock:".
func NewLocker(client *backend.Client, prefix string) *Locker {
	return &Locker{
		client: client,
		prefix: prefix,
	}
}

// Lock acquires the lock for key, blocking and retrying until it
// succeeds or ctx ends. The returned UnlockFunc releases this
// acquisition only; it is a no-op once the TTL has lapsed.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	lockKey := l.prefix + "lock:" + key
	token := uuid.NewString()

	acquire := func() (bool, error) {
		ok, err := l.client.SetNX(ctx, lockKey, token, ttl).Result()
		if err != nil {
			return false, fmt.Errorf("redis error acquiring lock %s: %w", lockKey, err)
		}
		return ok, nil
	}

	ok, err := acquire()
	if err != nil {
		return nil, err
	}
	if ok {
		return l.unlockFunc(lockKey, token), nil
	}

	ticker := time.NewTicker(lockRetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ErrLockAcquire, ctx.Err())
		case <-ticker.C:
			ok, err := acquire()
			if err != nil {
				return nil, err
			}
			if ok {
				return l.unlockFunc(lockKey, token), nil
			}
		}
	}
}

func (l *Locker) unlockFunc(lockKey, token string) ports.UnlockFunc {
	return func(ctx context.Context) error {
		if err := unlockScript.Run(ctx, l.client, []string{lockKey}, token).Err(); err != nil {
			return fmt.Errorf("releasing lock %s: %w", lockKey, err)
		}
		return nil
	}
}
