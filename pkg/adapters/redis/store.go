// Package redis provides run persistence and distributed locking on
// Redis, for hosts that run more than one replica. Snapshots live in
// plain keys; a sorted-set index keeps listing cheap and lets expired
// runs fall out lazily.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

// neverExpires is the index score for runs stored without a TTL.
// 2100-01-01T00:00:00Z.
const neverExpires = 4102444800

// Store implements ports.RunStore on Redis.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

var _ ports.RunStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithTTL sets an expiration for stored snapshots. Zero means runs
// are kept until deleted.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for snapshots and the run index.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a Redis run store with its own client.
func New(address, password string, db int, opts ...Option) *Store {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient creates a Redis run store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "espalier:run:",
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) key(id string) string {
	return s.prefix + id
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save persists the snapshot and registers it in the run index. The
// index score is the expiry instant, so List can prune lazily.
func (s *Store) Save(ctx context.Context, snap *domain.RunSnapshot) error {
	if snap == nil {
		return fmt.Errorf("cannot save a nil snapshot")
	}
	if snap.ID == "" {
		return fmt.Errorf("cannot save a snapshot without a run ID")
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshaling run %s: %w", snap.ID, err)
	}

	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = neverExpires
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(snap.ID), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: snap.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("saving run %s to redis: %w", snap.ID, err)
	}
	return nil
}

// Load retrieves the snapshot for a run ID.
func (s *Store) Load(ctx context.Context, id string) (*domain.RunSnapshot, error) {
	val, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, fmt.Errorf("run %s: %w", id, domain.ErrRunNotFound)
		}
		return nil, fmt.Errorf("reading run %s from redis: %w", id, err)
	}

	var snap domain.RunSnapshot
	if err := json.Unmarshal(val, &snap); err != nil {
		return nil, fmt.Errorf("decoding run %s: %w", id, err)
	}
	return &snap, nil
}

// Delete removes the snapshot and its index entry. Unknown IDs are a
// no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(id))
	pipe.ZRem(ctx, s.indexKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("deleting run %s from redis: %w", id, err)
	}
	return nil
}

// List returns the IDs in the run index, pruning entries whose expiry
// score has passed. Without a TTL every score is far-future and the
// prune removes nothing.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := fmt.Sprintf("%d", time.Now().Unix())
	if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", now).Err(); err != nil {
		return nil, fmt.Errorf("pruning expired runs: %w", err)
	}

	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return ids, nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
