// Package redis stores snapshots in Redis.
//
// Each snapshot is a JSON string under <prefix>doc:<id>. A sorted set at
// <prefix>index scores every ID by its expiry so List can prune IDs whose
// value has expired.
package redis

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/dshills/scribe/internal/store"
)

// DefaultPrefix namespaces keys when no prefix is configured.
const DefaultPrefix = "scribe:"

// noExpiry scores IDs saved without a TTL (2100-01-01).
const noExpiry = 4102444800

// Store implements store.Store on a Redis client.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithTTL expires snapshots ttl after their last save. Zero keeps them
// forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithClock replaces the clock used to score the index.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New connects to the server at addr.
func New(addr, password string, db int, opts ...Option) *Store {
	client := backend.NewClient(&backend.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient wraps an existing client. Close closes it.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: DefaultPrefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(id string) string {
	return s.prefix + "doc:" + id
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Save writes the snapshot and its index entry in one pipeline.
func (s *Store) Save(ctx context.Context, id string, snap store.Snapshot) error {
	if err := store.ValidateID(id); err != nil {
		return err
	}
	snap.ID = id
	data, err := store.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode %s: %w", id, err)
	}

	score := float64(noExpiry)
	if s.ttl > 0 {
		score = float64(s.now().Add(s.ttl).Unix())
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(id), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: id})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save %s to redis: %w", id, err)
	}
	return nil
}

// Load reads the snapshot stored under id.
func (s *Store) Load(ctx context.Context, id string) (store.Snapshot, error) {
	if err := store.ValidateID(id); err != nil {
		return store.Snapshot{}, err
	}

	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return store.Snapshot{}, fmt.Errorf("%w: %s", store.ErrNotFound, id)
		}
		return store.Snapshot{}, fmt.Errorf("load %s from redis: %w", id, err)
	}
	snap, err := store.Unmarshal(data)
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("load %s: %w", id, err)
	}
	return snap, nil
}

// List prunes expired index entries and returns the remaining IDs in
// lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := strconv.FormatInt(s.now().Unix(), 10)
	if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", "("+now).Err(); err != nil {
		return nil, fmt.Errorf("prune expired snapshots: %w", err)
	}

	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	slices.Sort(ids)
	return ids, nil
}

// Delete removes the snapshot and its index entry.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := store.ValidateID(id); err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(id))
	pipe.ZRem(ctx, s.indexKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete %s from redis: %w", id, err)
	}
	return nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
