// Package memory is an in-process snapshot store.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/dshills/scribe/internal/store"
)

// Store keeps snapshots in a map. Saved and loaded snapshots are copied so
// callers never share byte slices with the store.
type Store struct {
	mu    sync.RWMutex
	snaps map[string]store.Snapshot
}

// New creates an empty store.
func New() *Store {
	return &Store{snaps: make(map[string]store.Snapshot)}
}

// Save stores snap under id.
func (s *Store) Save(ctx context.Context, id string, snap store.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := store.ValidateID(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	snap.ID = id
	s.snaps[id] = clone(snap)
	return nil
}

// Load returns the snapshot stored under id.
func (s *Store) Load(ctx context.Context, id string) (store.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return store.Snapshot{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snaps[id]
	if !ok {
		return store.Snapshot{}, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return clone(snap), nil
}

// List returns the stored IDs in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.snaps))
	for id := range s.snaps {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// Delete removes the snapshot stored under id.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snaps, id)
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

func clone(snap store.Snapshot) store.Snapshot {
	snap.Doc = slices.Clone(snap.Doc)
	snap.Changes = slices.Clone(snap.Changes)
	return snap
}
