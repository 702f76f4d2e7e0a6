// Package file stores snapshots as one JSON file per document.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dshills/scribe/internal/store"
)

const ext = ".json"

// Store writes <dir>/<id>.json files.
type Store struct {
	dir string
}

// New creates a store rooted at dir. The directory is created on first
// save.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the store's directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+ext)
}

// Save writes snap to a temporary file and renames it over the previous
// version.
func (s *Store) Save(ctx context.Context, id string, snap store.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := store.ValidateID(id); err != nil {
		return err
	}

	snap.ID = id
	data, err := store.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode %s: %w", id, err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("ensure store directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+id+"-*.tmp")
	if err != nil {
		return fmt.Errorf("save %s: %w", id, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("save %s: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("save %s: %w", id, err)
	}
	if err := os.Rename(tmp.Name(), s.path(id)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("save %s: %w", id, err)
	}
	return nil
}

// Load reads the snapshot stored under id.
func (s *Store) Load(ctx context.Context, id string) (store.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return store.Snapshot{}, err
	}
	if err := store.ValidateID(id); err != nil {
		return store.Snapshot{}, err
	}

	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return store.Snapshot{}, fmt.Errorf("%w: %s", store.ErrNotFound, id)
		}
		return store.Snapshot{}, fmt.Errorf("load %s: %w", id, err)
	}
	snap, err := store.Unmarshal(data)
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("load %s: %w", id, err)
	}
	return snap, nil
}

// List returns the IDs of the JSON files in the directory.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	ids := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ext {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ext))
	}
	slices.Sort(ids)
	return ids, nil
}

// Delete removes the file for id.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := store.ValidateID(id); err != nil {
		return err
	}

	err := os.Remove(s.path(id))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
