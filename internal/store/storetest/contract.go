// Package storetest holds the behaviour every store.Store backend must
// share.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/scribe/internal/store"
)

// Doc is a small valid basic-schema document.
const Doc = `{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"Hello"}]}]}`

// Snapshot returns a snapshot of Doc with the given version.
func Snapshot(version uint64) store.Snapshot {
	return store.Snapshot{
		Version: version,
		Schema:  "basic",
		Doc:     []byte(Doc),
		SavedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

// RunContract exercises s. It expects an empty store.
func RunContract(t *testing.T, s store.Store) {
	ctx := context.Background()

	t.Run("Save and Load", func(t *testing.T) {
		snap := Snapshot(3)
		snap.Changes = []byte(`[{"id":"c1"}]`)
		require.NoError(t, s.Save(ctx, "letter-1", snap))

		loaded, err := s.Load(ctx, "letter-1")
		require.NoError(t, err)
		assert.Equal(t, "letter-1", loaded.ID)
		assert.Equal(t, uint64(3), loaded.Version)
		assert.Equal(t, "basic", loaded.Schema)
		assert.JSONEq(t, Doc, string(loaded.Doc))
		assert.JSONEq(t, `[{"id":"c1"}]`, string(loaded.Changes))
		assert.True(t, snap.SavedAt.Equal(loaded.SavedAt))
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, "letter-1", Snapshot(4)))

		loaded, err := s.Load(ctx, "letter-1")
		require.NoError(t, err)
		assert.Equal(t, uint64(4), loaded.Version)
		assert.Nil(t, loaded.Changes)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := s.Load(ctx, "missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("Invalid ID", func(t *testing.T) {
		assert.ErrorIs(t, s.Save(ctx, "", Snapshot(1)), store.ErrInvalidID)
		assert.ErrorIs(t, s.Save(ctx, "../escape", Snapshot(1)), store.ErrInvalidID)
	})

	t.Run("List", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, "b-doc", Snapshot(1)))
		require.NoError(t, s.Save(ctx, "a-doc", Snapshot(1)))

		ids, err := s.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a-doc", "b-doc", "letter-1"}, ids)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, "a-doc"))
		require.NoError(t, s.Delete(ctx, "a-doc"), "deleting twice is fine")

		_, err := s.Load(ctx, "a-doc")
		assert.ErrorIs(t, err, store.ErrNotFound)

		ids, err := s.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"b-doc", "letter-1"}, ids)
	})
}
