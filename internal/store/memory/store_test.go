package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/scribe/internal/store/memory"
	"github.com/dshills/scribe/internal/store/storetest"
)

func TestMemoryStore_Contract(t *testing.T) {
	storetest.RunContract(t, memory.New())
}

func TestMemoryStore_CopiesBytes(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	snap := storetest.Snapshot(1)
	require.NoError(t, s.Save(ctx, "doc", snap))
	snap.Doc[0] = 'X'

	loaded, err := s.Load(ctx, "doc")
	require.NoError(t, err)
	assert.JSONEq(t, storetest.Doc, string(loaded.Doc))
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := memory.New().Save(ctx, "doc", storetest.Snapshot(1))
	assert.ErrorIs(t, err, context.Canceled)
}
