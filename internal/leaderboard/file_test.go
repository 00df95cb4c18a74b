package leaderboard

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "leaderboard.json")
	return NewFileStore(path, zerolog.Nop()), path
}

func TestFileStoreBestOfMerge(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestFileStore(t)

	require.NoError(t, store.Update(ctx, "alice", 500, 3))
	require.NoError(t, store.Update(ctx, "alice", 400, 7)) // fewer chips never wins
	require.NoError(t, store.Update(ctx, "alice", 500, 2)) // same chips, fewer correct

	top, err := store.Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, Entry{Name: "alice", BestChips: 500, BestCorrect: 3}, top[0])

	require.NoError(t, store.Update(ctx, "alice", 500, 4)) // tie broken by correct answers
	require.NoError(t, store.Update(ctx, "alice", 600, 1))

	top, err = store.Top(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, Entry{Name: "alice", BestChips: 600, BestCorrect: 1}, top[0])
}

func TestFileStoreTopOrderingAndLimit(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestFileStore(t)

	require.NoError(t, store.Update(ctx, "alice", 500, 3))
	require.NoError(t, store.Update(ctx, "bob", 900, 1))
	require.NoError(t, store.Update(ctx, "carol", 500, 5))
	require.NoError(t, store.Update(ctx, "dave", 100, 7))

	top, err := store.Top(ctx, 3)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, "bob", top[0].Name)
	assert.Equal(t, "carol", top[1].Name)
	assert.Equal(t, "alice", top[2].Name)
}

func TestFileStorePersistsAcrossReload(t *testing.T) {
	ctx := context.Background()
	store, path := newTestFileStore(t)

	require.NoError(t, store.Update(ctx, "alice", 500, 3))

	reloaded := NewFileStore(path, zerolog.Nop())
	top, err := reloaded.Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "alice", top[0].Name)
}

func TestFileStoreToleratesCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leaderboard.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	store := NewFileStore(path, zerolog.Nop())
	top, err := store.Top(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, top)
}

func TestRenderEmptyAndPopulated(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestFileStore(t)

	out, err := Render(ctx, store, 10)
	require.NoError(t, err)
	assert.Equal(t, "(Leaderboard empty)", out)

	require.NoError(t, store.Update(ctx, "alice", 500, 3))
	out, err = Render(ctx, store, 10)
	require.NoError(t, err)
	assert.Contains(t, out, "=== Global leaderboard ===")
	assert.Contains(t, out, "alice")
}
