package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"eventradar/internal/kv"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(Config{BaseDir: t.TempDir()})
	require.NoError(t, err)
	return store
}

func TestNewRequiresBaseDir(t *testing.T) {
	t.Parallel()

	_, err := New(Config{BaseDir: "  "})
	require.Error(t, err)
}

func TestNewRejectsFileAsBaseDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "occupied")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	_, err := New(Config{BaseDir: path})
	require.Error(t, err)
}

func TestPutGetDeleteRoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "quota/2025-01-02", []byte(`{"calls_used":7}`)))

	got, err := store.Get(ctx, "quota/2025-01-02")
	require.NoError(t, err)
	require.Equal(t, []byte(`{"calls_used":7}`), got)

	require.NoError(t, store.Delete(ctx, "quota/2025-01-02"))
	_, err = store.Get(ctx, "quota/2025-01-02")
	require.True(t, errors.Is(err, kv.ErrNotFound))
}

func TestGetMissingKeyReturnsNotFound(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	_, err := store.Get(context.Background(), "cache/nope")
	require.True(t, errors.Is(err, kv.ErrNotFound))
}

func TestDeleteMissingKeyIsNoError(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	require.NoError(t, store.Delete(context.Background(), "cache/nope"))
}

func TestKeysListsByPrefix(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "cache/search_ab", []byte("1")))
	require.NoError(t, store.Put(ctx, "cache/social_cd", []byte("2")))
	require.NoError(t, store.Put(ctx, "quota/2025-01-02", []byte("3")))

	keys, err := store.Keys(ctx, "cache/")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"cache/search_ab", "cache/social_cd"}, keys)
}

func TestKeyTraversalRejected(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	err := store.Put(context.Background(), "../escape", []byte("x"))
	require.Error(t, err)
}
