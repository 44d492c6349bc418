package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveWritesFileAndReturnsURI(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	provider, err := New(Config{BaseDir: dir})
	require.NoError(t, err)

	uri, err := provider.Save(context.Background(), "run-1/search/abc.json", []byte(`{"ok":true}`))
	require.NoError(t, err)
	assert.Equal(t, "file://"+filepath.Join(dir, "run-1/search/abc.json"), uri)

	data, err := os.ReadFile(filepath.Join(dir, "run-1", "search", "abc.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(data))
}

func TestSaveRejectsPathTraversal(t *testing.T) {
	t.Parallel()

	provider, err := New(Config{BaseDir: t.TempDir()})
	require.NoError(t, err)

	_, err = provider.Save(context.Background(), "../escape.json", []byte("x"))
	assert.Error(t, err)
}

func TestNewCreatesMissingBaseDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "archive")
	_, err := New(Config{BaseDir: dir})
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewRequiresBaseDir(t *testing.T) {
	t.Parallel()

	_, err := New(Config{})
	assert.Error(t, err)
}
