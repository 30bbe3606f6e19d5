package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLocalLstat(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	local := NewLocal()

	t.Run("File", func(t *testing.T) {
		path := filepath.Join(dir, "file.txt")
		writeFile(t, path, "hello")

		info, err := local.Lstat(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, "file.txt", info.Name)
		assert.Equal(t, int64(5), info.Size)
		assert.True(t, info.IsFile)
		assert.False(t, info.IsDir)
		assert.False(t, info.IsSymlink)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := local.Lstat(ctx, filepath.Join(dir, "missing"))
		require.Error(t, err)
		assert.True(t, IsNotFound(err))
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("SymlinkToDir", func(t *testing.T) {
		target := filepath.Join(dir, "target")
		require.NoError(t, os.Mkdir(target, 0755))
		link := filepath.Join(dir, "link")
		require.NoError(t, os.Symlink(target, link))

		info, err := local.Lstat(ctx, link)
		require.NoError(t, err)
		assert.True(t, info.IsSymlink)
		assert.True(t, info.IsDir)
		assert.Equal(t, target, info.LinkTarget)
	})

	t.Run("Cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := local.Lstat(cctx, dir)
		assert.True(t, IsCancelled(err))
	})
}

func TestLocalCreate(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	local := NewLocal()
	path := filepath.Join(dir, "out.txt")

	t.Run("ReplacesOnClose", func(t *testing.T) {
		writeFile(t, path, "old")

		w, err := local.Create(ctx, path, 0644)
		require.NoError(t, err)
		_, err = io.WriteString(w, "new content")
		require.NoError(t, err)

		// Destination untouched until Close
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "old", string(data))

		require.NoError(t, w.Close())
		data, err = os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "new content", string(data))
	})

	t.Run("AbortKeepsDestination", func(t *testing.T) {
		writeFile(t, path, "keep")

		w, err := local.Create(ctx, path, 0644)
		require.NoError(t, err)
		_, err = io.WriteString(w, "discard")
		require.NoError(t, err)
		abort(w)
		require.NoError(t, w.Close())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "keep", string(data))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1, "temporary file should be removed")
	})
}

func TestLocalChtimes(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "f")
	writeFile(t, path, "x")

	mtime := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, NewLocal().Chtimes(ctx, path, mtime))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(mtime))
}
