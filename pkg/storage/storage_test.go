package storage

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdejongh/doccompare/pkg/models"
)

func stores(t *testing.T) map[string]BlobStore {
	t.Helper()
	local, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	temp, err := NewTempLocal(t.TempDir())
	require.NoError(t, err)
	return map[string]BlobStore{
		"Memory":    NewMemory(),
		"Local":     local,
		"TempLocal": temp,
	}
}

func TestBlobStore_Lifecycle(t *testing.T) {
	ctx := context.Background()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			defer store.Close()

			info, err := store.Put(ctx, "text/plain", strings.NewReader("hello"))
			require.NoError(t, err)
			assert.True(t, IsBlobURL(info.URL))
			assert.Equal(t, int64(5), info.Size)
			assert.Equal(t, "text/plain", info.ContentType)

			exists, err := store.Exists(ctx, info.URL)
			require.NoError(t, err)
			assert.True(t, exists)

			rc, err := store.Open(ctx, info.URL)
			require.NoError(t, err)
			data, err := io.ReadAll(rc)
			require.NoError(t, err)
			require.NoError(t, rc.Close())
			assert.Equal(t, "hello", string(data))

			stat, err := store.Stat(ctx, info.URL)
			require.NoError(t, err)
			assert.Equal(t, info.URL, stat.URL)

			require.NoError(t, store.Release(info.URL))
			require.NoError(t, store.Release(info.URL), "double release is a no-op")

			_, err = store.Open(ctx, info.URL)
			assert.ErrorIs(t, err, models.ErrReleased)
			_, err = store.Stat(ctx, info.URL)
			assert.ErrorIs(t, err, models.ErrReleased)

			exists, err = store.Exists(ctx, info.URL)
			require.NoError(t, err)
			assert.False(t, exists)
		})
	}
}

func TestBlobStore_DistinctReferences(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			defer store.Close()
			a, err := store.Put(ctx, "", strings.NewReader("a"))
			require.NoError(t, err)
			b, err := store.Put(ctx, "", strings.NewReader("b"))
			require.NoError(t, err)
			assert.NotEqual(t, a.URL, b.URL)
		})
	}
}

func TestBlobStore_CloseReleasesAll(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			info, err := store.Put(ctx, "", strings.NewReader("x"))
			require.NoError(t, err)
			require.NoError(t, store.Close())

			exists, err := store.Exists(ctx, info.URL)
			require.NoError(t, err)
			assert.False(t, exists)
		})
	}
}

func TestLocal_SpoolFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewLocal(dir)
	require.NoError(t, err)

	info, err := store.Put(ctx, "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)

	path, err := store.Path(info.URL)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, store.Release(info.URL))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	_, err = store.Path(info.URL)
	assert.ErrorIs(t, err, models.ErrReleased)
}

func TestNewLocal_Errors(t *testing.T) {
	_, err := NewLocal("/definitely/not/here")
	assert.Error(t, err)

	file, err := os.CreateTemp(t.TempDir(), "file")
	require.NoError(t, err)
	file.Close()
	_, err = NewLocal(file.Name())
	assert.Error(t, err)
}

func TestNewTempLocal_RemovesDirectoryOnClose(t *testing.T) {
	store, err := NewTempLocal(t.TempDir())
	require.NoError(t, err)
	root := store.Root()
	require.NoError(t, store.Close())

	_, err = os.Stat(root)
	assert.True(t, os.IsNotExist(err))
}

func TestBlobID(t *testing.T) {
	_, ok := blobID("blob:not-a-uuid")
	assert.False(t, ok)
	_, ok = blobID("http://x")
	assert.False(t, ok)
	id, ok := blobID(newBlobURL())
	assert.True(t, ok)
	assert.Len(t, id, 36)
}
