package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := New(Config{BaseDir: dir, URLPrefix: "http://localhost/media/"})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Upload(ctx, "media/abc/delivery.jpg", "image/jpeg", []byte("bytes")))

	data, err := os.ReadFile(filepath.Join(dir, "media", "abc", "delivery.jpg"))
	require.NoError(t, err)
	assert.Equal(t, []byte("bytes"), data)

	url, err := store.URL(ctx, "media/abc/delivery.jpg")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost/media/media/abc/delivery.jpg", url)

	require.NoError(t, store.Delete(ctx, "media/abc/delivery.jpg"))
	_, err = os.Stat(filepath.Join(dir, "media", "abc", "delivery.jpg"))
	assert.True(t, os.IsNotExist(err))
}

func TestStoreRejectsTraversal(t *testing.T) {
	store, err := New(Config{BaseDir: t.TempDir(), URLPrefix: "http://localhost/media"})
	require.NoError(t, err)

	err = store.Upload(context.Background(), "../escape.txt", "text/plain", []byte("x"))
	assert.Error(t, err)
}

func TestNewRequiresBaseDir(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestDeleteMissingIsNoop(t *testing.T) {
	store, err := New(Config{BaseDir: t.TempDir(), URLPrefix: "http://localhost/media"})
	require.NoError(t, err)

	assert.NoError(t, store.Delete(context.Background(), "media/none/delivery.jpg"))
}
