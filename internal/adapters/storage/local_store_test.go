package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YingY4ang/Transcriber/internal/adapters/storage"
)

func TestLocalObjectStore_PutExistsDownloadDelete(t *testing.T) {
	store, err := storage.NewLocalObjectStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	exists, err := store.Exists(ctx, "clinical-audio", "uploads/NHI123_visit.webm")
	require.NoError(t, err)
	assert.False(t, exists)

	err = store.Put(ctx, "clinical-audio", "uploads/NHI123_visit.webm", strings.NewReader("audio-bytes"))
	require.NoError(t, err)

	exists, err = store.Exists(ctx, "clinical-audio", "uploads/NHI123_visit.webm")
	require.NoError(t, err)
	assert.True(t, exists)

	localPath := filepath.Join(t.TempDir(), "downloaded.webm")
	require.NoError(t, store.Download(ctx, "clinical-audio", "uploads/NHI123_visit.webm", localPath))

	data, err := os.ReadFile(localPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("audio-bytes"), data)

	require.NoError(t, store.Delete(ctx, "clinical-audio", "uploads/NHI123_visit.webm"))

	exists, err = store.Exists(ctx, "clinical-audio", "uploads/NHI123_visit.webm")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLocalObjectStore_DeleteMissingIsNoError(t *testing.T) {
	store, err := storage.NewLocalObjectStore(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, store.Delete(context.Background(), "clinical-audio", "uploads/never-there.webm"))
}

func TestLocalObjectStore_RejectsEscapingKeys(t *testing.T) {
	store, err := storage.NewLocalObjectStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Exists(ctx, "clinical-audio", "../outside.txt")
	assert.Error(t, err)

	err = store.Put(ctx, "clinical-audio", "/etc/passwd", strings.NewReader("x"))
	assert.Error(t, err)

	err = store.Put(ctx, "clinical-audio", "", strings.NewReader("x"))
	assert.Error(t, err)
}

func TestLocalObjectStore_BucketsAreIsolated(t *testing.T) {
	store, err := storage.NewLocalObjectStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "clinical-audio", "shared-key", strings.NewReader("audio")))

	exists, err := store.Exists(ctx, "clinical-reports", "shared-key")
	require.NoError(t, err)
	assert.False(t, exists)
}
