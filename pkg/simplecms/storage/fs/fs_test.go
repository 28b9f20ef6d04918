package fs

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-cms/pkg/simplecms"
)

func TestFSBackend_BasicOps(t *testing.T) {
	tmp := t.TempDir()
	backend, err := New(Config{BaseDir: tmp})
	require.NoError(t, err)

	ctx := context.Background()
	key := "articles/1234/photo.png"
	data := []byte("hello fs")

	require.NoError(t, backend.UploadWithParams(ctx, bytes.NewReader(data), simplecms.UploadParams{
		ObjectKey: key,
		MimeType:  "image/png",
	}))

	meta, err := backend.GetObjectMeta(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), meta.Size)
	assert.Equal(t, "image/png", meta.ContentType)

	rc, err := backend.Download(ctx, key)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, data, got)

	require.NoError(t, backend.Delete(ctx, key))
	_, err = os.Stat(filepath.Join(tmp, "articles"))
	assert.True(t, os.IsNotExist(err), "empty directories are removed")

	_, err = backend.Download(ctx, key)
	assert.ErrorIs(t, err, simplecms.ErrObjectNotFound)
	_, err = backend.GetObjectMeta(ctx, key)
	assert.ErrorIs(t, err, simplecms.ErrObjectNotFound)
	assert.ErrorIs(t, backend.Delete(ctx, key), simplecms.ErrObjectNotFound)

	var storageErr *simplecms.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "fs", storageErr.Backend)
	assert.Equal(t, "stat", storageErr.Op)
	assert.Equal(t, key, storageErr.Key)
}

func TestFSBackend_OverwriteLeavesNoTempFiles(t *testing.T) {
	tmp := t.TempDir()
	backend, err := New(Config{BaseDir: tmp})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, backend.Upload(ctx, "a/b.txt", bytes.NewBufferString("one")))
	require.NoError(t, backend.Upload(ctx, "a/b.txt", bytes.NewBufferString("two")))

	entries, err := os.ReadDir(filepath.Join(tmp, "a"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	data, err := os.ReadFile(filepath.Join(tmp, "a", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}

func TestFSBackend_RejectsEscapingKeys(t *testing.T) {
	backend, err := New(Config{BaseDir: t.TempDir()})
	require.NoError(t, err)
	ctx := context.Background()

	assert.ErrorIs(t, backend.Upload(ctx, "../outside.txt", bytes.NewReader([]byte("x"))), simplecms.ErrInvalidRequest)
	_, err = backend.Download(ctx, "../../etc/passwd")
	assert.Error(t, err)
	_, err = backend.GetObjectMeta(ctx, "")
	assert.Error(t, err)
}

func TestFSBackend_RequiresBaseDir(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
