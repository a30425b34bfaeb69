package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLocalWriteRead tests write, read back, and overwrite
func TestLocalWriteRead(t *testing.T) {
	store := NewLocalStorage()
	location := filepath.Join(t.TempDir(), "a", "b", "blob.bin")

	require.NoError(t, store.WriteBlob(location, []byte("first")))
	content, err := store.ReadBlob(location)
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), content)

	require.NoError(t, store.WriteBlob(location, []byte("second")))
	content, err = store.ReadBlob(location)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), content)
}

// TestLocalReadAbsent tests that a missing blob reads as nil without error
func TestLocalReadAbsent(t *testing.T) {
	store := NewLocalStorage()
	content, err := store.ReadBlob(filepath.Join(t.TempDir(), "never-written"))
	require.NoError(t, err)
	assert.Nil(t, content)
}

// TestLocalListBlobs tests directory and prefix listings
func TestLocalListBlobs(t *testing.T) {
	store := NewLocalStorage()
	dir := t.TempDir()

	require.NoError(t, store.WriteBlob(filepath.Join(dir, "commit-01.json"), []byte("a")))
	require.NoError(t, store.WriteBlob(filepath.Join(dir, "commit-02.json"), []byte("b")))
	require.NoError(t, store.WriteBlob(filepath.Join(dir, "history-01.avro"), []byte("c")))

	files, err := store.ListBlobs(dir + "/")
	require.NoError(t, err)
	assert.Len(t, files, 3)

	files, err = store.ListBlobs(filepath.Join(dir, "commit-"))
	require.NoError(t, err)
	assert.Len(t, files, 2)

	files, err = store.ListBlobs(filepath.Join(dir, "missing", "deeper") + "/")
	require.NoError(t, err)
	assert.Empty(t, files)
}

// TestMemoryProvider tests the in-memory provider
func TestMemoryProvider(t *testing.T) {
	store := NewMemoryStorage()

	require.NoError(t, store.WriteBlob("metadata/a/b", []byte("payload")))
	content, err := store.ReadBlob("metadata/a/b")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), content)

	absent, err := store.ReadBlob("metadata/missing")
	require.NoError(t, err)
	assert.Nil(t, absent)

	require.NoError(t, store.WriteBlob("metadata/a/c", []byte("x")))
	require.NoError(t, store.WriteBlob("other/a", []byte("y")))
	paths, err := store.ListBlobs("metadata/")
	require.NoError(t, err)
	assert.Equal(t, []string{"metadata/a/b", "metadata/a/c"}, paths)
}

// TestForPathDispatch tests scheme routing for data-file reads
func TestForPathDispatch(t *testing.T) {
	provider, path, err := ForPath("/tmp/plain/file.parquet")
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, provider)
	assert.Equal(t, "/tmp/plain/file.parquet", path)

	provider, path, err = ForPath("mem://lake/file.parquet")
	require.NoError(t, err)
	assert.Same(t, SharedMemoryStorage(), provider)
	assert.Equal(t, "lake/file.parquet", path)

	provider, path, err = ForPath("file:///tmp/file.parquet")
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, provider)
	assert.Equal(t, "/tmp/file.parquet", path)

	_, _, err = ForPath("ftp://host/file.parquet")
	assert.Error(t, err)
}

// TestNewProviderUnknown tests the configuration error for unknown
// backends
func TestNewProviderUnknown(t *testing.T) {
	_, err := NewProvider("TAPE")
	assert.Error(t, err)

	provider, err := NewProvider("local")
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, provider)
}
