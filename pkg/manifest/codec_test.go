package manifest

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mabel-dev/tarchia/pkg/storage"
)

func sampleEntries() []Entry {
	return []Entry{
		{
			FilePath:       "gs://bucket/data/one.parquet",
			FileFormat:     "parquet",
			FileType:       EntryTypeData,
			RecordCount:    100,
			FileSize:       2048,
			SHA256Checksum: "aa00000000000000000000000000000000000000000000000000000000000000",
			LowerBounds:    map[string]int64{"id": 1, "score": -5},
			UpperBounds:    map[string]int64{"id": 100, "score": 50},
		},
		{
			FilePath:       "gs://bucket/data/two.parquet",
			FileFormat:     "parquet",
			FileType:       EntryTypeData,
			RecordCount:    250,
			FileSize:       4096,
			SHA256Checksum: "bb00000000000000000000000000000000000000000000000000000000000000",
			LowerBounds:    map[string]int64{"id": 101},
			UpperBounds:    map[string]int64{"id": 350},
		},
	}
}

// TestManifestRoundTrip tests that written entries read back unchanged
func TestManifestRoundTrip(t *testing.T) {
	store := storage.NewMemoryStorage()
	entries := sampleEntries()

	require.NoError(t, Write("manifests/manifest-1.avro", store, entries))

	read, err := Read("manifests/manifest-1.avro", store, nil)
	require.NoError(t, err)
	assert.Equal(t, entries, read)
}

// TestManifestEmpty tests the empty manifest round trip
func TestManifestEmpty(t *testing.T) {
	store := storage.NewMemoryStorage()
	require.NoError(t, Write("manifests/empty.avro", store, nil))

	read, err := Read("manifests/empty.avro", store, nil)
	require.NoError(t, err)
	assert.Empty(t, read)
}

// TestManifestPruningDuringRead tests that filtered entries are dropped
func TestManifestPruningDuringRead(t *testing.T) {
	store := storage.NewMemoryStorage()
	require.NoError(t, Write("manifests/manifest-1.avro", store, sampleEntries()))

	read, err := Read("manifests/manifest-1.avro", store, []Filter{{"id", "<", 100}})
	require.NoError(t, err)
	require.Len(t, read, 1)
	assert.Equal(t, "gs://bucket/data/one.parquet", read[0].FilePath)
}

// TestManifestHierarchy tests descent into child manifests, including that
// pruned subtrees are not read
func TestManifestHierarchy(t *testing.T) {
	store := storage.NewMemoryStorage()
	entries := sampleEntries()

	require.NoError(t, Write("manifests/child.avro", store, entries[:1]))

	parent := []Entry{
		{
			FilePath:    "manifests/child.avro",
			FileFormat:  "parquet",
			FileType:    EntryTypeManifest,
			LowerBounds: map[string]int64{"id": 1},
			UpperBounds: map[string]int64{"id": 100},
		},
		entries[1],
	}
	require.NoError(t, Write("manifests/parent.avro", store, parent))

	read, err := Read("manifests/parent.avro", store, nil)
	require.NoError(t, err)
	require.Len(t, read, 2)
	assert.Equal(t, "gs://bucket/data/one.parquet", read[0].FilePath)
	assert.Equal(t, "gs://bucket/data/two.parquet", read[1].FilePath)

	// the child subtree is disjoint from the filter, so the missing blob
	// behind a stale pointer would not even be noticed
	read, err = Read("manifests/parent.avro", store, []Filter{{"id", ">", 200}})
	require.NoError(t, err)
	require.Len(t, read, 1)
	assert.Equal(t, "gs://bucket/data/two.parquet", read[0].FilePath)
}

// TestManifestDepthCap tests that a self-referencing manifest tree fails
// instead of recursing forever
func TestManifestDepthCap(t *testing.T) {
	store := storage.NewMemoryStorage()
	self := []Entry{{
		FilePath:    "manifests/loop.avro",
		FileFormat:  "parquet",
		FileType:    EntryTypeManifest,
		LowerBounds: map[string]int64{},
		UpperBounds: map[string]int64{},
	}}
	require.NoError(t, Write("manifests/loop.avro", store, self))

	_, err := Read("manifests/loop.avro", store, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deeper")
}

// TestManifestMissingBlob tests the dependency error for an absent manifest
func TestManifestMissingBlob(t *testing.T) {
	store := storage.NewMemoryStorage()
	_, err := Read("manifests/absent.avro", store, nil)
	require.Error(t, err)
	assert.Equal(t, fmt.Sprintf("unable to read '%s'", "manifests/absent.avro"), err.Error())
}
