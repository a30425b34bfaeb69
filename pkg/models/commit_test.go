package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCommit() Commit {
	parent := "1111111111111111111111111111111111111111111111111111111111111111"
	path := "metadata/manifests/manifest-0001.avro"
	return Commit{
		ParentCommitSHA: &parent,
		Branch:          MainBranch,
		User:            "user",
		Message:         "add files",
		LastUpdatedMs:   1700000000000,
		TableSchema:     Schema{Columns: []Column{{Name: "id", Type: TypeInteger}}},
		ManifestPath:    &path,
		DataHash:        "2222222222222222222222222222222222222222222222222222222222222222",
		AddedFiles:      []string{"gs://bucket/one.parquet"},
		RemovedFiles:    []string{},
	}
}

// TestCommitSHADeterminism tests that identical inputs derive identical
// shas
func TestCommitSHADeterminism(t *testing.T) {
	first := sampleCommit()
	second := sampleCommit()
	first.Seal()
	second.Seal()

	require.Len(t, first.CommitSHA, 64)
	assert.Equal(t, first.CommitSHA, second.CommitSHA)
}

// TestCommitSHAInputs tests that each identifying field changes the sha
func TestCommitSHAInputs(t *testing.T) {
	base := sampleCommit()
	base.Seal()

	mutations := []func(*Commit){
		func(c *Commit) { c.DataHash = "3333333333333333333333333333333333333333333333333333333333333333" },
		func(c *Commit) { c.Message = "different message" },
		func(c *Commit) { c.User = "someone_else" },
		func(c *Commit) { c.Branch = "feature" },
		func(c *Commit) { c.LastUpdatedMs = 1700000000001 },
		func(c *Commit) { c.ParentCommitSHA = nil },
	}

	for i, mutate := range mutations {
		commit := sampleCommit()
		mutate(&commit)
		commit.Seal()
		assert.NotEqual(t, base.CommitSHA, commit.CommitSHA, "mutation %d must change the sha", i)
	}

	// the manifest path is not part of the identity
	commit := sampleCommit()
	commit.ManifestPath = nil
	commit.Seal()
	assert.Equal(t, base.CommitSHA, commit.CommitSHA)
}

// TestHistoryEntryProjection tests the slim history projection
func TestHistoryEntryProjection(t *testing.T) {
	commit := sampleCommit()
	commit.Seal()

	entry := commit.HistoryEntry()
	assert.Equal(t, commit.CommitSHA, entry.SHA)
	assert.Equal(t, commit.Branch, entry.Branch)
	assert.Equal(t, commit.Message, entry.Message)
	assert.Equal(t, commit.User, entry.User)
	assert.Equal(t, commit.LastUpdatedMs, entry.Timestamp)
	assert.Equal(t, commit.ParentCommitSHA, entry.ParentSHA)
}
