package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mabel-dev/tarchia/pkg/models"
)

func strPtr(s string) *string {
	return &s
}

func chain(count int) []models.HistoryEntry {
	entries := make([]models.HistoryEntry, 0, count)
	var parent *string
	for i := 0; i < count; i++ {
		sha := string(rune('a'+i)) + "000"
		entries = append(entries, models.HistoryEntry{
			SHA:       sha,
			Branch:    models.MainBranch,
			Message:   "commit",
			User:      "user",
			Timestamp: int64(1000 + i),
			ParentSHA: parent,
		})
		parent = strPtr(sha)
	}
	return entries
}

// TestCommitAndHead tests that commits advance the branch head
func TestCommitAndHead(t *testing.T) {
	tree := NewTree(models.MainBranch)
	assert.Nil(t, tree.Head(models.MainBranch))

	for _, entry := range chain(3) {
		require.NoError(t, tree.Commit(entry))
	}

	head := tree.Head(models.MainBranch)
	require.NotNil(t, head)
	assert.Equal(t, "c000", head.SHA)
}

// TestWalkBranch tests that the walk starts at the head, follows parents,
// and terminates at the null parent
func TestWalkBranch(t *testing.T) {
	tree := NewTree(models.MainBranch)
	for _, entry := range chain(4) {
		require.NoError(t, tree.Commit(entry))
	}

	walk := tree.WalkBranch(models.MainBranch)
	require.Len(t, walk, 4)
	assert.Equal(t, "d000", walk[0].SHA)
	assert.Equal(t, "a000", walk[3].SHA)
	assert.Nil(t, walk[3].ParentSHA)
}

// TestWalkUnaffectedByOtherBranches tests that commits on another branch do
// not change a walk
func TestWalkUnaffectedByOtherBranches(t *testing.T) {
	tree := NewTree(models.MainBranch)
	entries := chain(2)
	for _, entry := range entries {
		require.NoError(t, tree.Commit(entry))
	}

	require.NoError(t, tree.Commit(models.HistoryEntry{
		SHA:       "feat",
		Branch:    "feature",
		Message:   "fork",
		User:      "user",
		Timestamp: 5000,
		ParentSHA: strPtr(entries[1].SHA),
	}))

	walk := tree.WalkBranch(models.MainBranch)
	require.Len(t, walk, 2)
	assert.Equal(t, "b000", walk[0].SHA)

	featureWalk := tree.WalkBranch("feature")
	require.Len(t, featureWalk, 3)
	assert.Equal(t, "feat", featureWalk[0].SHA)
}

// TestSaveLoadRoundTrip tests Avro persistence and head reconstruction
func TestSaveLoadRoundTrip(t *testing.T) {
	tree := NewTree(models.MainBranch)
	for _, entry := range chain(3) {
		require.NoError(t, tree.Commit(entry))
	}

	content, err := tree.Save()
	require.NoError(t, err)
	require.NotEmpty(t, content)

	loaded, err := Load(content, models.MainBranch)
	require.NoError(t, err)

	head := loaded.Head(models.MainBranch)
	require.NotNil(t, head)
	assert.Equal(t, "c000", head.SHA)

	walk := loaded.WalkBranch(models.MainBranch)
	require.Len(t, walk, 3)
	assert.Equal(t, tree.WalkBranch(models.MainBranch), walk)
}

// TestLoadEmptyTree tests the empty container round trip
func TestLoadEmptyTree(t *testing.T) {
	tree := NewTree(models.MainBranch)
	content, err := tree.Save()
	require.NoError(t, err)

	loaded, err := Load(content, models.MainBranch)
	require.NoError(t, err)
	assert.Nil(t, loaded.Head(models.MainBranch))
	assert.Empty(t, loaded.WalkBranch(models.MainBranch))
}

// TestRootHash tests the Merkle root including the odd-level duplication
func TestRootHash(t *testing.T) {
	tree := NewTree(models.MainBranch)
	assert.Equal(t, "", tree.RootHash())

	entries := chain(3)
	for _, entry := range entries {
		require.NoError(t, tree.Commit(entry))
	}

	root := tree.RootHash()
	assert.Len(t, root, 64)

	// an odd level duplicates its last node: pair(pair(a,b), pair(c,c))
	left := hashPair(entries[0].SHA, entries[1].SHA)
	right := hashPair(entries[2].SHA, entries[2].SHA)
	assert.Equal(t, hashPair(left, right), root)
}

// TestRootHashDeterminism tests identical trees hash identically
func TestRootHashDeterminism(t *testing.T) {
	first := NewTree(models.MainBranch)
	second := NewTree(models.MainBranch)
	for _, entry := range chain(5) {
		require.NoError(t, first.Commit(entry))
		require.NoError(t, second.Commit(entry))
	}
	assert.Equal(t, first.RootHash(), second.RootHash())
}

// TestBranchStubs tests the unimplemented branch operations
func TestBranchStubs(t *testing.T) {
	tree := NewTree(models.MainBranch)
	assert.ErrorIs(t, tree.DeleteBranch("feature"), ErrNotImplemented)
	assert.ErrorIs(t, tree.MergeBranch("feature", models.MainBranch), ErrNotImplemented)
}

// TestBranches tests branch listing
func TestBranches(t *testing.T) {
	tree := NewTree(models.MainBranch)
	for _, entry := range chain(1) {
		require.NoError(t, tree.Commit(entry))
	}
	require.NoError(t, tree.Commit(models.HistoryEntry{
		SHA: "feat", Branch: "feature", Timestamp: 9000,
	}))

	assert.Equal(t, []string{"feature", models.MainBranch}, tree.Branches())
}
