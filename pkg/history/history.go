// Package history maintains the per-table commit DAG: an append-only list
// of slim commit records with branch heads, persisted as an Avro container.
package history

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"

	"github.com/hamba/avro/v2/ocf"

	"github.com/mabel-dev/tarchia/pkg/models"
)

// ErrNotImplemented marks operations the data model supports but the commit
// engine does not yet drive.
var ErrNotImplemented = errors.New("not implemented")

// Schema is the Avro record schema history files are persisted with
const Schema = `{
	"type": "record",
	"name": "Commit",
	"fields": [
		{"name": "sha", "type": "string"},
		{"name": "branch", "type": "string"},
		{"name": "message", "type": "string"},
		{"name": "user", "type": "string"},
		{"name": "timestamp", "type": "long"},
		{"name": "parent_sha", "type": ["null", "string"], "default": null}
	]
}`

// Tree is the in-memory commit DAG for one table. Entries are held in an
// arena indexed by sha; branch heads point into the arena. The tree is
// immutable once loaded except through Commit.
type Tree struct {
	trunk           string
	entries         []models.HistoryEntry
	index           map[string]int // sha -> arena position
	heads           map[string]int // branch -> arena position
	deletedBranches map[string]bool
}

// NewTree creates an empty tree with the given trunk branch
func NewTree(trunk string) *Tree {
	if trunk == "" {
		trunk = models.MainBranch
	}
	return &Tree{
		trunk:           trunk,
		index:           map[string]int{},
		heads:           map[string]int{},
		deletedBranches: map[string]bool{},
	}
}

// Commit appends an entry and moves its branch head to it
func (t *Tree) Commit(entry models.HistoryEntry) error {
	if t.deletedBranches[entry.Branch] {
		return fmt.Errorf("cannot add commit to deleted branch '%s'", entry.Branch)
	}
	t.entries = append(t.entries, entry)
	position := len(t.entries) - 1
	if _, seen := t.index[entry.SHA]; !seen {
		t.index[entry.SHA] = position
	}
	t.heads[entry.Branch] = position
	return nil
}

// Head returns the branch head, or nil for unknown or deleted branches
func (t *Tree) Head(branch string) *models.HistoryEntry {
	if t.deletedBranches[branch] {
		return nil
	}
	position, exists := t.heads[branch]
	if !exists {
		return nil
	}
	return &t.entries[position]
}

// Get returns the entry with the given sha, or nil
func (t *Tree) Get(sha string) *models.HistoryEntry {
	position, exists := t.index[sha]
	if !exists {
		return nil
	}
	return &t.entries[position]
}

// Branches returns the branches that have not been deleted
func (t *Tree) Branches() []string {
	branches := make([]string, 0, len(t.heads))
	for branch := range t.heads {
		if !t.deletedBranches[branch] {
			branches = append(branches, branch)
		}
	}
	sort.Strings(branches)
	return branches
}

// WalkBranch yields the branch head and then follows parent pointers. The
// walk is finite: it terminates at a null parent or a parent outside the
// tree, and is unaffected by commits on other branches.
func (t *Tree) WalkBranch(branch string) []models.HistoryEntry {
	head := t.Head(branch)
	if head == nil {
		return nil
	}

	var walk []models.HistoryEntry
	current := head
	for current != nil {
		walk = append(walk, *current)
		if current.ParentSHA == nil {
			break
		}
		current = t.Get(*current.ParentSHA)
	}
	return walk
}

// DeleteBranch is a stub retained for the multi-branch data model
func (t *Tree) DeleteBranch(branch string) error {
	return ErrNotImplemented
}

// MergeBranch is a stub retained for the multi-branch data model
func (t *Tree) MergeBranch(source, target string) error {
	return ErrNotImplemented
}

// RootHash computes the Merkle root over the commit shas, duplicating the
// last node on odd levels. Exposed for integrity checks; the commit engine
// does not require it.
func (t *Tree) RootHash() string {
	if len(t.entries) == 0 {
		return ""
	}

	nodes := make([]string, len(t.entries))
	for i, entry := range t.entries {
		nodes[i] = entry.SHA
	}

	for len(nodes) > 1 {
		if len(nodes)%2 != 0 {
			nodes = append(nodes, nodes[len(nodes)-1])
		}
		level := make([]string, 0, len(nodes)/2)
		for i := 0; i < len(nodes); i += 2 {
			level = append(level, hashPair(nodes[i], nodes[i+1]))
		}
		nodes = level
	}
	return nodes[0]
}

func hashPair(left, right string) string {
	hasher := sha256.New()
	hasher.Write([]byte(left))
	hasher.Write([]byte(right))
	return hex.EncodeToString(hasher.Sum(nil))
}

// Save serializes the tree, ordered by descending timestamp, as a
// zstandard-compressed Avro container
func (t *Tree) Save() ([]byte, error) {
	ordered := make([]models.HistoryEntry, len(t.entries))
	copy(ordered, t.entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp > ordered[j].Timestamp
	})

	buffer := &bytes.Buffer{}
	encoder, err := ocf.NewEncoder(Schema, buffer, ocf.WithCodec(ocf.ZStandard))
	if err != nil {
		return nil, fmt.Errorf("failed to create history encoder: %w", err)
	}

	for _, entry := range ordered {
		if err := encoder.Encode(entry); err != nil {
			return nil, fmt.Errorf("failed to encode history entry: %w", err)
		}
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize history: %w", err)
	}
	return buffer.Bytes(), nil
}

// FromEntries builds a tree from entries in any order. Entries are sorted by
// descending timestamp and each branch head is the first entry seen.
func FromEntries(entries []models.HistoryEntry, trunk string) *Tree {
	tree := NewTree(trunk)

	sorted := make([]models.HistoryEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp > sorted[j].Timestamp
	})

	tree.entries = sorted
	for i, entry := range sorted {
		if _, seen := tree.index[entry.SHA]; !seen {
			tree.index[entry.SHA] = i
		}
		if _, seen := tree.heads[entry.Branch]; !seen {
			tree.heads[entry.Branch] = i
		}
	}
	return tree
}

// Load reconstructs a tree from a saved Avro container
func Load(content []byte, trunk string) (*Tree, error) {
	decoder, err := ocf.NewDecoder(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}

	var entries []models.HistoryEntry
	for decoder.HasNext() {
		var entry models.HistoryEntry
		if err := decoder.Decode(&entry); err != nil {
			return nil, fmt.Errorf("failed to decode history entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := decoder.Error(); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	return FromEntries(entries, trunk), nil
}
