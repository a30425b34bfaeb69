package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Commit is an immutable snapshot of a table's file set at a point in time.
// The commit_sha is derived from the commit's own fields; writing the same
// commit twice produces the same blob.
type Commit struct {
	CommitSHA       string             `json:"commit_sha"`
	ParentCommitSHA *string            `json:"parent_commit_sha"`
	Branch          string             `json:"branch"`
	User            string             `json:"user"`
	Message         string             `json:"message"`
	LastUpdatedMs   int64              `json:"last_updated_ms"`
	TableSchema     Schema             `json:"table_schema"`
	Encryption      *EncryptionDetails `json:"encryption,omitempty"`
	ManifestPath    *string            `json:"manifest_path"`
	DataHash        string             `json:"data_hash"`
	AddedFiles      []string           `json:"added_files"`
	RemovedFiles    []string           `json:"removed_files"`
}

// CalculateSHA derives the commit sha over the identifying fields:
// data_hash || message || user || branch || last_updated_ms || parent
func (c *Commit) CalculateSHA() string {
	hasher := sha256.New()
	hasher.Write([]byte(c.DataHash))
	hasher.Write([]byte(c.Message))
	hasher.Write([]byte(c.User))
	hasher.Write([]byte(c.Branch))
	hasher.Write([]byte(strconv.FormatInt(c.LastUpdatedMs, 10)))
	if c.ParentCommitSHA != nil {
		hasher.Write([]byte(*c.ParentCommitSHA))
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

// Seal computes and stores the commit sha
func (c *Commit) Seal() {
	c.CommitSHA = c.CalculateSHA()
}

// HistoryEntry projects the commit into the slim record the history tree keeps
func (c *Commit) HistoryEntry() HistoryEntry {
	return HistoryEntry{
		SHA:       c.CommitSHA,
		Branch:    c.Branch,
		Message:   c.Message,
		User:      c.User,
		Timestamp: c.LastUpdatedMs,
		ParentSHA: c.ParentCommitSHA,
	}
}

// HistoryEntry is the slim projection of a commit used by the history tree
type HistoryEntry struct {
	SHA       string  `json:"sha" avro:"sha"`
	Branch    string  `json:"branch" avro:"branch"`
	Message   string  `json:"message" avro:"message"`
	User      string  `json:"user" avro:"user"`
	Timestamp int64   `json:"timestamp" avro:"timestamp"`
	ParentSHA *string `json:"parent_sha" avro:"parent_sha"`
}

// Transaction is the ephemeral mutation set carried client-side inside a
// signed envelope. The schema and encryption are frozen from the parent
// commit when the transaction starts.
type Transaction struct {
	TransactionID   string             `json:"transaction_id"`
	ExpiresAt       int64              `json:"expires_at"`
	Owner           string             `json:"owner"`
	Table           string             `json:"table"`
	TableID         string             `json:"table_id"`
	ParentCommitSHA *string            `json:"parent_commit_sha"`
	TableSchema     Schema             `json:"table_schema"`
	Encryption      *EncryptionDetails `json:"encryption,omitempty"`
	Additions       []string           `json:"additions"`
	Deletions       []string           `json:"deletions"`
	Truncate        bool               `json:"truncate"`
}
