package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mabel-dev/tarchia/pkg/catalog"
	terrors "github.com/mabel-dev/tarchia/pkg/errors"
	"github.com/mabel-dev/tarchia/pkg/events"
	"github.com/mabel-dev/tarchia/pkg/log"
	"github.com/mabel-dev/tarchia/pkg/manifest"
	"github.com/mabel-dev/tarchia/pkg/metrics"
	"github.com/mabel-dev/tarchia/pkg/models"
)

// commitUser is recorded on commits until an authenticated identity is
// threaded through the API
const commitUser = "user"

// CommitResult is returned to the client after a successful commit
type CommitResult struct {
	Table         string `json:"table"`
	TransactionID string `json:"transaction"`
	CommitSHA     string `json:"commit"`
	URL           string `json:"url"`
}

// Start opens a transaction against a parent commit. "head" resolves to the
// table's current commit. The schema and encryption are frozen from the
// parent; the signed envelope is returned to the caller.
func (e *Engine) Start(owner, table, parentSHA string) (string, error) {
	entry, err := e.IdentifyTable(owner, table)
	if err != nil {
		return "", err
	}

	if parentSHA == "head" {
		if entry.CurrentCommitSHA == nil {
			return "", &terrors.TransactionError{Message: "Commit not found"}
		}
		parentSHA = *entry.CurrentCommitSHA
	}

	parent, err := e.LoadCommit(entry, parentSHA)
	if err != nil {
		if terrors.IsNotFound(err) {
			return "", &terrors.TransactionError{Message: "Commit not found"}
		}
		return "", err
	}

	txn := &models.Transaction{
		TransactionID:   newUUID(),
		ExpiresAt:       time.Now().Unix(),
		Owner:           owner,
		Table:           table,
		TableID:         entry.TableID,
		ParentCommitSHA: &parentSHA,
		TableSchema:     parent.TableSchema,
		Encryption:      parent.Encryption,
		Additions:       []string{},
		Deletions:       []string{},
		Truncate:        false,
	}

	logger := log.WithTransaction(txn.TransactionID)
	logger.Debug().
		Str("owner", owner).
		Str("table", table).
		Str("parent", parentSHA).
		Msg("transaction started")

	return e.signer.EncodeAndSign(txn)
}

// Stage appends paths to the transaction's additions and re-signs the
// envelope. No storage I/O happens until commit.
func (e *Engine) Stage(envelope string, paths []string) (string, error) {
	txn, err := e.signer.VerifyAndDecode(envelope)
	if err != nil {
		return "", err
	}
	txn.Additions = append(txn.Additions, paths...)
	return e.signer.EncodeAndSign(txn)
}

// Truncate marks the transaction as replacing the whole file set. It is
// exclusive with staged additions; callers re-issue the token to combine.
func (e *Engine) Truncate(envelope string) (string, error) {
	txn, err := e.signer.VerifyAndDecode(envelope)
	if err != nil {
		return "", err
	}
	if len(txn.Additions) != 0 {
		return "", &terrors.TransactionError{Message: "Use 'truncate' before staging files in transaction."}
	}
	txn.Truncate = true
	txn.Additions = []string{}
	txn.Deletions = []string{}
	return e.signer.EncodeAndSign(txn)
}

// Abort does nothing; it exists for conceptual completeness. The envelope
// is client-side state, so there is nothing to clean up.
func (e *Engine) Abort(envelope string) error {
	return nil
}

// Commit is the serialization point of the transaction lifecycle. On any
// failure before the catalog update the written manifest and commit blobs
// are unreferenced garbage; no state visible to readers has changed.
func (e *Engine) Commit(envelope, message, baseURL string) (*CommitResult, error) {
	timer := metrics.NewTimer()

	txn, err := e.signer.VerifyAndDecode(envelope)
	if err != nil {
		metrics.CommitsFailed.WithLabelValues("envelope").Inc()
		return nil, err
	}

	entry, err := e.IdentifyTable(txn.Owner, txn.Table)
	if err != nil {
		metrics.CommitsFailed.WithLabelValues("table").Inc()
		return nil, err
	}

	// TODO: a transaction with a null parent skips this check and can
	// clobber a non-empty table.
	if txn.ParentCommitSHA != nil && !shaEqual(entry.CurrentCommitSHA, txn.ParentCommitSHA) {
		metrics.CommitsFailed.WithLabelValues("out_of_date").Inc()
		return nil, &terrors.TransactionError{Message: "Transaction failed: Commit out of date"}
	}

	timestamp := models.NowMs()
	blobID := newUUID()

	var oldEntries []manifest.Entry
	if txn.ParentCommitSHA != nil {
		parent, err := e.LoadCommit(entry, *txn.ParentCommitSHA)
		if err != nil {
			return nil, err
		}
		if parent.ManifestPath != nil && !txn.Truncate {
			oldEntries, err = manifest.Read(*parent.ManifestPath, e.store, nil)
			if err != nil {
				return nil, err
			}
		}
	}

	newEntries, err := e.buildNewManifest(oldEntries, txn)
	if err != nil {
		return nil, err
	}

	manifestPath := fmt.Sprintf("%s/manifest-%s.avro", e.cfg.ManifestRoot(entry.Owner, entry.TableID), blobID)
	if err := manifest.Write(manifestPath, e.store, newEntries); err != nil {
		return nil, err
	}

	checksums := make([]string, len(newEntries))
	for i, en := range newEntries {
		checksums[i] = en.SHA256Checksum
	}
	dataHash, err := xorHexStrings(checksums)
	if err != nil {
		return nil, err
	}

	commit := models.Commit{
		ParentCommitSHA: txn.ParentCommitSHA,
		Branch:          models.MainBranch,
		User:            commitUser,
		Message:         message,
		LastUpdatedMs:   timestamp,
		TableSchema:     txn.TableSchema,
		Encryption:      txn.Encryption,
		ManifestPath:    &manifestPath,
		DataHash:        dataHash,
		AddedFiles:      txn.Additions,
		RemovedFiles:    txn.Deletions,
	}
	commit.Seal()

	commitPath := fmt.Sprintf("%s/commit-%s.json", e.cfg.CommitsRoot(entry.Owner, entry.TableID), commit.CommitSHA)
	commitContent, err := json.Marshal(commit)
	if err != nil {
		return nil, err
	}
	if err := e.store.WriteBlob(commitPath, commitContent); err != nil {
		return nil, err
	}

	tree, err := e.LoadHistory(entry)
	if err != nil {
		return nil, err
	}
	if err := tree.Commit(commit.HistoryEntry()); err != nil {
		return nil, err
	}
	historyContent, err := tree.Save()
	if err != nil {
		return nil, err
	}
	historyPath := fmt.Sprintf("%s/history-%s.avro", e.cfg.HistoryRoot(entry.Owner, entry.TableID), blobID)
	if err := e.store.WriteBlob(historyPath, historyContent); err != nil {
		return nil, err
	}

	// the catalog update is the linearization point; losing the
	// compare-and-set means another commit advanced the head first
	expected := entry.CurrentCommitSHA
	entry.LastUpdatedMs = timestamp
	entry.CurrentCommitSHA = &commit.CommitSHA
	entry.CurrentHistory = &blobID
	if err := e.catalog.CompareAndSetTable(entry, expected); err != nil {
		if errors.Is(err, catalog.ErrConflict) {
			metrics.CommitsFailed.WithLabelValues("out_of_date").Inc()
			return nil, &terrors.TransactionError{Message: "Transaction failed: Commit out of date"}
		}
		return nil, err
	}

	metrics.CommitsTotal.Inc()
	metrics.ManifestEntriesWritten.Add(float64(len(newEntries)))
	timer.ObserveDuration(metrics.CommitDuration)

	url := fmt.Sprintf("%s/v1/tables/%s/%s/commits/%s", baseURL, entry.Owner, entry.Name, commit.CommitSHA)
	e.triggerNewCommit(entry, commit.CommitSHA, url)

	e.logger.Info().
		Str("owner", entry.Owner).
		Str("table", entry.Name).
		Str("commit", commit.CommitSHA).
		Int("files", len(newEntries)).
		Msg("transaction committed")

	return &CommitResult{
		Table:         fmt.Sprintf("%s.%s", entry.Owner, entry.Name),
		TransactionID: txn.TransactionID,
		CommitSHA:     commit.CommitSHA,
		URL:           url,
	}, nil
}

// buildNewManifest produces the next file set: prior entries minus
// deletions, plus an entry built for each new path
func (e *Engine) buildNewManifest(oldEntries []manifest.Entry, txn *models.Transaction) ([]manifest.Entry, error) {
	deleted := map[string]bool{}
	for _, path := range txn.Deletions {
		deleted[path] = true
	}
	existing := map[string]bool{}
	for _, entry := range oldEntries {
		existing[entry.FilePath] = true
	}

	var entries []manifest.Entry
	for _, entry := range oldEntries {
		if !deleted[entry.FilePath] {
			entries = append(entries, entry)
		}
	}

	for _, path := range txn.Additions {
		if existing[path] || deleted[path] {
			continue
		}
		entry, err := manifest.BuildEntry(path, txn.TableSchema)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (e *Engine) triggerNewCommit(entry *models.TableCatalogEntry, sha, url string) {
	payload := map[string]any{
		"event":  events.EventNewCommit,
		"table":  fmt.Sprintf("%s.%s", entry.Owner, entry.Name),
		"commit": sha,
		"url":    url,
	}
	if err := e.dispatcher.Trigger(events.TableEvents, entry.Subscriptions, events.EventNewCommit, payload); err != nil {
		e.logger.Warn().Err(err).Msg("failed to queue commit event")
	}
}

func shaEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
