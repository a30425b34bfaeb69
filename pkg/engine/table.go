package engine

import (
	"encoding/json"
	"fmt"

	terrors "github.com/mabel-dev/tarchia/pkg/errors"
	"github.com/mabel-dev/tarchia/pkg/events"
	"github.com/mabel-dev/tarchia/pkg/log"
	"github.com/mabel-dev/tarchia/pkg/models"
)

// CreateTable registers a new table and writes its empty initial commit so
// transactions can be started against "head" immediately.
func (e *Engine) CreateTable(owner string, request models.CreateTableRequest) (*models.TableCatalogEntry, error) {
	existing, err := e.catalog.GetTable(owner, request.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &terrors.AlreadyExistsError{Entity: request.Name}
	}

	ownerEntry, err := e.IdentifyOwner(owner)
	if err != nil {
		return nil, err
	}

	timestamp := models.NowMs()
	entry := &models.TableCatalogEntry{
		TableID:             newUUID(),
		Name:                request.Name,
		Owner:               owner,
		Steward:             request.Steward,
		Relation:            "table",
		Location:            request.Location,
		Partitioning:        request.Partitioning,
		CurrentSchema:       request.TableSchema,
		Visibility:          request.Visibility,
		Permissions:         request.Permissions,
		Disposition:         request.Disposition,
		FreshnessLifeInDays: request.FreshnessLifeInDays,
		RetentionInDays:     request.RetentionInDays,
		Encryption:          request.Encryption,
		Metadata:            request.Metadata,
		Description:         request.Description,
		FormatVersion:       1,
		LastUpdatedMs:       timestamp,
		CreatedAt:           timestamp,
	}
	if entry.Visibility == "" {
		entry.Visibility = models.VisibilityPrivate
	}
	if entry.Disposition == "" {
		entry.Disposition = models.DispositionSnapshot
	}
	if entry.Permissions == nil {
		entry.Permissions = []models.DatasetPermission{}
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	initial, err := e.writeInitialCommit(entry, timestamp)
	if err != nil {
		return nil, err
	}
	entry.CurrentCommitSHA = &initial.CommitSHA

	if err := e.catalog.UpdateTable(entry.TableID, entry); err != nil {
		return nil, err
	}

	// re-verify the owner after the upsert; an owner deleted in between
	// leaves no catalog entry behind
	if _, err := e.IdentifyOwner(owner); err != nil {
		_ = e.catalog.DeleteTable(entry.TableID)
		return nil, err
	}

	// the existence marker makes the table's metadata tree discoverable
	// without the catalog
	marker := fmt.Sprintf("%s/%s", e.cfg.TableRoot(owner, entry.TableID), entry.Name)
	if err := e.store.WriteBlob(marker, []byte{}); err != nil {
		return nil, err
	}

	payload := map[string]any{
		"event": events.EventTableCreated,
		"table": fmt.Sprintf("%s.%s", owner, entry.Name),
	}
	if err := e.dispatcher.Trigger(events.OwnerEvents, ownerEntry.Subscriptions, events.EventTableCreated, payload); err != nil {
		e.logger.Warn().Err(err).Msg("failed to queue table-created event")
	}

	return entry, nil
}

// writeInitialCommit persists the empty commit a new table starts from:
// null parent, no manifest, frozen creation schema.
func (e *Engine) writeInitialCommit(entry *models.TableCatalogEntry, timestamp int64) (*models.Commit, error) {
	dataHash, err := xorHexStrings(nil)
	if err != nil {
		return nil, err
	}

	commit := models.Commit{
		ParentCommitSHA: nil,
		Branch:          models.MainBranch,
		User:            commitUser,
		Message:         "Initial commit",
		LastUpdatedMs:   timestamp,
		TableSchema:     entry.CurrentSchema,
		Encryption:      entry.Encryption,
		ManifestPath:    nil,
		DataHash:        dataHash,
		AddedFiles:      []string{},
		RemovedFiles:    []string{},
	}
	commit.Seal()

	content, err := json.Marshal(commit)
	if err != nil {
		return nil, err
	}
	path := fmt.Sprintf("%s/commit-%s.json", e.cfg.CommitsRoot(entry.Owner, entry.TableID), commit.CommitSHA)
	if err := e.store.WriteBlob(path, content); err != nil {
		return nil, err
	}
	return &commit, nil
}

// DeleteTable tombstones a table. The catalog entry is preserved in the
// tombstone blob so the table can be manually restated; data and metadata
// files are not touched.
func (e *Engine) DeleteTable(owner, table string) error {
	entry, err := e.IdentifyTable(owner, table)
	if err != nil {
		return err
	}

	if err := e.catalog.DeleteTable(entry.TableID); err != nil {
		return err
	}

	content, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	tombstone := fmt.Sprintf("%s/deleted.json", e.cfg.TableRoot(owner, entry.TableID))
	if err := e.store.WriteBlob(tombstone, content); err != nil {
		return err
	}
	logger := log.WithTable(owner, table)
	logger.Info().Msg("table tombstoned")

	if ownerEntry, err := e.catalog.GetOwner(owner); err == nil && ownerEntry != nil {
		payload := map[string]any{
			"event": events.EventTableDeleted,
			"table": fmt.Sprintf("%s.%s", owner, table),
		}
		if err := e.dispatcher.Trigger(events.OwnerEvents, ownerEntry.Subscriptions, events.EventTableDeleted, payload); err != nil {
			e.logger.Warn().Err(err).Msg("failed to queue table-deleted event")
		}
	}
	return nil
}

// UpdateSchema applies a schema evolution without creating a commit. The
// proposed schema must pass the evolution predicate against the current one.
func (e *Engine) UpdateSchema(owner, table string, updated models.Schema) error {
	if err := updated.Validate(); err != nil {
		return err
	}

	entry, err := e.IdentifyTable(owner, table)
	if err != nil {
		return err
	}

	if err := models.ValidateSchemaUpdate(entry.CurrentSchema, updated); err != nil {
		return err
	}

	entry.CurrentSchema = updated
	entry.LastUpdatedMs = models.NowMs()
	return e.catalog.UpdateTable(entry.TableID, entry)
}

// UpdateMetadata replaces the table's free-form metadata mapping
func (e *Engine) UpdateMetadata(owner, table string, metadata map[string]any) error {
	entry, err := e.IdentifyTable(owner, table)
	if err != nil {
		return err
	}
	entry.Metadata = metadata
	entry.LastUpdatedMs = models.NowMs()
	return e.catalog.UpdateTable(entry.TableID, entry)
}

// UpdateAttribute patches a single mutable attribute. Only visibility and
// steward may be changed this way.
func (e *Engine) UpdateAttribute(owner, table, attribute, value string) error {
	entry, err := e.IdentifyTable(owner, table)
	if err != nil {
		return err
	}

	switch attribute {
	case "visibility":
		visibility := models.TableVisibility(value)
		if visibility != models.VisibilityPrivate && visibility != models.VisibilityInternal && visibility != models.VisibilityPublic {
			return &terrors.DataEntryError{
				Fields:  []string{"visibility"},
				Message: "Visibility must be PRIVATE, INTERNAL or PUBLIC.",
			}
		}
		entry.Visibility = visibility
	case "steward":
		entry.Steward = value
	default:
		return &terrors.DataEntryError{
			Fields:  []string{attribute},
			Message: fmt.Sprintf("Data attribute %s cannot be modified via the API", attribute),
		}
	}

	entry.LastUpdatedMs = models.NowMs()
	return e.catalog.UpdateTable(entry.TableID, entry)
}
