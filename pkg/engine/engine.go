package engine

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mabel-dev/tarchia/pkg/catalog"
	"github.com/mabel-dev/tarchia/pkg/config"
	terrors "github.com/mabel-dev/tarchia/pkg/errors"
	"github.com/mabel-dev/tarchia/pkg/events"
	"github.com/mabel-dev/tarchia/pkg/history"
	"github.com/mabel-dev/tarchia/pkg/log"
	"github.com/mabel-dev/tarchia/pkg/manifest"
	"github.com/mabel-dev/tarchia/pkg/models"
	"github.com/mabel-dev/tarchia/pkg/storage"
	"github.com/mabel-dev/tarchia/pkg/transaction"
)

// Engine composes the catalog, blob storage, envelope signer, and event
// dispatcher. It is the only component that mutates catalog entries.
type Engine struct {
	cfg        config.Config
	store      storage.Provider
	catalog    catalog.Provider
	signer     *transaction.Signer
	dispatcher *events.Dispatcher
	logger     zerolog.Logger
}

// New wires an engine from its collaborators
func New(cfg config.Config, store storage.Provider, cat catalog.Provider, signer *transaction.Signer, dispatcher *events.Dispatcher) *Engine {
	return &Engine{
		cfg:        cfg,
		store:      store,
		catalog:    cat,
		signer:     signer,
		dispatcher: dispatcher,
		logger:     log.WithComponent("engine"),
	}
}

// Catalog exposes the catalog provider for read paths
func (e *Engine) Catalog() catalog.Provider {
	return e.catalog
}

// Storage exposes the blob provider for read paths
func (e *Engine) Storage() storage.Provider {
	return e.store
}

// Dispatcher exposes the event dispatcher
func (e *Engine) Dispatcher() *events.Dispatcher {
	return e.dispatcher
}

// Config exposes the engine configuration
func (e *Engine) Config() config.Config {
	return e.cfg
}

// IdentifyTable resolves a table by owner and name
func (e *Engine) IdentifyTable(owner, table string) (*models.TableCatalogEntry, error) {
	entry, err := e.catalog.GetTable(owner, table)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, &terrors.TableNotFoundError{Owner: owner, Table: table}
	}
	return entry, nil
}

// IdentifyOwner resolves an owner by name
func (e *Engine) IdentifyOwner(name string) (*models.OwnerEntry, error) {
	entry, err := e.catalog.GetOwner(name)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, &terrors.OwnerNotFoundError{Owner: name}
	}
	return entry, nil
}

// LoadCommit reads the commit blob for sha from the table's commit root
func (e *Engine) LoadCommit(entry *models.TableCatalogEntry, sha string) (*models.Commit, error) {
	root := e.cfg.CommitsRoot(entry.Owner, entry.TableID)
	content, err := e.store.ReadBlob(fmt.Sprintf("%s/commit-%s.json", root, sha))
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, &terrors.CommitNotFoundError{Root: root, Commit: sha}
	}

	var commit models.Commit
	if err := json.Unmarshal(content, &commit); err != nil {
		return nil, fmt.Errorf("failed to parse commit %s: %w", sha, err)
	}
	return &commit, nil
}

// ManifestEntries walks a commit's manifest tree, applying pushdown filters
// during descent
func (e *Engine) ManifestEntries(commit *models.Commit, filters []manifest.Filter) ([]manifest.Entry, error) {
	if commit.ManifestPath == nil {
		return nil, nil
	}
	return manifest.Read(*commit.ManifestPath, e.store, filters)
}

// LoadHistory reads the table's current history tree, or returns an empty
// tree when none has been written
func (e *Engine) LoadHistory(entry *models.TableCatalogEntry) (*history.Tree, error) {
	if entry.CurrentHistory == nil {
		return history.NewTree(models.MainBranch), nil
	}

	location := fmt.Sprintf("%s/history-%s.avro", e.cfg.HistoryRoot(entry.Owner, entry.TableID), *entry.CurrentHistory)
	content, err := e.store.ReadBlob(location)
	if err != nil {
		return nil, err
	}
	if content == nil {
		return history.NewTree(models.MainBranch), nil
	}
	return history.Load(content, models.MainBranch)
}

// xorHexStrings XOR-folds equal-length hex strings; the fold of nothing is
// sixty-four zeros
func xorHexStrings(values []string) (string, error) {
	if len(values) == 0 {
		return "0000000000000000000000000000000000000000000000000000000000000000", nil
	}

	result, err := hex.DecodeString(values[0])
	if err != nil {
		return "", fmt.Errorf("invalid checksum %q: %w", values[0], err)
	}
	for _, value := range values[1:] {
		next, err := hex.DecodeString(value)
		if err != nil {
			return "", fmt.Errorf("invalid checksum %q: %w", value, err)
		}
		for i := 0; i < len(result) && i < len(next); i++ {
			result[i] ^= next[i]
		}
	}
	return hex.EncodeToString(result), nil
}

func newUUID() string {
	return uuid.NewString()
}
