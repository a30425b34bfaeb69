package catalog

import (
	"encoding/json"

	bolt "go.etcd.io/bbolt"

	"github.com/mabel-dev/tarchia/pkg/models"
)

// DevelopmentCatalog is the bbolt-backed provider. It is not intended for
// production but is used for development and regression testing.
type DevelopmentCatalog struct {
	store *DocumentStore
}

// NewDevelopmentCatalog opens the catalog database at dbPath
func NewDevelopmentCatalog(dbPath string) (*DevelopmentCatalog, error) {
	store, err := NewDocumentStore(dbPath)
	if err != nil {
		return nil, err
	}
	return &DevelopmentCatalog{store: store}, nil
}

// Close closes the underlying store
func (c *DevelopmentCatalog) Close() error {
	return c.store.Close()
}

func findOne[T any](store *DocumentStore, collection string, query Query) (*T, error) {
	results, err := store.Find(collection, query)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	var entry T
	if err := json.Unmarshal(results[0], &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func findAll[T any](store *DocumentStore, collection string, query Query) ([]T, error) {
	results, err := store.Find(collection, query)
	if err != nil {
		return nil, err
	}
	entries := make([]T, 0, len(results))
	for _, raw := range results {
		var entry T
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (c *DevelopmentCatalog) GetTable(owner, table string) (*models.TableCatalogEntry, error) {
	return findOne[models.TableCatalogEntry](c.store, "tables", Query{"owner": owner, "name": table})
}

func (c *DevelopmentCatalog) ListTables(owner string) ([]models.TableCatalogEntry, error) {
	return findAll[models.TableCatalogEntry](c.store, "tables", Query{"owner": owner})
}

func (c *DevelopmentCatalog) UpdateTable(tableID string, entry *models.TableCatalogEntry) error {
	return c.store.Upsert("tables", entry, Query{"table_id": tableID})
}

// CompareAndSetTable performs the conditional update inside a single bbolt
// write transaction, so two concurrent commits resolve with one winner.
func (c *DevelopmentCatalog) CompareAndSetTable(entry *models.TableCatalogEntry, expected *string) error {
	return c.store.update("tables", func(bucket *bolt.Bucket) error {
		stored := bucket.Get([]byte(entry.TableID))
		if stored != nil {
			var current models.TableCatalogEntry
			if err := json.Unmarshal(stored, &current); err != nil {
				return err
			}
			if !shaEqual(current.CurrentCommitSHA, expected) {
				return ErrConflict
			}
		} else if expected != nil {
			return ErrConflict
		}

		content, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(entry.TableID), content)
	})
}

func (c *DevelopmentCatalog) DeleteTable(tableID string) error {
	return c.store.Delete("tables", Query{"table_id": tableID})
}

func (c *DevelopmentCatalog) GetOwner(name string) (*models.OwnerEntry, error) {
	return findOne[models.OwnerEntry](c.store, "owners", Query{"name": name})
}

func (c *DevelopmentCatalog) UpdateOwner(entry *models.OwnerEntry) error {
	return c.store.Upsert("owners", entry, Query{"owner_id": entry.OwnerID})
}

func (c *DevelopmentCatalog) DeleteOwner(ownerID string) error {
	return c.store.Delete("owners", Query{"owner_id": ownerID})
}

func (c *DevelopmentCatalog) GetView(owner, view string) (*models.ViewCatalogEntry, error) {
	return findOne[models.ViewCatalogEntry](c.store, "views", Query{"owner": owner, "name": view})
}

func (c *DevelopmentCatalog) ListViews(owner string) ([]models.ViewCatalogEntry, error) {
	return findAll[models.ViewCatalogEntry](c.store, "views", Query{"owner": owner})
}

func (c *DevelopmentCatalog) UpdateView(viewID string, entry *models.ViewCatalogEntry) error {
	return c.store.Upsert("views", entry, Query{"view_id": viewID})
}

func (c *DevelopmentCatalog) DeleteView(viewID string) error {
	return c.store.Delete("views", Query{"view_id": viewID})
}

func shaEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
