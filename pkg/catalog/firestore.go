package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	terrors "github.com/mabel-dev/tarchia/pkg/errors"
	"github.com/mabel-dev/tarchia/pkg/models"
)

// FirestoreCatalog stores catalog entries in Google Cloud Firestore. The
// catalog name prefixes the collection names so multiple catalogs can share
// a project.
type FirestoreCatalog struct {
	client *firestore.Client
	prefix string
}

// NewFirestoreCatalog connects to the project named by GCP_PROJECT_ID
func NewFirestoreCatalog(catalogName string) (*FirestoreCatalog, error) {
	projectID := os.Getenv("GCP_PROJECT_ID")
	if projectID == "" {
		return nil, &terrors.InvalidConfigurationError{Setting: "GCP_PROJECT_ID"}
	}

	client, err := firestore.NewClient(context.Background(), projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return &FirestoreCatalog{client: client, prefix: catalogName}, nil
}

// Close closes the firestore client
func (c *FirestoreCatalog) Close() error {
	return c.client.Close()
}

func (c *FirestoreCatalog) collection(name string) *firestore.CollectionRef {
	return c.client.Collection(c.prefix + "_" + name)
}

// toDocument converts an entry to the map firestore stores, via JSON so the
// wire field names match the development catalog
func toDocument(entry any) (map[string]any, error) {
	content, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}
	var document map[string]any
	if err := json.Unmarshal(content, &document); err != nil {
		return nil, err
	}
	return document, nil
}

func fromDocument[T any](data map[string]any) (*T, error) {
	content, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var entry T
	if err := json.Unmarshal(content, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (c *FirestoreCatalog) queryOne(collection string, query Query) (map[string]any, error) {
	q := c.collection(collection).Query
	for field, value := range query {
		q = q.Where(field, "==", value)
	}
	documents := q.Limit(1).Documents(context.Background())
	defer documents.Stop()

	snapshot, err := documents.Next()
	if errors.Is(err, iterator.Done) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	return snapshot.Data(), nil
}

func (c *FirestoreCatalog) GetTable(owner, table string) (*models.TableCatalogEntry, error) {
	data, err := c.queryOne("tables", Query{"owner": owner, "name": table})
	if err != nil || data == nil {
		return nil, err
	}
	return fromDocument[models.TableCatalogEntry](data)
}

func (c *FirestoreCatalog) ListTables(owner string) ([]models.TableCatalogEntry, error) {
	documents := c.collection("tables").Where("owner", "==", owner).Documents(context.Background())
	defer documents.Stop()

	var entries []models.TableCatalogEntry
	for {
		snapshot, err := documents.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list tables: %w", err)
		}
		entry, err := fromDocument[models.TableCatalogEntry](snapshot.Data())
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

func (c *FirestoreCatalog) UpdateTable(tableID string, entry *models.TableCatalogEntry) error {
	document, err := toDocument(entry)
	if err != nil {
		return err
	}
	_, err = c.collection("tables").Doc(tableID).Set(context.Background(), document)
	return err
}

// CompareAndSetTable runs the conditional update in a firestore transaction
func (c *FirestoreCatalog) CompareAndSetTable(entry *models.TableCatalogEntry, expected *string) error {
	document, err := toDocument(entry)
	if err != nil {
		return err
	}
	ref := c.collection("tables").Doc(entry.TableID)

	return c.client.RunTransaction(context.Background(), func(ctx context.Context, tx *firestore.Transaction) error {
		snapshot, err := tx.Get(ref)
		if err == nil {
			current, err := fromDocument[models.TableCatalogEntry](snapshot.Data())
			if err != nil {
				return err
			}
			if !shaEqual(current.CurrentCommitSHA, expected) {
				return ErrConflict
			}
		} else if expected != nil {
			return ErrConflict
		}
		return tx.Set(ref, document)
	})
}

func (c *FirestoreCatalog) DeleteTable(tableID string) error {
	_, err := c.collection("tables").Doc(tableID).Delete(context.Background())
	return err
}

func (c *FirestoreCatalog) GetOwner(name string) (*models.OwnerEntry, error) {
	data, err := c.queryOne("owners", Query{"name": name})
	if err != nil || data == nil {
		return nil, err
	}
	return fromDocument[models.OwnerEntry](data)
}

func (c *FirestoreCatalog) UpdateOwner(entry *models.OwnerEntry) error {
	document, err := toDocument(entry)
	if err != nil {
		return err
	}
	_, err = c.collection("owners").Doc(entry.OwnerID).Set(context.Background(), document)
	return err
}

func (c *FirestoreCatalog) DeleteOwner(ownerID string) error {
	_, err := c.collection("owners").Doc(ownerID).Delete(context.Background())
	return err
}

func (c *FirestoreCatalog) GetView(owner, view string) (*models.ViewCatalogEntry, error) {
	data, err := c.queryOne("views", Query{"owner": owner, "name": view})
	if err != nil || data == nil {
		return nil, err
	}
	return fromDocument[models.ViewCatalogEntry](data)
}

func (c *FirestoreCatalog) ListViews(owner string) ([]models.ViewCatalogEntry, error) {
	documents := c.collection("views").Where("owner", "==", owner).Documents(context.Background())
	defer documents.Stop()

	var entries []models.ViewCatalogEntry
	for {
		snapshot, err := documents.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list views: %w", err)
		}
		entry, err := fromDocument[models.ViewCatalogEntry](snapshot.Data())
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

func (c *FirestoreCatalog) UpdateView(viewID string, entry *models.ViewCatalogEntry) error {
	document, err := toDocument(entry)
	if err != nil {
		return err
	}
	_, err = c.collection("views").Doc(viewID).Set(context.Background(), document)
	return err
}

func (c *FirestoreCatalog) DeleteView(viewID string) error {
	_, err := c.collection("views").Doc(viewID).Delete(context.Background())
	return err
}
