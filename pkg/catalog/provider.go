// Package catalog provides the document-store-backed catalog of tables,
// owners, and views.
package catalog

import (
	"errors"
	"strings"

	terrors "github.com/mabel-dev/tarchia/pkg/errors"
	"github.com/mabel-dev/tarchia/pkg/models"
)

// ErrConflict is returned by CompareAndSetTable when the stored entry no
// longer matches the expected commit sha.
var ErrConflict = errors.New("catalog entry modified concurrently")

// Provider is the catalog interface. Uniqueness of (owner, name) per
// relation and per-document serialization of updates are provider
// guarantees the commit engine relies on.
type Provider interface {
	GetTable(owner, table string) (*models.TableCatalogEntry, error)
	ListTables(owner string) ([]models.TableCatalogEntry, error)
	UpdateTable(tableID string, entry *models.TableCatalogEntry) error

	// CompareAndSetTable updates the entry only while the stored
	// current_commit_sha equals expected; otherwise ErrConflict. This is the
	// linearization point for commits.
	CompareAndSetTable(entry *models.TableCatalogEntry, expected *string) error

	DeleteTable(tableID string) error

	GetOwner(name string) (*models.OwnerEntry, error)
	UpdateOwner(entry *models.OwnerEntry) error
	DeleteOwner(ownerID string) error

	GetView(owner, view string) (*models.ViewCatalogEntry, error)
	ListViews(owner string) ([]models.ViewCatalogEntry, error)
	UpdateView(viewID string, entry *models.ViewCatalogEntry) error
	DeleteView(viewID string) error

	Close() error
}

// NewProvider returns the provider for a configured backend name
func NewProvider(name, catalogName string) (Provider, error) {
	switch strings.ToUpper(name) {
	case "DEVELOPMENT", "":
		return NewDevelopmentCatalog(catalogName)
	case "FIRESTORE":
		return NewFirestoreCatalog(catalogName)
	default:
		return nil, &terrors.InvalidConfigurationError{Setting: "CATALOG_PROVIDER"}
	}
}
