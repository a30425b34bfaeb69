package engine

import (
	terrors "github.com/mabel-dev/tarchia/pkg/errors"
	"github.com/mabel-dev/tarchia/pkg/models"
)

// CreateOwner registers a new owner namespace
func (e *Engine) CreateOwner(request models.CreateOwnerRequest) (*models.OwnerEntry, error) {
	entry := &models.OwnerEntry{
		OwnerID:     newUUID(),
		Name:        request.Name,
		Type:        request.Type,
		Steward:     request.Steward,
		Memberships: request.Memberships,
		Description: request.Description,
		CreatedAt:   models.NowMs(),
	}
	if entry.Memberships == nil {
		entry.Memberships = []string{}
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	existing, err := e.catalog.GetOwner(request.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &terrors.AlreadyExistsError{Entity: request.Name}
	}

	if err := e.catalog.UpdateOwner(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// UpdateOwnerAttribute patches a single owner attribute; only steward is
// mutable
func (e *Engine) UpdateOwnerAttribute(name, attribute, value string) error {
	entry, err := e.IdentifyOwner(name)
	if err != nil {
		return err
	}

	if attribute != "steward" {
		return &terrors.DataEntryError{
			Fields:  []string{attribute},
			Message: "Only the steward attribute can be modified via the API",
		}
	}
	entry.Steward = value
	return e.catalog.UpdateOwner(entry)
}

// DeleteOwner removes an owner. Owners with tables cannot be deleted; a
// narrow race with table creation is accepted (create re-verifies the owner
// after its upsert).
func (e *Engine) DeleteOwner(name string) error {
	entry, err := e.IdentifyOwner(name)
	if err != nil {
		return err
	}

	tables, err := e.catalog.ListTables(name)
	if err != nil {
		return err
	}
	if len(tables) > 0 {
		return &terrors.AlreadyExistsError{
			Entity:  name,
			Message: "owner '" + name + "' still has tables and cannot be deleted",
		}
	}

	return e.catalog.DeleteOwner(entry.OwnerID)
}
