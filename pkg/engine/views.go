package engine

import (
	"fmt"

	terrors "github.com/mabel-dev/tarchia/pkg/errors"
	"github.com/mabel-dev/tarchia/pkg/events"
	"github.com/mabel-dev/tarchia/pkg/models"
)

// IdentifyView resolves a view by owner and name
func (e *Engine) IdentifyView(owner, view string) (*models.ViewCatalogEntry, error) {
	entry, err := e.catalog.GetView(owner, view)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, &terrors.ViewNotFoundError{Owner: owner, View: view}
	}
	return entry, nil
}

// CreateView registers a view. The name must not collide with a table or a
// view in the same namespace.
func (e *Engine) CreateView(owner string, request models.CreateViewRequest) (*models.ViewCatalogEntry, error) {
	ownerEntry, err := e.IdentifyOwner(owner)
	if err != nil {
		return nil, err
	}

	if !models.IsIdentifier(request.Name) {
		return nil, &terrors.DataEntryError{
			Fields:  []string{"name"},
			Message: "View name cannot start with a digit and can only contain alphanumerics and underscores.",
		}
	}

	table, err := e.catalog.GetTable(owner, request.Name)
	if err != nil {
		return nil, err
	}
	if table != nil {
		return nil, &terrors.AlreadyExistsError{Entity: request.Name}
	}

	view, err := e.catalog.GetView(owner, request.Name)
	if err != nil {
		return nil, err
	}
	if view != nil {
		return nil, &terrors.AlreadyExistsError{Entity: request.Name}
	}

	entry := &models.ViewCatalogEntry{
		ViewID:        newUUID(),
		Name:          request.Name,
		Owner:         owner,
		Steward:       request.Steward,
		Relation:      "view",
		Statement:     request.Statement,
		Metadata:      request.Metadata,
		Description:   request.Description,
		FormatVersion: 1,
		CreatedAt:     models.NowMs(),
	}

	if err := e.catalog.UpdateView(entry.ViewID, entry); err != nil {
		return nil, err
	}

	payload := map[string]any{
		"event": events.EventViewCreated,
		"view":  fmt.Sprintf("%s.%s", owner, entry.Name),
	}
	if err := e.dispatcher.Trigger(events.OwnerEvents, ownerEntry.Subscriptions, events.EventViewCreated, payload); err != nil {
		e.logger.Warn().Err(err).Msg("failed to queue view-created event")
	}

	return entry, nil
}

// DeleteView removes a view from the catalog
func (e *Engine) DeleteView(owner, view string) error {
	entry, err := e.IdentifyView(owner, view)
	if err != nil {
		return err
	}

	if err := e.catalog.DeleteView(entry.ViewID); err != nil {
		return err
	}

	if ownerEntry, err := e.catalog.GetOwner(owner); err == nil && ownerEntry != nil {
		payload := map[string]any{
			"event": events.EventViewDeleted,
			"view":  fmt.Sprintf("%s.%s", owner, view),
		}
		if err := e.dispatcher.Trigger(events.OwnerEvents, ownerEntry.Subscriptions, events.EventViewDeleted, payload); err != nil {
			e.logger.Warn().Err(err).Msg("failed to queue view-deleted event")
		}
	}
	return nil
}

// Hook management: subscriptions are persisted on the catalog entries they
// notify for.

// AddTableHook registers a webhook subscription on a table
func (e *Engine) AddTableHook(owner, table string, hook models.Subscription) error {
	if err := events.ValidateSubscription(events.TableEvents, hook.Event, hook.URL); err != nil {
		return &terrors.DataEntryError{Fields: []string{"event", "url"}, Message: err.Error()}
	}

	entry, err := e.IdentifyTable(owner, table)
	if err != nil {
		return err
	}
	entry.Subscriptions = append(entry.Subscriptions, hook)
	return e.catalog.UpdateTable(entry.TableID, entry)
}

// RemoveTableHook removes matching subscriptions from a table
func (e *Engine) RemoveTableHook(owner, table string, hook models.Subscription) error {
	entry, err := e.IdentifyTable(owner, table)
	if err != nil {
		return err
	}
	entry.Subscriptions = removeSubscription(entry.Subscriptions, hook)
	return e.catalog.UpdateTable(entry.TableID, entry)
}

// AddOwnerHook registers a webhook subscription on an owner
func (e *Engine) AddOwnerHook(owner string, hook models.Subscription) error {
	if err := events.ValidateSubscription(events.OwnerEvents, hook.Event, hook.URL); err != nil {
		return &terrors.DataEntryError{Fields: []string{"event", "url"}, Message: err.Error()}
	}

	entry, err := e.IdentifyOwner(owner)
	if err != nil {
		return err
	}
	entry.Subscriptions = append(entry.Subscriptions, hook)
	return e.catalog.UpdateOwner(entry)
}

// RemoveOwnerHook removes matching subscriptions from an owner
func (e *Engine) RemoveOwnerHook(owner string, hook models.Subscription) error {
	entry, err := e.IdentifyOwner(owner)
	if err != nil {
		return err
	}
	entry.Subscriptions = removeSubscription(entry.Subscriptions, hook)
	return e.catalog.UpdateOwner(entry)
}

func removeSubscription(subscriptions []models.Subscription, hook models.Subscription) []models.Subscription {
	kept := subscriptions[:0]
	for _, subscription := range subscriptions {
		if subscription.User == hook.User && subscription.Event == hook.Event && subscription.URL == hook.URL {
			continue
		}
		kept = append(kept, subscription)
	}
	return kept
}
