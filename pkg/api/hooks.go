package api

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"

	"github.com/go-chi/chi/v5"

	terrors "github.com/mabel-dev/tarchia/pkg/errors"
	"github.com/mabel-dev/tarchia/pkg/models"
)

// hookID derives a stable identifier for a subscription so it can be
// addressed without a server-side registry
func hookID(hook models.Subscription) string {
	hasher := sha256.New()
	hasher.Write([]byte(hook.User))
	hasher.Write([]byte(hook.Event))
	hasher.Write([]byte(hook.URL))
	return hex.EncodeToString(hasher.Sum(nil))[:12]
}

func hookList(subscriptions []models.Subscription) []map[string]any {
	list := make([]map[string]any, 0, len(subscriptions))
	for _, hook := range subscriptions {
		list = append(list, map[string]any{
			"hook_id": hookID(hook),
			"user":    hook.User,
			"event":   hook.Event,
			"url":     hook.URL,
		})
	}
	return list
}

func findHook(subscriptions []models.Subscription, id string) (models.Subscription, bool) {
	for _, hook := range subscriptions {
		if hookID(hook) == id {
			return hook, true
		}
	}
	return models.Subscription{}, false
}

func (s *Server) listTableHooks(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	table := chi.URLParam(r, "table")
	if err := requireIdentifier(owner, table); err != nil {
		writeError(w, err)
		return
	}

	entry, err := s.engine.IdentifyTable(owner, table)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hookList(entry.Subscriptions))
}

func (s *Server) createTableHook(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	table := chi.URLParam(r, "table")
	if err := requireIdentifier(owner, table); err != nil {
		writeError(w, err)
		return
	}

	var request models.CreateHookRequest
	if err := decodeBody(r, &request); err != nil {
		writeError(w, err)
		return
	}

	hook := models.Subscription{User: request.User, Event: request.Event, URL: request.URL}
	if err := s.engine.AddTableHook(owner, table, hook); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Hook Created",
		"hook_id": hookID(hook),
	})
}

func (s *Server) deleteTableHook(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	table := chi.URLParam(r, "table")
	id := chi.URLParam(r, "hook")
	if err := requireIdentifier(owner, table); err != nil {
		writeError(w, err)
		return
	}

	entry, err := s.engine.IdentifyTable(owner, table)
	if err != nil {
		writeError(w, err)
		return
	}

	hook, found := findHook(entry.Subscriptions, id)
	if !found {
		writeError(w, &terrors.DataEntryError{
			Fields:  []string{"hook"},
			Message: "No hook with that identifier.",
		})
		return
	}

	if err := s.engine.RemoveTableHook(owner, table, hook); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Hook Deleted"})
}

func (s *Server) listOwnerHooks(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	if err := requireIdentifier(owner); err != nil {
		writeError(w, err)
		return
	}

	entry, err := s.engine.IdentifyOwner(owner)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hookList(entry.Subscriptions))
}

func (s *Server) createOwnerHook(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	if err := requireIdentifier(owner); err != nil {
		writeError(w, err)
		return
	}

	var request models.CreateHookRequest
	if err := decodeBody(r, &request); err != nil {
		writeError(w, err)
		return
	}

	hook := models.Subscription{User: request.User, Event: request.Event, URL: request.URL}
	if err := s.engine.AddOwnerHook(owner, hook); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Hook Created",
		"hook_id": hookID(hook),
	})
}

func (s *Server) deleteOwnerHook(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	id := chi.URLParam(r, "hook")
	if err := requireIdentifier(owner); err != nil {
		writeError(w, err)
		return
	}

	entry, err := s.engine.IdentifyOwner(owner)
	if err != nil {
		writeError(w, err)
		return
	}

	hook, found := findHook(entry.Subscriptions, id)
	if !found {
		writeError(w, &terrors.DataEntryError{
			Fields:  []string{"hook"},
			Message: "No hook with that identifier.",
		})
		return
	}

	if err := s.engine.RemoveOwnerHook(owner, hook); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Hook Deleted"})
}
