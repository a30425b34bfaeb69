package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mabel-dev/tarchia/pkg/models"
)

func (s *Server) listViews(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	if err := requireIdentifier(owner); err != nil {
		writeError(w, err)
		return
	}

	views, err := s.engine.Catalog().ListViews(owner)
	if err != nil {
		writeError(w, err)
		return
	}

	shown := []string{
		"view_id", "name", "description", "statement", "owner", "metadata", "created_at",
	}

	base := baseURL(r)
	list := make([]map[string]any, 0, len(views))
	for _, view := range views {
		flat, err := entryToMap(view)
		if err != nil {
			writeError(w, err)
			return
		}

		item := map[string]any{}
		for _, field := range shown {
			if value, exists := flat[field]; exists {
				item[field] = value
			}
		}
		item["view_url"] = fmt.Sprintf("%s/v1/views/%s/%s", base, owner, view.Name)
		list = append(list, item)
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) createView(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	if err := requireIdentifier(owner); err != nil {
		writeError(w, err)
		return
	}

	var request models.CreateViewRequest
	if err := decodeBody(r, &request); err != nil {
		writeError(w, err)
		return
	}

	entry, err := s.engine.CreateView(owner, request)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "View Created",
		"view":    fmt.Sprintf("%s.%s", owner, entry.Name),
	})
}

func (s *Server) getView(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	view := chi.URLParam(r, "view")
	if err := requireIdentifier(owner, view); err != nil {
		writeError(w, err)
		return
	}

	entry, err := s.engine.IdentifyView(owner, view)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) deleteView(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	view := chi.URLParam(r, "view")
	if err := requireIdentifier(owner, view); err != nil {
		writeError(w, err)
		return
	}

	if err := s.engine.DeleteView(owner, view); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "View Deleted",
		"view":    fmt.Sprintf("%s.%s", owner, view),
	})
}
