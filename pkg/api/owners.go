package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mabel-dev/tarchia/pkg/models"
)

func (s *Server) createOwner(w http.ResponseWriter, r *http.Request) {
	var request models.CreateOwnerRequest
	if err := decodeBody(r, &request); err != nil {
		writeError(w, err)
		return
	}

	entry, err := s.engine.CreateOwner(request)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Owner Created",
		"owner":   entry.Name,
	})
}

func (s *Server) getOwner(w http.ResponseWriter, r *http.Request) {
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
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) updateOwnerAttribute(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	attribute := chi.URLParam(r, "attribute")
	if err := requireIdentifier(owner); err != nil {
		writeError(w, err)
		return
	}

	var request models.UpdateValueRequest
	if err := decodeBody(r, &request); err != nil {
		writeError(w, err)
		return
	}

	if err := s.engine.UpdateOwnerAttribute(owner, attribute, request.Value); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Owner updated",
		"owner":   owner,
	})
}

func (s *Server) deleteOwner(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	if err := requireIdentifier(owner); err != nil {
		writeError(w, err)
		return
	}

	if err := s.engine.DeleteOwner(owner); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Owner Deleted",
		"owner":   owner,
	})
}
