package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mabel-dev/tarchia/pkg/models"
)

// entryToMap flattens an entry through its JSON form so handlers can shape
// responses field by field
func entryToMap(entry any) (map[string]any, error) {
	content, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}
	var flat map[string]any
	if err := json.Unmarshal(content, &flat); err != nil {
		return nil, err
	}
	return flat, nil
}

func commitURL(base, owner, table, sha string) string {
	return fmt.Sprintf("%s/v1/tables/%s/%s/commits/%s", base, owner, table, sha)
}

// listTables returns the tables owned by {owner}, each with the URL of its
// current commit when one exists
func (s *Server) listTables(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	if err := requireIdentifier(owner); err != nil {
		writeError(w, err)
		return
	}

	tables, err := s.engine.Catalog().ListTables(owner)
	if err != nil {
		writeError(w, err)
		return
	}

	shown := []string{
		"table_id", "current_commit_sha", "name", "description", "visibility",
		"owner", "last_updated_ms", "steward", "metadata",
	}

	base := baseURL(r)
	list := make([]map[string]any, 0, len(tables))
	for _, table := range tables {
		flat, err := entryToMap(table)
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
		if table.CurrentCommitSHA != nil {
			item["commit_url"] = commitURL(base, owner, table.Name, *table.CurrentCommitSHA)
		}
		list = append(list, item)
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) createTable(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	if err := requireIdentifier(owner); err != nil {
		writeError(w, err)
		return
	}

	var request models.CreateTableRequest
	if err := decodeBody(r, &request); err != nil {
		writeError(w, err)
		return
	}

	if _, err := s.engine.CreateTable(owner, request); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Table Created",
		"table":   fmt.Sprintf("%s.%s", owner, request.Name),
	})
}

// getTable confirms a table exists and returns its descriptor. It does not
// read commits or manifests so it replies fast.
func (s *Server) getTable(w http.ResponseWriter, r *http.Request) {
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

	flat, err := entryToMap(entry)
	if err != nil {
		writeError(w, err)
		return
	}
	if entry.CurrentCommitSHA != nil {
		flat["commit_url"] = commitURL(baseURL(r), entry.Owner, entry.Name, *entry.CurrentCommitSHA)
	}
	writeJSON(w, http.StatusOK, flat)
}

func (s *Server) deleteTable(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	table := chi.URLParam(r, "table")
	if err := requireIdentifier(owner, table); err != nil {
		writeError(w, err)
		return
	}

	if err := s.engine.DeleteTable(owner, table); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Table Deleted",
		"table":   fmt.Sprintf("%s.%s", owner, table),
	})
}

func (s *Server) updateSchema(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	table := chi.URLParam(r, "table")
	if err := requireIdentifier(owner, table); err != nil {
		writeError(w, err)
		return
	}

	var schema models.Schema
	if err := decodeBody(r, &schema); err != nil {
		writeError(w, err)
		return
	}

	if err := s.engine.UpdateSchema(owner, table, schema); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Schema Updated",
		"table":   fmt.Sprintf("%s.%s", owner, table),
	})
}

func (s *Server) updateMetadata(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	table := chi.URLParam(r, "table")
	if err := requireIdentifier(owner, table); err != nil {
		writeError(w, err)
		return
	}

	var request models.UpdateMetadataRequest
	if err := decodeBody(r, &request); err != nil {
		writeError(w, err)
		return
	}

	if err := s.engine.UpdateMetadata(owner, table, request.Metadata); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Metadata updated",
		"table":   fmt.Sprintf("%s.%s", owner, table),
	})
}

func (s *Server) updateTableAttribute(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	table := chi.URLParam(r, "table")
	attribute := chi.URLParam(r, "attribute")
	if err := requireIdentifier(owner, table); err != nil {
		writeError(w, err)
		return
	}

	var request models.UpdateValueRequest
	if err := decodeBody(r, &request); err != nil {
		writeError(w, err)
		return
	}

	if err := s.engine.UpdateAttribute(owner, table, attribute, request.Value); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Table updated",
		"table":   fmt.Sprintf("%s.%s", owner, table),
	})
}
