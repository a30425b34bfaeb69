package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	terrors "github.com/mabel-dev/tarchia/pkg/errors"
	"github.com/mabel-dev/tarchia/pkg/manifest"
	"github.com/mabel-dev/tarchia/pkg/models"
)

const defaultPageSize = 100

// getCommit returns the table descriptor merged with the commit record and
// the manifest blobs, optionally pruned by pushdown filters
func (s *Server) getCommit(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	table := chi.URLParam(r, "table")
	sha := chi.URLParam(r, "sha")
	if err := requireIdentifier(owner, table); err != nil {
		writeError(w, err)
		return
	}
	if !models.IsShaOrHead(sha) {
		writeError(w, &terrors.DataEntryError{
			Fields:  []string{"sha"},
			Message: "Commit must be a 64 character hash or the value 'head'.",
		})
		return
	}

	entry, err := s.engine.IdentifyTable(owner, table)
	if err != nil {
		writeError(w, err)
		return
	}

	if sha == "head" {
		if entry.CurrentCommitSHA == nil {
			writeError(w, &terrors.CommitNotFoundError{Root: owner + "." + table, Commit: "head"})
			return
		}
		sha = *entry.CurrentCommitSHA
	}

	commit, err := s.engine.LoadCommit(entry, sha)
	if err != nil {
		writeError(w, err)
		return
	}

	filters, err := manifest.ParseFilters(r.URL.Query().Get("filters"), commit.TableSchema)
	if err != nil {
		writeError(w, err)
		return
	}

	entries, err := s.engine.ManifestEntries(commit, filters)
	if err != nil {
		writeError(w, err)
		return
	}

	blobs := make([]map[string]any, 0, len(entries))
	for _, blob := range entries {
		blobs = append(blobs, map[string]any{
			"path":    blob.FilePath,
			"bytes":   blob.FileSize,
			"records": blob.RecordCount,
		})
	}

	definition, err := entryToMap(entry)
	if err != nil {
		writeError(w, err)
		return
	}
	commitMap, err := entryToMap(commit)
	if err != nil {
		writeError(w, err)
		return
	}
	for field, value := range commitMap {
		definition[field] = value
	}
	delete(definition, "current_commit_sha")
	delete(definition, "current_schema")
	delete(definition, "last_updated_ms")
	delete(definition, "partitioning")
	delete(definition, "location")
	definition["commit_sha"] = sha
	definition["commit_url"] = commitURL(baseURL(r), entry.Owner, entry.Name, sha)
	definition["blobs"] = blobs

	writeJSON(w, http.StatusOK, definition)
}

// listCommits walks the history newest first with before/after timestamp
// bounds and paging
func (s *Server) listCommits(w http.ResponseWriter, r *http.Request) {
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

	query := r.URL.Query()
	before := parseInt64(query.Get("before"), 0)
	after := parseInt64(query.Get("after"), 0)
	pageSize := int(parseInt64(query.Get("page_size"), defaultPageSize))
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	tree, err := s.engine.LoadHistory(entry)
	if err != nil {
		writeError(w, err)
		return
	}

	response := map[string]any{
		"table":   fmt.Sprintf("%s.%s", owner, table),
		"branch":  models.MainBranch,
		"commits": []models.HistoryEntry{},
	}

	commits := []models.HistoryEntry{}
	walk := tree.WalkBranch(models.MainBranch)
	for i := 0; i < len(walk); i++ {
		commit := walk[i]
		if before > 0 && commit.Timestamp > before {
			continue
		}
		if after > 0 && commit.Timestamp < after {
			break
		}
		if len(commits) >= pageSize {
			afterBlock := ""
			if after > 0 {
				afterBlock = fmt.Sprintf("&after=%d", after)
			}
			response["next_page"] = fmt.Sprintf(
				"%s/v1/tables/%s/%s/commits?page_size=%d%s&before=%d",
				baseURL(r), owner, table, pageSize, afterBlock, commit.Timestamp,
			)
			break
		}
		commits = append(commits, commit)
	}
	response["commits"] = commits

	writeJSON(w, http.StatusOK, response)
}

func parseInt64(value string, fallback int64) int64 {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
