package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	terrors "github.com/mabel-dev/tarchia/pkg/errors"
	"github.com/mabel-dev/tarchia/pkg/models"
)

func (s *Server) startTransaction(w http.ResponseWriter, r *http.Request) {
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

	envelope, err := s.engine.Start(owner, table, sha)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":             "Transaction started",
		"encoded_transaction": envelope,
	})
}

// stageTransaction adds file paths to a transaction. Nothing changes on the
// table until the commit endpoint is called.
func (s *Server) stageTransaction(w http.ResponseWriter, r *http.Request) {
	var request models.StageFilesRequest
	if err := decodeBody(r, &request); err != nil {
		writeError(w, err)
		return
	}

	envelope, err := s.engine.Stage(request.EncodedTransaction, request.Paths)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":             "Files added to transaction",
		"encoded_transaction": envelope,
	})
}

// truncateTransaction marks the transaction as deleting all records.
// Nothing changes on the table until the commit endpoint is called.
func (s *Server) truncateTransaction(w http.ResponseWriter, r *http.Request) {
	var request models.TransactionRequest
	if err := decodeBody(r, &request); err != nil {
		writeError(w, err)
		return
	}

	envelope, err := s.engine.Truncate(request.EncodedTransaction)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":             "Table truncated in Transaction",
		"encoded_transaction": envelope,
	})
}

func (s *Server) commitTransaction(w http.ResponseWriter, r *http.Request) {
	var request models.CommitRequest
	if err := decodeBody(r, &request); err != nil {
		writeError(w, err)
		return
	}

	result, err := s.engine.Commit(request.EncodedTransaction, request.CommitMessage, baseURL(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Transaction committed successfully",
		"table":       result.Table,
		"transaction": result.TransactionID,
		"commit":      result.CommitSHA,
		"url":         result.URL,
	})
}

// abortTransaction does nothing; the envelope is client-side state
func (s *Server) abortTransaction(w http.ResponseWriter, r *http.Request) {
	var request models.TransactionRequest
	if err := decodeBody(r, &request); err != nil {
		writeError(w, err)
		return
	}
	_ = s.engine.Abort(request.EncodedTransaction)
	writeJSON(w, http.StatusOK, map[string]any{"message": "Transaction Aborted"})
}
