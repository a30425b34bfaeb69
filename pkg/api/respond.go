package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	terrors "github.com/mabel-dev/tarchia/pkg/errors"
	"github.com/mabel-dev/tarchia/pkg/log"
	"github.com/mabel-dev/tarchia/pkg/models"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps the error taxonomy onto HTTP statuses. Unclassified
// errors become a 500 carrying a correlation id that is also logged.
func writeError(w http.ResponseWriter, err error) {
	var dataEntry *terrors.DataEntryError
	if errors.As(err, &dataEntry) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"fields":  dataEntry.Fields,
			"message": dataEntry.Message,
		})
		return
	}

	var schemaTransition *terrors.InvalidSchemaTransitionError
	if errors.As(err, &schemaTransition) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"message": schemaTransition.Message})
		return
	}

	var invalidFilter *terrors.InvalidFilterError
	if errors.As(err, &invalidFilter) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"message": invalidFilter.Message})
		return
	}

	var dataError *terrors.DataError
	if errors.As(err, &dataError) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"message": dataError.Message})
		return
	}

	if terrors.IsNotFound(err) {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": err.Error()})
		return
	}

	var alreadyExists *terrors.AlreadyExistsError
	if errors.As(err, &alreadyExists) {
		writeJSON(w, http.StatusConflict, map[string]any{"message": alreadyExists.Error()})
		return
	}

	var txnError *terrors.TransactionError
	if errors.As(err, &txnError) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": txnError.Message})
		return
	}

	code := uuid.NewString()
	logger := log.WithComponent("api")
	logger.Error().
		Err(err).
		Str("correlation_id", code).
		Msg("unexpected error")
	writeJSON(w, http.StatusInternalServerError, map[string]any{
		"message":        "Unexpected Error (" + code + ")",
		"correlation_id": code,
	})
}

func decodeBody(r *http.Request, target any) error {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return &terrors.DataEntryError{
			Fields:  []string{"body"},
			Message: "Request body is not valid JSON.",
		}
	}
	return nil
}

// requireIdentifier rejects path parameters that are not identifiers
func requireIdentifier(values ...string) error {
	for _, value := range values {
		if !models.IsIdentifier(value) {
			return &terrors.DataEntryError{
				Fields:  []string{"path"},
				Message: "Names cannot start with a digit and can only contain alphanumerics and underscores.",
			}
		}
	}
	return nil
}
