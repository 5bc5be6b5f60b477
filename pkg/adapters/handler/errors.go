package handler

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/wadjakorntonsri/contextkeeper/pkg/adapters/clipboard"
	"github.com/wadjakorntonsri/contextkeeper/pkg/core/domain"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("Failed to write response")
	}
}

// writeError maps a domain error to a status code and a JSON notice.
// A missing snippet is not an error: the panel may be showing a stale list.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, domain.ErrNotFound):
		w.WriteHeader(http.StatusNoContent)
		return
	case errors.Is(err, domain.ErrTitleRequired),
		errors.Is(err, domain.ErrContentRequired):
		status, message = http.StatusBadRequest, capitalize(err.Error())
	case errors.Is(err, domain.ErrInvalidImport):
		status, message = http.StatusBadRequest, "Import failed - invalid file"
	case errors.Is(err, domain.ErrSelectionTooShort):
		status, message = http.StatusUnprocessableEntity, "Selection is too short"
	case errors.Is(err, domain.ErrNothingToExport):
		status, message = http.StatusNotFound, "No snippets to export"
	case errors.Is(err, domain.ErrInvalidTransition):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, clipboard.ErrUnavailable):
		status, message = http.StatusServiceUnavailable, "Failed to copy"
	case errors.Is(err, domain.ErrClipboard):
		status, message = http.StatusInternalServerError, "Failed to copy"
	}

	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("Request failed")
	}
	writeJSON(w, status, map[string]string{"error": message})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
