package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"jewelbox/backup"
	"jewelbox/inventory"
	"jewelbox/orders"
	"jewelbox/payment"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   message,
	})
}

// decodeJSON reads at most limit bytes of JSON into v and rejects unknown trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, limit int64) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	if err := dec.Decode(v); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		writeError(w, "Request body must contain a single JSON object", http.StatusBadRequest)
		return false
	}
	return true
}

// writeServiceError maps domain errors to status codes. Anything unrecognised is logged and
// reported as a generic failure.
func writeServiceError(w http.ResponseWriter, err error, failure string) {
	switch {
	case inventory.IsValidation(err), orders.IsValidation(err), errors.Is(err, backup.ErrInvalidBundle):
		writeError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, inventory.ErrNotFound), errors.Is(err, orders.ErrNotFound):
		writeError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, inventory.ErrConflict), errors.Is(err, orders.ErrConflict),
		errors.Is(err, orders.ErrInvalidTransition), errors.Is(err, orders.ErrCancelWindowClosed):
		writeError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, payment.ErrInvalidSignature):
		writeError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, inventory.ErrBusy), errors.Is(err, orders.ErrBusy):
		writeError(w, "Server is busy, please retry", http.StatusServiceUnavailable)
	default:
		slog.Error(failure, "error", err)
		writeError(w, failure, http.StatusInternalServerError)
	}
}
