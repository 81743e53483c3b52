package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/MrJamesThe3rd/boqrecon/internal/parser"
	"github.com/MrJamesThe3rd/boqrecon/internal/reconciliation"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, errorResponse{Error: msg})
}

// Error writes err with the status its class maps to. Unclassified errors are
// logged and reported as internal without leaking detail.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	var ve *reconciliation.ValidationError
	if errors.As(err, &ve) {
		JSON(w, http.StatusBadRequest, errorResponse{Error: ve.Message, Field: ve.Field})
		return
	}

	switch {
	case errors.Is(err, reconciliation.ErrNotFound):
		Message(w, http.StatusNotFound, "not found")
	case errors.Is(err, reconciliation.ErrNoInvoiceItems):
		Message(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, reconciliation.ErrVersionConflict), errors.Is(err, reconciliation.ErrRunBusy),
		errors.Is(err, reconciliation.ErrMatchesStale):
		Message(w, http.StatusConflict, err.Error())
	case errors.Is(err, parser.ErrRateLimited):
		Message(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, parser.ErrEmptyText), errors.Is(err, parser.ErrTextTooLong):
		Message(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		Message(w, http.StatusInternalServerError, "internal error")
	}
}
