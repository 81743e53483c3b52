package respond_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/boqrecon/internal/http/respond"
	"github.com/MrJamesThe3rd/boqrecon/internal/parser"
	"github.com/MrJamesThe3rd/boqrecon/internal/reconciliation"
)

func TestError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{
			name:   "validation",
			err:    &reconciliation.ValidationError{Field: "Name", Message: "is required"},
			status: http.StatusBadRequest,
			body:   "is required",
		},
		{name: "not found", err: fmt.Errorf("get run: %w", reconciliation.ErrNotFound), status: http.StatusNotFound, body: "not found"},
		{name: "no invoice items", err: reconciliation.ErrNoInvoiceItems, status: http.StatusBadRequest, body: "run has no invoice items"},
		{name: "version conflict", err: reconciliation.ErrVersionConflict, status: http.StatusConflict, body: "modified concurrently"},
		{name: "busy", err: reconciliation.ErrRunBusy, status: http.StatusConflict, body: "already in progress"},
		{name: "stale matches", err: reconciliation.ErrMatchesStale, status: http.StatusConflict, body: "without matches"},
		{name: "rate limited", err: parser.ErrRateLimited, status: http.StatusTooManyRequests, body: "rate limit"},
		{
			name:   "persistence",
			err:    &reconciliation.PersistenceError{Op: "run matching", Err: errors.New("connection reset")},
			status: http.StatusInternalServerError,
			body:   "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respond.Error(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body map[string]string
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Contains(t, body["error"], tt.body)
		})
	}
}

func TestError_ValidationField(t *testing.T) {
	rec := httptest.NewRecorder()
	respond.Error(rec, httptest.NewRequest(http.MethodPost, "/", nil),
		&reconciliation.ValidationError{Field: "Items[0].Quantity", Message: "must be at least 0"})

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "Items[0].Quantity", body["field"])
}
