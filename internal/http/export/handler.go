package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/boqrecon/internal/export"
	"github.com/MrJamesThe3rd/boqrecon/internal/http/respond"
	"github.com/MrJamesThe3rd/boqrecon/internal/http/run"
)

type Service interface {
	WriteCSV(ctx context.Context, w io.Writer, runID uuid.UUID) error
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// Routes expects run.RequireOwner to have run.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.csv)
	r.Get("/summary", h.summary)
}

type summaryResponse struct {
	Summary string `json:"summary"`
}

func (h *Handler) csv(w http.ResponseWriter, r *http.Request) {
	rn := run.FromContext(r.Context())

	// Headers go out with the first write, so a failure mid-report can only
	// be logged.
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(rn)))

	if err := h.svc.WriteCSV(r.Context(), w, rn.ID); err != nil {
		slog.Error("failed to write variance report", "run_id", rn.ID, "error", err)
	}
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, summaryResponse{Summary: export.Summary(run.FromContext(r.Context()))})
}
