package match

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/boqrecon/internal/http/respond"
	"github.com/MrJamesThe3rd/boqrecon/internal/reconciliation"
)

type Service interface {
	RunMatching(ctx context.Context, runID uuid.UUID, opts reconciliation.RunOptions) (*reconciliation.MatchSummary, error)
	ListMatches(ctx context.Context, runID uuid.UUID) ([]*reconciliation.Match, error)
	OverrideMatch(ctx context.Context, runID, matchID uuid.UUID, params reconciliation.OverrideParams) (*reconciliation.Match, error)
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// Routes mounts the matching endpoints of one run.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/match", h.run)
	r.Get("/matches", h.list)
	r.With(middleware.AllowContentType("application/json")).Patch("/matches/{matchID}", h.override)
}

type summaryResponse struct {
	MatchedCount   int `json:"matched_count"`
	UnmatchedCount int `json:"unmatched_count"`
}

func (h *Handler) run(w http.ResponseWriter, r *http.Request) {
	runID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Message(w, http.StatusBadRequest, "invalid id")
		return
	}

	var opts reconciliation.RunOptions

	if s := r.URL.Query().Get("preserve_overrides"); s != "" {
		preserve, err := strconv.ParseBool(s)
		if err != nil {
			respond.Message(w, http.StatusBadRequest, "invalid preserve_overrides")
			return
		}

		opts.PreserveOverrides = preserve
	}

	summary, err := h.svc.RunMatching(r.Context(), runID, opts)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, summaryResponse{
		MatchedCount:   summary.MatchedCount,
		UnmatchedCount: summary.UnmatchedCount,
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	runID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Message(w, http.StatusBadRequest, "invalid id")
		return
	}

	matches, err := h.svc.ListMatches(r.Context(), runID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := make([]matchResponse, 0, len(matches))
	for _, m := range matches {
		resp = append(resp, toMatchResponse(m))
	}

	respond.JSON(w, http.StatusOK, resp)
}

type overrideRequest struct {
	EstimateItemID uuid.UUID `json:"estimate_item_id"`
	Reason         string    `json:"reason"`
}

func (h *Handler) override(w http.ResponseWriter, r *http.Request) {
	runID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Message(w, http.StatusBadRequest, "invalid id")
		return
	}

	matchID, err := uuid.Parse(chi.URLParam(r, "matchID"))
	if err != nil {
		respond.Message(w, http.StatusBadRequest, "invalid match id")
		return
	}

	var req overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Message(w, http.StatusBadRequest, err.Error())
		return
	}

	m, err := h.svc.OverrideMatch(r.Context(), runID, matchID, reconciliation.OverrideParams{
		EstimateItemID: req.EstimateItemID,
		Reason:         req.Reason,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toMatchResponse(m))
}
