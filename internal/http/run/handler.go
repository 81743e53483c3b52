package run

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/boqrecon/internal/http/auth"
	"github.com/MrJamesThe3rd/boqrecon/internal/http/respond"
	"github.com/MrJamesThe3rd/boqrecon/internal/reconciliation"
)

type Service interface {
	CreateRun(ctx context.Context, params reconciliation.CreateRunParams) (*reconciliation.Run, error)
	GetRun(ctx context.Context, id uuid.UUID) (*reconciliation.Run, error)
	ListRuns(ctx context.Context, userID string) ([]*reconciliation.Run, error)
	DeleteRun(ctx context.Context, id uuid.UUID) error
	ListEstimateItems(ctx context.Context, runID uuid.UUID) ([]*reconciliation.EstimateItem, error)
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// Routes mounts the collection endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.With(middleware.AllowContentType("application/json")).Post("/", h.create)
	r.Get("/", h.list)
}

// ItemRoutes mounts the endpoints of a single run. They expect RequireOwner
// to have run.
func (h *Handler) ItemRoutes(r chi.Router) {
	r.Get("/", h.get)
	r.Delete("/", h.delete)
	r.Get("/estimate-items", h.listEstimateItems)
}

type runCtxKey struct{}

// RequireOwner loads the run named by the {id} URL parameter and rejects
// callers that do not own it. Runs of other users are reported as missing.
func (h *Handler) RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			respond.Message(w, http.StatusBadRequest, "invalid id")
			return
		}

		run, err := h.svc.GetRun(r.Context(), id)
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		if run.UserID != auth.UserID(r.Context()) {
			respond.Error(w, r, reconciliation.ErrNotFound)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), runCtxKey{}, run)))
	})
}

// FromContext returns the run loaded by RequireOwner.
func FromContext(ctx context.Context) *reconciliation.Run {
	run, _ := ctx.Value(runCtxKey{}).(*reconciliation.Run)
	return run
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Message(w, http.StatusBadRequest, err.Error())
		return
	}

	params := reconciliation.CreateRunParams{
		UserID:        auth.UserID(r.Context()),
		Name:          req.Name,
		ProjectID:     req.ProjectID,
		Notes:         req.Notes,
		EstimateItems: make([]reconciliation.EstimateItemParams, len(req.EstimateItems)),
	}

	for i, it := range req.EstimateItems {
		params.EstimateItems[i] = reconciliation.EstimateItemParams{
			OriginalMaterialID: it.OriginalMaterialID,
			Name:               it.Name,
			Category:           it.Category,
			Quantity:           it.Quantity,
			Unit:               it.Unit,
			CarbonFactor:       it.CarbonFactor,
			DataSource:         it.DataSource,
		}
	}

	run, err := h.svc.CreateRun(r.Context(), params)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toRunResponse(run))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	runs, err := h.svc.ListRuns(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := make([]runResponse, 0, len(runs))
	for _, run := range runs {
		resp = append(resp, toRunResponse(run))
	}

	respond.JSON(w, http.StatusOK, resp)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, toRunResponse(FromContext(r.Context())))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteRun(r.Context(), FromContext(r.Context()).ID); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listEstimateItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListEstimateItems(r.Context(), FromContext(r.Context()).ID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := make([]estimateItemResponse, 0, len(items))
	for _, it := range items {
		resp = append(resp, toEstimateItemResponse(it))
	}

	respond.JSON(w, http.StatusOK, resp)
}
