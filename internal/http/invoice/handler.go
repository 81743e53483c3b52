package invoice

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/boqrecon/internal/http/respond"
	"github.com/MrJamesThe3rd/boqrecon/internal/importer"
	"github.com/MrJamesThe3rd/boqrecon/internal/reconciliation"
)

const maxUploadSize = 10 << 20

type Service interface {
	AddInvoiceItems(ctx context.Context, runID uuid.UUID, params []reconciliation.InvoiceItemParams, documentID *string) ([]*reconciliation.InvoiceItem, error)
	ListInvoiceItems(ctx context.Context, runID uuid.UUID) ([]*reconciliation.InvoiceItem, error)
}

type Importer interface {
	Import(format importer.Format, r io.Reader) ([]reconciliation.InvoiceItemParams, error)
}

type Parser interface {
	Parse(ctx context.Context, text, fileType string) ([]reconciliation.InvoiceItemParams, error)
}

type Handler struct {
	svc      Service
	importer Importer
	parser   Parser
}

// NewHandler wires the invoice endpoints. parser may be nil, in which case
// the parse endpoint reports itself unavailable.
func NewHandler(svc Service, importer Importer, parser Parser) *Handler {
	return &Handler{
		svc:      svc,
		importer: importer,
		parser:   parser,
	}
}

func (h *Handler) Routes(r chi.Router) {
	jsonOnly := middleware.AllowContentType("application/json")

	r.Get("/", h.list)
	r.With(jsonOnly).Post("/", h.add)
	r.Post("/import", h.importFile)
	r.With(jsonOnly).Post("/parse", h.parse)
}

func (h *Handler) add(w http.ResponseWriter, r *http.Request) {
	runID, ok := runID(w, r)
	if !ok {
		return
	}

	var req addItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Message(w, http.StatusBadRequest, err.Error())
		return
	}

	params := make([]reconciliation.InvoiceItemParams, len(req.Items))
	for i, it := range req.Items {
		params[i] = it.toParams()
	}

	h.store(w, r, runID, params, req.DocumentID)
}

func (h *Handler) importFile(w http.ResponseWriter, r *http.Request) {
	runID, ok := runID(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respond.Message(w, http.StatusBadRequest, "failed to parse form: "+err.Error())
		return
	}

	format := importer.Format(r.FormValue("format"))
	if format == "" {
		format = importer.FormatCSV
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		respond.Message(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	params, err := h.importer.Import(format, file)
	if err != nil {
		respond.Message(w, http.StatusBadRequest, err.Error())
		return
	}

	var documentID *string
	if d := r.FormValue("document_id"); d != "" {
		documentID = &d
	}

	h.store(w, r, runID, params, documentID)
}

func (h *Handler) parse(w http.ResponseWriter, r *http.Request) {
	if h.parser == nil {
		respond.Message(w, http.StatusServiceUnavailable, "document parser is not configured")
		return
	}

	runID, ok := runID(w, r)
	if !ok {
		return
	}

	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Message(w, http.StatusBadRequest, err.Error())
		return
	}

	params, err := h.parser.Parse(r.Context(), req.Text, req.FileType)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	h.store(w, r, runID, params, req.DocumentID)
}

func (h *Handler) store(w http.ResponseWriter, r *http.Request, runID uuid.UUID, params []reconciliation.InvoiceItemParams, documentID *string) {
	items, err := h.svc.AddInvoiceItems(r.Context(), runID, params, documentID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toImportResponse(items))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	runID, ok := runID(w, r)
	if !ok {
		return
	}

	items, err := h.svc.ListInvoiceItems(r.Context(), runID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toItemResponses(items))
}

func runID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Message(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}

	return id, true
}
