package invoice

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/boqrecon/internal/reconciliation"
)

type itemRequest struct {
	LineNumber      int             `json:"line_number"`
	Description     string          `json:"description"`
	Quantity        decimal.Decimal `json:"quantity"`
	Unit            string          `json:"unit"`
	UnitPriceCents  *int64          `json:"unit_price_cents"`
	TotalPriceCents *int64          `json:"total_price_cents"`
	Category        *string         `json:"category"`
	Confidence      *float64        `json:"confidence"`
}

// toParams treats a missing confidence as fully trusted, since the caller
// typed the line in.
func (it itemRequest) toParams() reconciliation.InvoiceItemParams {
	confidence := 1.0
	if it.Confidence != nil {
		confidence = *it.Confidence
	}

	return reconciliation.InvoiceItemParams{
		LineNumber:      it.LineNumber,
		Description:     it.Description,
		Quantity:        it.Quantity,
		Unit:            it.Unit,
		UnitPriceCents:  it.UnitPriceCents,
		TotalPriceCents: it.TotalPriceCents,
		Category:        it.Category,
		Confidence:      confidence,
	}
}

type addItemsRequest struct {
	DocumentID *string       `json:"document_id"`
	Items      []itemRequest `json:"items"`
}

type parseRequest struct {
	Text       string  `json:"text"`
	FileType   string  `json:"file_type"`
	DocumentID *string `json:"document_id"`
}

type itemResponse struct {
	ID                    uuid.UUID       `json:"id"`
	DocumentID            *string         `json:"document_id,omitempty"`
	LineNumber            int             `json:"line_number"`
	RawDescription        string          `json:"raw_description"`
	NormalizedDescription string          `json:"normalized_description"`
	Quantity              decimal.Decimal `json:"quantity"`
	Unit                  string          `json:"unit"`
	UnitPriceCents        *int64          `json:"unit_price_cents,omitempty"`
	TotalPriceCents       *int64          `json:"total_price_cents,omitempty"`
	MaterialCategory      *string         `json:"material_category,omitempty"`
	ConfidenceScore       float64         `json:"confidence_score"`
	CreatedAt             time.Time       `json:"created_at"`
}

type importResponse struct {
	Imported int            `json:"imported"`
	Items    []itemResponse `json:"items"`
}

func toImportResponse(items []*reconciliation.InvoiceItem) importResponse {
	return importResponse{
		Imported: len(items),
		Items:    toItemResponses(items),
	}
}

func toItemResponses(items []*reconciliation.InvoiceItem) []itemResponse {
	resp := make([]itemResponse, 0, len(items))
	for _, it := range items {
		resp = append(resp, itemResponse{
			ID:                    it.ID,
			DocumentID:            it.DocumentID,
			LineNumber:            it.LineNumber,
			RawDescription:        it.RawDescription,
			NormalizedDescription: it.NormalizedDescription,
			Quantity:              it.Quantity,
			Unit:                  it.Unit,
			UnitPriceCents:        it.UnitPriceCents,
			TotalPriceCents:       it.TotalPriceCents,
			MaterialCategory:      it.MaterialCategory,
			ConfidenceScore:       it.ConfidenceScore,
			CreatedAt:             it.CreatedAt,
		})
	}

	return resp
}
