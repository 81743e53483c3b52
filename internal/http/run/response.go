package run

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/boqrecon/internal/reconciliation"
	"github.com/MrJamesThe3rd/boqrecon/internal/variance"
)

type estimateItemRequest struct {
	OriginalMaterialID *string         `json:"original_material_id"`
	Name               string          `json:"name"`
	Category           string          `json:"category"`
	Quantity           decimal.Decimal `json:"quantity"`
	Unit               string          `json:"unit"`
	CarbonFactor       decimal.Decimal `json:"carbon_factor"`
	DataSource         string          `json:"data_source"`
}

type createRunRequest struct {
	Name          string                `json:"name"`
	ProjectID     *string               `json:"project_id"`
	Notes         *string               `json:"notes"`
	EstimateItems []estimateItemRequest `json:"estimate_items"`
}

type runResponse struct {
	ID                     uuid.UUID             `json:"id"`
	ProjectID              *string               `json:"project_id,omitempty"`
	Name                   string                `json:"name"`
	Status                 reconciliation.Status `json:"status"`
	TotalInvoiceItems      int                   `json:"total_invoice_items"`
	MatchedItems           int                   `json:"matched_items"`
	UnmatchedItems         int                   `json:"unmatched_items"`
	TotalVarianceQuantity  decimal.Decimal       `json:"total_variance_quantity"`
	TotalVarianceCarbonKg  decimal.Decimal       `json:"total_variance_carbon_kg"`
	TotalVarianceCostCents int64                 `json:"total_variance_cost_cents"`
	Notes                  *string               `json:"notes,omitempty"`
	LastError              *string               `json:"last_error,omitempty"`
	FailedAt               *time.Time            `json:"failed_at,omitempty"`
	Version                int64                 `json:"version"`
	CreatedAt              time.Time             `json:"created_at"`
	UpdatedAt              time.Time             `json:"updated_at"`
}

type estimateItemResponse struct {
	ID                 uuid.UUID       `json:"id"`
	OriginalMaterialID *string         `json:"original_material_id,omitempty"`
	Name               string          `json:"name"`
	Category           string          `json:"category"`
	Quantity           decimal.Decimal `json:"quantity"`
	Unit               string          `json:"unit"`
	CarbonFactor       decimal.Decimal `json:"carbon_factor"`
	CarbonTotalKg      decimal.Decimal `json:"carbon_total_kg"`
	DataSource         string          `json:"data_source"`
}

func toRunResponse(r *reconciliation.Run) runResponse {
	return runResponse{
		ID:                     r.ID,
		ProjectID:              r.ProjectID,
		Name:                   r.Name,
		Status:                 r.Status,
		TotalInvoiceItems:      r.TotalInvoiceItems,
		MatchedItems:           r.MatchedItems,
		UnmatchedItems:         r.UnmatchedItems,
		TotalVarianceQuantity:  variance.Round2(r.TotalVarianceQuantity),
		TotalVarianceCarbonKg:  variance.Round2(r.TotalVarianceCarbonKg),
		TotalVarianceCostCents: r.TotalVarianceCostCents,
		Notes:                  r.Notes,
		LastError:              r.LastError,
		FailedAt:               r.FailedAt,
		Version:                r.Version,
		CreatedAt:              r.CreatedAt,
		UpdatedAt:              r.UpdatedAt,
	}
}

func toEstimateItemResponse(it *reconciliation.EstimateItem) estimateItemResponse {
	return estimateItemResponse{
		ID:                 it.ID,
		OriginalMaterialID: it.OriginalMaterialID,
		Name:               it.Name,
		Category:           it.Category,
		Quantity:           it.Quantity,
		Unit:               it.Unit,
		CarbonFactor:       it.CarbonFactor,
		CarbonTotalKg:      variance.Round2(it.CarbonTotalKg),
		DataSource:         it.DataSource,
	}
}
