package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/boqrecon/internal/matching"
	"github.com/MrJamesThe3rd/boqrecon/internal/reconciliation"
)

const runColumns = `id, user_id, project_id, name, status,
	total_invoice_items, matched_items, unmatched_items,
	total_variance_quantity, total_variance_carbon_kg, total_variance_cost_cents,
	notes, last_error, failed_at, version, created_at, updated_at`

type runRow struct {
	ID                     uuid.UUID       `db:"id"`
	UserID                 string          `db:"user_id"`
	ProjectID              *string         `db:"project_id"`
	Name                   string          `db:"name"`
	Status                 string          `db:"status"`
	TotalInvoiceItems      int             `db:"total_invoice_items"`
	MatchedItems           int             `db:"matched_items"`
	UnmatchedItems         int             `db:"unmatched_items"`
	TotalVarianceQuantity  decimal.Decimal `db:"total_variance_quantity"`
	TotalVarianceCarbonKg  decimal.Decimal `db:"total_variance_carbon_kg"`
	TotalVarianceCostCents int64           `db:"total_variance_cost_cents"`
	Notes                  *string         `db:"notes"`
	LastError              *string         `db:"last_error"`
	FailedAt               *time.Time      `db:"failed_at"`
	Version                int64           `db:"version"`
	CreatedAt              time.Time       `db:"created_at"`
	UpdatedAt              time.Time       `db:"updated_at"`
}

func (r runRow) toRun() *reconciliation.Run {
	return &reconciliation.Run{
		ID:                     r.ID,
		UserID:                 r.UserID,
		ProjectID:              r.ProjectID,
		Name:                   r.Name,
		Status:                 reconciliation.Status(r.Status),
		TotalInvoiceItems:      r.TotalInvoiceItems,
		MatchedItems:           r.MatchedItems,
		UnmatchedItems:         r.UnmatchedItems,
		TotalVarianceQuantity:  r.TotalVarianceQuantity,
		TotalVarianceCarbonKg:  r.TotalVarianceCarbonKg,
		TotalVarianceCostCents: r.TotalVarianceCostCents,
		Notes:                  r.Notes,
		LastError:              r.LastError,
		FailedAt:               r.FailedAt,
		Version:                r.Version,
		CreatedAt:              r.CreatedAt,
		UpdatedAt:              r.UpdatedAt,
	}
}

var estimateColumns = []string{
	"id", "run_id", "original_material_id", "name", "category", "quantity", "unit",
	"carbon_factor", "carbon_total_kg", "data_source", "position", "created_at",
}

type estimateRow struct {
	ID                 uuid.UUID       `db:"id"`
	RunID              uuid.UUID       `db:"run_id"`
	OriginalMaterialID *string         `db:"original_material_id"`
	Name               string          `db:"name"`
	Category           string          `db:"category"`
	Quantity           decimal.Decimal `db:"quantity"`
	Unit               string          `db:"unit"`
	CarbonFactor       decimal.Decimal `db:"carbon_factor"`
	CarbonTotalKg      decimal.Decimal `db:"carbon_total_kg"`
	DataSource         string          `db:"data_source"`
	Position           int             `db:"position"`
	CreatedAt          time.Time       `db:"created_at"`
}

func (r estimateRow) toEstimateItem() *reconciliation.EstimateItem {
	return &reconciliation.EstimateItem{
		ID:                 r.ID,
		RunID:              r.RunID,
		OriginalMaterialID: r.OriginalMaterialID,
		Name:               r.Name,
		Category:           r.Category,
		Quantity:           r.Quantity,
		Unit:               r.Unit,
		CarbonFactor:       r.CarbonFactor,
		CarbonTotalKg:      r.CarbonTotalKg,
		DataSource:         r.DataSource,
		Position:           r.Position,
		CreatedAt:          r.CreatedAt,
	}
}

var invoiceColumns = []string{
	"id", "run_id", "document_id", "line_number", "raw_description", "normalized_description",
	"quantity", "unit", "unit_price_cents", "total_price_cents", "material_category",
	"confidence_score", "created_at",
}

type invoiceRow struct {
	ID                    uuid.UUID       `db:"id"`
	RunID                 uuid.UUID       `db:"run_id"`
	DocumentID            *string         `db:"document_id"`
	LineNumber            int             `db:"line_number"`
	RawDescription        string          `db:"raw_description"`
	NormalizedDescription string          `db:"normalized_description"`
	Quantity              decimal.Decimal `db:"quantity"`
	Unit                  string          `db:"unit"`
	UnitPriceCents        *int64          `db:"unit_price_cents"`
	TotalPriceCents       *int64          `db:"total_price_cents"`
	MaterialCategory      *string         `db:"material_category"`
	ConfidenceScore       float64         `db:"confidence_score"`
	CreatedAt             time.Time       `db:"created_at"`
}

func (r invoiceRow) toInvoiceItem() *reconciliation.InvoiceItem {
	return &reconciliation.InvoiceItem{
		ID:                    r.ID,
		RunID:                 r.RunID,
		DocumentID:            r.DocumentID,
		LineNumber:            r.LineNumber,
		RawDescription:        r.RawDescription,
		NormalizedDescription: r.NormalizedDescription,
		Quantity:              r.Quantity,
		Unit:                  r.Unit,
		UnitPriceCents:        r.UnitPriceCents,
		TotalPriceCents:       r.TotalPriceCents,
		MaterialCategory:      r.MaterialCategory,
		ConfidenceScore:       r.ConfidenceScore,
		CreatedAt:             r.CreatedAt,
	}
}

var matchColumns = []string{
	"id", "run_id", "invoice_item_id", "estimate_item_id", "match_type", "match_score",
	"quantity_estimated", "quantity_actual", "quantity_variance", "quantity_variance_pct",
	"carbon_estimated_kg", "carbon_actual_kg", "carbon_variance_kg", "cost_variance_cents",
	"is_override", "override_reason", "created_at", "updated_at",
}

type matchRow struct {
	ID                  uuid.UUID           `db:"id"`
	RunID               uuid.UUID           `db:"run_id"`
	InvoiceItemID       uuid.UUID           `db:"invoice_item_id"`
	EstimateItemID      *uuid.UUID          `db:"estimate_item_id"`
	MatchType           string              `db:"match_type"`
	Score               decimal.Decimal     `db:"match_score"`
	QuantityEstimated   decimal.NullDecimal `db:"quantity_estimated"`
	QuantityActual      decimal.NullDecimal `db:"quantity_actual"`
	QuantityVariance    decimal.NullDecimal `db:"quantity_variance"`
	QuantityVariancePct decimal.NullDecimal `db:"quantity_variance_pct"`
	CarbonEstimatedKg   decimal.NullDecimal `db:"carbon_estimated_kg"`
	CarbonActualKg      decimal.NullDecimal `db:"carbon_actual_kg"`
	CarbonVarianceKg    decimal.NullDecimal `db:"carbon_variance_kg"`
	CostVarianceCents   *int64              `db:"cost_variance_cents"`
	IsOverride          bool                `db:"is_override"`
	OverrideReason      *string             `db:"override_reason"`
	CreatedAt           time.Time           `db:"created_at"`
	UpdatedAt           time.Time           `db:"updated_at"`
}

func (r matchRow) toMatch() (*reconciliation.Match, error) {
	typ := matching.Type(r.MatchType)
	if !typ.Valid() {
		return nil, fmt.Errorf("match %s: unknown match type %q", r.ID, r.MatchType)
	}

	return &reconciliation.Match{
		ID:                  r.ID,
		RunID:               r.RunID,
		InvoiceItemID:       r.InvoiceItemID,
		EstimateItemID:      r.EstimateItemID,
		MatchType:           typ,
		Score:               r.Score,
		QuantityEstimated:   r.QuantityEstimated,
		QuantityActual:      r.QuantityActual,
		QuantityVariance:    r.QuantityVariance,
		QuantityVariancePct: r.QuantityVariancePct,
		CarbonEstimatedKg:   r.CarbonEstimatedKg,
		CarbonActualKg:      r.CarbonActualKg,
		CarbonVarianceKg:    r.CarbonVarianceKg,
		CostVarianceCents:   r.CostVarianceCents,
		IsOverride:          r.IsOverride,
		OverrideReason:      r.OverrideReason,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}, nil
}
