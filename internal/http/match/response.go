package match

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/boqrecon/internal/matching"
	"github.com/MrJamesThe3rd/boqrecon/internal/reconciliation"
	"github.com/MrJamesThe3rd/boqrecon/internal/variance"
)

type matchResponse struct {
	ID                  uuid.UUID           `json:"id"`
	InvoiceItemID       uuid.UUID           `json:"invoice_item_id"`
	EstimateItemID      *uuid.UUID          `json:"estimate_item_id"`
	MatchType           matching.Type       `json:"match_type"`
	Score               decimal.Decimal     `json:"match_score"`
	QuantityEstimated   decimal.NullDecimal `json:"quantity_estimated"`
	QuantityActual      decimal.NullDecimal `json:"quantity_actual"`
	QuantityVariance    decimal.NullDecimal `json:"quantity_variance"`
	QuantityVariancePct decimal.NullDecimal `json:"quantity_variance_pct"`
	CarbonEstimatedKg   decimal.NullDecimal `json:"carbon_estimated_kg"`
	CarbonActualKg      decimal.NullDecimal `json:"carbon_actual_kg"`
	CarbonVarianceKg    decimal.NullDecimal `json:"carbon_variance_kg"`
	CostVarianceCents   *int64              `json:"cost_variance_cents"`
	IsOverride          bool                `json:"is_override"`
	OverrideReason      *string             `json:"override_reason,omitempty"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

func toMatchResponse(m *reconciliation.Match) matchResponse {
	return matchResponse{
		ID:                  m.ID,
		InvoiceItemID:       m.InvoiceItemID,
		EstimateItemID:      m.EstimateItemID,
		MatchType:           m.MatchType,
		Score:               m.Score,
		QuantityEstimated:   round2(m.QuantityEstimated),
		QuantityActual:      round2(m.QuantityActual),
		QuantityVariance:    round2(m.QuantityVariance),
		QuantityVariancePct: round2(m.QuantityVariancePct),
		CarbonEstimatedKg:   round2(m.CarbonEstimatedKg),
		CarbonActualKg:      round2(m.CarbonActualKg),
		CarbonVarianceKg:    round2(m.CarbonVarianceKg),
		CostVarianceCents:   m.CostVarianceCents,
		IsOverride:          m.IsOverride,
		OverrideReason:      m.OverrideReason,
		UpdatedAt:           m.UpdatedAt,
	}
}

func round2(d decimal.NullDecimal) decimal.NullDecimal {
	if !d.Valid {
		return d
	}

	return decimal.NewNullDecimal(variance.Round2(d.Decimal))
}
