package reconciliation

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/boqrecon/internal/matching"
)

// Status represents the lifecycle state of a reconciliation run.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Run is one reconciliation exercise scoping a set of estimate snapshots,
// invoice items and the matches between them.
type Run struct {
	ID        uuid.UUID
	UserID    string
	ProjectID *string
	Name      string
	Status    Status

	TotalInvoiceItems int
	MatchedItems      int
	UnmatchedItems    int

	TotalVarianceQuantity  decimal.Decimal // Sum of absolute per-item variances
	TotalVarianceCarbonKg  decimal.Decimal // Signed
	TotalVarianceCostCents int64           // Signed

	Notes     *string
	LastError *string
	FailedAt  *time.Time
	Version   int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EstimateItem is a frozen copy of a planned bill-of-quantities line. It is
// never updated after the run is created.
type EstimateItem struct {
	ID                 uuid.UUID
	RunID              uuid.UUID
	OriginalMaterialID *string
	Name               string
	Category           string
	Quantity           decimal.Decimal
	Unit               string
	CarbonFactor       decimal.Decimal // kg CO2e per unit
	CarbonTotalKg      decimal.Decimal
	DataSource         string
	Position           int
	CreatedAt          time.Time
}

// InvoiceItem is one procured line item attached to a run.
type InvoiceItem struct {
	ID                    uuid.UUID
	RunID                 uuid.UUID
	DocumentID            *string
	LineNumber            int
	RawDescription        string
	NormalizedDescription string
	Quantity              decimal.Decimal
	Unit                  string
	UnitPriceCents        *int64
	TotalPriceCents       *int64
	MaterialCategory      *string
	ConfidenceScore       float64
	CreatedAt             time.Time
}

// Match pairs an invoice item with at most one estimate item. EstimateItemID
// is nil exactly when MatchType is unmatched.
type Match struct {
	ID             uuid.UUID
	RunID          uuid.UUID
	InvoiceItemID  uuid.UUID
	EstimateItemID *uuid.UUID
	MatchType      matching.Type
	Score          decimal.Decimal

	QuantityEstimated   decimal.NullDecimal
	QuantityActual      decimal.NullDecimal
	QuantityVariance    decimal.NullDecimal
	QuantityVariancePct decimal.NullDecimal
	CarbonEstimatedKg   decimal.NullDecimal
	CarbonActualKg      decimal.NullDecimal
	CarbonVarianceKg    decimal.NullDecimal
	CostVarianceCents   *int64

	IsOverride     bool
	OverrideReason *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Matched reports whether the invoice item was paired with an estimate item.
func (m *Match) Matched() bool {
	return m.EstimateItemID != nil
}
