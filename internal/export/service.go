// Package export renders a run's matches as a variance report.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/boqrecon/internal/reconciliation"
	"github.com/MrJamesThe3rd/boqrecon/internal/variance"
)

// Source is the read side of reconciliation.Service the report needs.
type Source interface {
	ListMatches(ctx context.Context, runID uuid.UUID) ([]*reconciliation.Match, error)
	ListInvoiceItems(ctx context.Context, runID uuid.UUID) ([]*reconciliation.InvoiceItem, error)
	ListEstimateItems(ctx context.Context, runID uuid.UUID) ([]*reconciliation.EstimateItem, error)
}

// Item is one report line: a match with the items it pairs. Estimate is nil
// for unmatched invoice items.
type Item struct {
	Match    *reconciliation.Match
	Invoice  *reconciliation.InvoiceItem
	Estimate *reconciliation.EstimateItem
}

var header = []string{
	"line", "invoice_description", "estimate_item", "match_type", "score",
	"quantity_estimated", "quantity_actual", "quantity_variance", "quantity_variance_pct",
	"carbon_estimated_kg", "carbon_actual_kg", "carbon_variance_kg", "cost_variance",
	"override_reason",
}

type Service struct {
	src Source
}

func NewService(src Source) *Service {
	return &Service{src: src}
}

// Items joins the run's matches with their invoice and estimate items, in
// invoice line order.
func (s *Service) Items(ctx context.Context, runID uuid.UUID) ([]Item, error) {
	matches, err := s.src.ListMatches(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("listing matches: %w", err)
	}

	invoices, err := s.src.ListInvoiceItems(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("listing invoice items: %w", err)
	}

	estimates, err := s.src.ListEstimateItems(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("listing estimate items: %w", err)
	}

	invoiceByID := make(map[uuid.UUID]*reconciliation.InvoiceItem, len(invoices))
	for _, it := range invoices {
		invoiceByID[it.ID] = it
	}

	estimateByID := make(map[uuid.UUID]*reconciliation.EstimateItem, len(estimates))
	for _, it := range estimates {
		estimateByID[it.ID] = it
	}

	items := make([]Item, 0, len(matches))

	for _, m := range matches {
		item := Item{Match: m, Invoice: invoiceByID[m.InvoiceItemID]}
		if m.EstimateItemID != nil {
			item.Estimate = estimateByID[*m.EstimateItemID]
		}

		items = append(items, item)
	}

	return items, nil
}

// WriteCSV writes the run's variance report to w.
func (s *Service) WriteCSV(ctx context.Context, w io.Writer, runID uuid.UUID) error {
	items, err := s.Items(ctx, runID)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, it := range items {
		if err := cw.Write(record(it)); err != nil {
			return fmt.Errorf("writing record: %w", err)
		}
	}

	cw.Flush()

	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing report: %w", err)
	}

	return nil
}

// WriteFile writes the run's report into dir and returns the file path.
func (s *Service) WriteFile(ctx context.Context, run *reconciliation.Run, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	path := filepath.Join(dir, Filename(run))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	if err := s.WriteCSV(ctx, f, run.ID); err != nil {
		return "", err
	}

	return path, f.Close()
}

// Filename derives a filesystem-safe report name from the run.
// Format: YYYYMMDD_Name.csv
func Filename(run *reconciliation.Run) string {
	safeName := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}

		return '_'
	}, run.Name)

	return fmt.Sprintf("%s_%s.csv", run.CreatedAt.Format("20060102"), safeName)
}

// Summary renders the run's aggregates as a short plain-text digest.
func Summary(run *reconciliation.Run) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s (%s)\n", run.Name, run.Status)
	fmt.Fprintf(&sb, "* Invoice items: %d | Matched: %d | Unmatched: %d\n",
		run.TotalInvoiceItems, run.MatchedItems, run.UnmatchedItems)
	fmt.Fprintf(&sb, "* Quantity variance: %s\n", variance.Round2(run.TotalVarianceQuantity).StringFixed(2))
	fmt.Fprintf(&sb, "* Carbon variance: %s kg\n", variance.Round2(run.TotalVarianceCarbonKg).StringFixed(2))
	fmt.Fprintf(&sb, "* Cost variance: %s\n", cents(&run.TotalVarianceCostCents))

	return sb.String()
}

func record(it Item) []string {
	m := it.Match

	var line, desc, estimate string

	if it.Invoice != nil {
		line = strconv.Itoa(it.Invoice.LineNumber)
		desc = it.Invoice.RawDescription
	}

	if it.Estimate != nil {
		estimate = it.Estimate.Name
	}

	var reason string
	if m.OverrideReason != nil {
		reason = *m.OverrideReason
	}

	return []string{
		line, desc, estimate, string(m.MatchType), m.Score.StringFixed(2),
		nullable(m.QuantityEstimated), nullable(m.QuantityActual),
		nullable(m.QuantityVariance), nullable(m.QuantityVariancePct),
		nullable(m.CarbonEstimatedKg), nullable(m.CarbonActualKg), nullable(m.CarbonVarianceKg),
		cents(m.CostVarianceCents), reason,
	}
}

func nullable(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}

	return variance.Round2(d.Decimal).StringFixed(2)
}

func cents(c *int64) string {
	if c == nil {
		return ""
	}

	return decimal.New(*c, -2).StringFixed(2)
}
