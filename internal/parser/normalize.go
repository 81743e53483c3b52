package parser

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/boqrecon/internal/reconciliation"
)

const (
	defaultUnit       = "each"
	defaultConfidence = 0.5
)

var hundred = decimal.NewFromInt(100)

// Normalize converts loosely typed parser output into invoice item params.
// Line numbers default to the 1-based position, units to "each", prices are
// converted from dollars to cents and confidence is clamped to [0, 1].
// Lines without a description are dropped.
func Normalize(raw []map[string]any) []reconciliation.InvoiceItemParams {
	items := make([]reconciliation.InvoiceItemParams, 0, len(raw))

	for idx, r := range raw {
		desc := strings.TrimSpace(stringOf(r["description"]))
		if desc == "" {
			continue
		}

		p := reconciliation.InvoiceItemParams{
			LineNumber:  idx + 1,
			Description: desc,
			Quantity:    decimal.Zero,
			Unit:        strings.TrimSpace(stringOf(r["unit"])),
			Confidence:  defaultConfidence,
		}

		if n, ok := numberOf(r["lineNumber"]); ok {
			p.LineNumber = int(n.IntPart())
		}

		if q, ok := numberOf(r["quantity"]); ok {
			p.Quantity = q
		} else if q, err := decimal.NewFromString(strings.TrimSpace(stringOf(r["quantity"]))); err == nil {
			p.Quantity = q
		}

		if p.Unit == "" {
			p.Unit = defaultUnit
		}

		p.UnitPriceCents = cents(r["unitPrice"])
		p.TotalPriceCents = cents(r["totalPrice"])

		if c := stringOf(r["category"]); c != "" {
			p.Category = &c
		}

		if c, ok := numberOf(r["confidence"]); ok {
			p.Confidence = min(1, max(0, c.InexactFloat64()))
		}

		items = append(items, p)
	}

	return items
}

func numberOf(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	}

	return decimal.Zero, false
}

func stringOf(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case json.Number:
		return s.String()
	}

	return fmt.Sprint(v)
}

func cents(v any) *int64 {
	d, ok := numberOf(v)
	if !ok {
		return nil
	}

	c := d.Mul(hundred).Round(0).IntPart()

	return &c
}
