// Package variance computes quantity, carbon and cost deltas between estimated
// and invoiced line items. All arithmetic is fixed-point decimal; rounding only
// happens at presentation boundaries via Round2 and the cent conversion in Cost.
package variance

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Quantity returns actual - estimated and the variance as a percentage of the
// estimate. The percentage is not computable (Valid == false) when the
// estimate is not positive.
func Quantity(estimated, actual decimal.Decimal) (decimal.Decimal, decimal.NullDecimal) {
	v := actual.Sub(estimated)

	if !estimated.IsPositive() {
		return v, decimal.NullDecimal{}
	}

	return v, decimal.NewNullDecimal(v.Div(estimated).Mul(hundred))
}

// CarbonActual converts an invoiced quantity into carbon mass using the
// estimate item's emission factor.
func CarbonActual(actualQuantity, factor decimal.Decimal) decimal.Decimal {
	return actualQuantity.Mul(factor)
}

// Carbon returns actual - estimated carbon mass.
func Carbon(estimatedKg, actualKg decimal.Decimal) decimal.Decimal {
	return actualKg.Sub(estimatedKg)
}

// Cost returns the invoiced total minus the cost of the estimated quantity at
// the invoice's unit price, in cents. Missing unit or total prices are implied
// from each other and the invoiced quantity. Returns nil when the invoice
// carries no pricing at all.
func Cost(estimatedQuantity, actualQuantity decimal.Decimal, unitPriceCents, totalPriceCents *int64) *int64 {
	var unit, total decimal.Decimal

	switch {
	case unitPriceCents != nil && totalPriceCents != nil:
		unit = decimal.NewFromInt(*unitPriceCents)
		total = decimal.NewFromInt(*totalPriceCents)
	case unitPriceCents != nil:
		unit = decimal.NewFromInt(*unitPriceCents)
		total = actualQuantity.Mul(unit)
	case totalPriceCents != nil:
		if !actualQuantity.IsPositive() {
			return nil
		}

		total = decimal.NewFromInt(*totalPriceCents)
		unit = total.Div(actualQuantity)
	default:
		return nil
	}

	cents := total.Sub(estimatedQuantity.Mul(unit)).Round(0).IntPart()

	return &cents
}

// Round2 rounds a value to two decimal places for display.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Item is the per-match input to Totals.
type Item struct {
	Matched          bool
	QuantityVariance decimal.Decimal
	CarbonVariance   decimal.Decimal
	CostVariance     *int64
}

// Totals accumulates run-level aggregates. Quantity variance is summed as
// absolute values so over- and under-delivery do not cancel out; carbon and
// cost are summed signed so favourable variances stay visible.
type Totals struct {
	Matched   int
	Unmatched int
	Quantity  decimal.Decimal
	CarbonKg  decimal.Decimal
	CostCents int64
}

func (t *Totals) Add(it Item) {
	if !it.Matched {
		t.Unmatched++
		return
	}

	t.Matched++
	t.Quantity = t.Quantity.Add(it.QuantityVariance.Abs())
	t.CarbonKg = t.CarbonKg.Add(it.CarbonVariance)

	if it.CostVariance != nil {
		t.CostCents += *it.CostVariance
	}
}

// Total is the number of items added.
func (t *Totals) Total() int {
	return t.Matched + t.Unmatched
}
