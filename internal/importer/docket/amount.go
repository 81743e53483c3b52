package docket

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// parseNumber reads a quantity or dollar value. With decimalComma set the
// European form applies ("1.234,56"); otherwise commas are thousand separators
// ("1,234.56"). A leading currency symbol is ignored.
func parseNumber(s string, decimalComma bool) (decimal.Decimal, error) {
	clean := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))

	if decimalComma {
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	} else {
		clean = strings.ReplaceAll(clean, ",", "")
	}

	return decimal.NewFromString(clean)
}

// parseCents converts a dollar cell to whole cents. An empty cell yields nil.
func parseCents(s string, decimalComma bool) (*int64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	d, err := parseNumber(s, decimalComma)
	if err != nil {
		return nil, err
	}

	cents := d.Mul(hundred).Round(0).IntPart()

	return &cents, nil
}
