// Package matching pairs an invoice line with the best estimate item using
// deterministic string and category heuristics.
package matching

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Type describes how an invoice item was paired with an estimate item.
type Type string

const (
	TypeExact     Type = "exact"
	TypeFuzzy     Type = "fuzzy"
	TypeCategory  Type = "category"
	TypeManual    Type = "manual"
	TypeUnmatched Type = "unmatched"
)

// Valid reports whether t is a known match type.
func (t Type) Valid() bool {
	switch t {
	case TypeExact, TypeFuzzy, TypeCategory, TypeManual, TypeUnmatched:
		return true
	}

	return false
}

var (
	ScoreExact    = decimal.NewFromInt(1)
	ScoreFuzzy    = decimal.New(7, -1)
	ScoreCategory = decimal.New(5, -1)
	ScoreNone     = decimal.Zero
)

// Normalize lower-cases and trims a description or name for comparison.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Candidate is one side of a comparison. Use NewCandidate so both fields are
// normalized.
type Candidate struct {
	Text     string
	Category string
}

func NewCandidate(text, category string) Candidate {
	return Candidate{
		Text:     Normalize(text),
		Category: Normalize(category),
	}
}

// Result is the outcome of matching one invoice item. Index points into the
// estimate slice passed to Match and is -1 when nothing matched.
type Result struct {
	Index int
	Type  Type
	Score decimal.Decimal
}

func (r Result) Matched() bool {
	return r.Index >= 0
}

// Unmatched is the result for an invoice item with no usable candidate.
func Unmatched() Result {
	return Result{Index: -1, Type: TypeUnmatched, Score: ScoreNone}
}

// Match selects the best estimate for an invoice item. Candidates are
// evaluated in slice order and a later candidate only replaces the current
// best when it scores strictly higher, so ties go to the first one seen. An
// exact match ends the search immediately.
//
// Matching is not exclusive: the same estimate may be returned for many
// invoice items.
func Match(invoice Candidate, estimates []Candidate) Result {
	best := Unmatched()

	for i, est := range estimates {
		if est.Text != "" && invoice.Text == est.Text {
			return Result{Index: i, Type: TypeExact, Score: ScoreExact}
		}

		if contains(invoice.Text, est.Text) && ScoreFuzzy.GreaterThan(best.Score) {
			best = Result{Index: i, Type: TypeFuzzy, Score: ScoreFuzzy}
		}

		if invoice.Category != "" && invoice.Category == est.Category && ScoreCategory.GreaterThan(best.Score) {
			best = Result{Index: i, Type: TypeCategory, Score: ScoreCategory}
		}
	}

	return best
}

// contains reports whether either string contains the other. Empty strings
// never match.
func contains(a, b string) bool {
	if a == "" || b == "" {
		return false
	}

	return strings.Contains(a, b) || strings.Contains(b, a)
}
