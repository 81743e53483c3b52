package matching_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/boqrecon/internal/matching"
)

func TestMatch(t *testing.T) {
	concrete := matching.NewCandidate("Concrete 25MPa", "Concrete")
	rebar := matching.NewCandidate("Reinforcing bar N12", "Steel")
	plaster := matching.NewCandidate("Plasterboard 13mm", "Plasterboard")

	type testCase struct {
		name      string
		invoice   matching.Candidate
		estimates []matching.Candidate
		wantIndex int
		wantType  matching.Type
		wantScore string
	}

	tests := []testCase{
		{
			name:      "Exact",
			invoice:   matching.NewCandidate("  concrete 25mpa ", ""),
			estimates: []matching.Candidate{rebar, concrete},
			wantIndex: 1,
			wantType:  matching.TypeExact,
			wantScore: "1",
		},
		{
			name:      "FuzzyEstimateInsideInvoice",
			invoice:   matching.NewCandidate("Ready mix concrete 25MPa batch", ""),
			estimates: []matching.Candidate{concrete},
			wantIndex: 0,
			wantType:  matching.TypeFuzzy,
			wantScore: "0.7",
		},
		{
			name:      "FuzzyInvoiceInsideEstimate",
			invoice:   matching.NewCandidate("plasterboard", ""),
			estimates: []matching.Candidate{concrete, plaster},
			wantIndex: 1,
			wantType:  matching.TypeFuzzy,
			wantScore: "0.7",
		},
		{
			name:      "Category",
			invoice:   matching.NewCandidate("Galvanised lintel", "STEEL"),
			estimates: []matching.Candidate{concrete, rebar},
			wantIndex: 1,
			wantType:  matching.TypeCategory,
			wantScore: "0.5",
		},
		{
			name:      "Unmatched",
			invoice:   matching.NewCandidate("Specialty Glazing Film", "Glazing"),
			estimates: []matching.Candidate{concrete, rebar, plaster},
			wantIndex: -1,
			wantType:  matching.TypeUnmatched,
			wantScore: "0",
		},
		{
			name:      "NoEstimates",
			invoice:   matching.NewCandidate("Concrete 25MPa", "Concrete"),
			wantIndex: -1,
			wantType:  matching.TypeUnmatched,
			wantScore: "0",
		},
		{
			name:      "EmptyCategoriesDoNotMatch",
			invoice:   matching.NewCandidate("Glass", ""),
			estimates: []matching.Candidate{matching.NewCandidate("Timber", "")},
			wantIndex: -1,
			wantType:  matching.TypeUnmatched,
			wantScore: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := matching.Match(tt.invoice, tt.estimates)

			assert.Equal(t, tt.wantIndex, got.Index)
			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.wantScore, got.Score.String())
			assert.Equal(t, tt.wantIndex >= 0, got.Matched())
		})
	}
}

func TestMatch_ExactBeatsEarlierFuzzyAndCategory(t *testing.T) {
	estimates := []matching.Candidate{
		matching.NewCandidate("Concrete", "Concrete"),
		matching.NewCandidate("Steel", "Concrete"),
		matching.NewCandidate("Concrete 25MPa", "Concrete"),
	}

	got := matching.Match(matching.NewCandidate("Concrete 25MPa", "Concrete"), estimates)

	assert.Equal(t, 2, got.Index)
	assert.Equal(t, matching.TypeExact, got.Type)
}

func TestMatch_TiesGoToFirstSeen(t *testing.T) {
	estimates := []matching.Candidate{
		matching.NewCandidate("Other", "Steel"),
		matching.NewCandidate("Concrete", "Concrete"),
		matching.NewCandidate("25MPa", "Concrete"),
	}

	got := matching.Match(matching.NewCandidate("Concrete 25MPa pump", "Concrete"), estimates)

	assert.Equal(t, 1, got.Index)
	assert.Equal(t, matching.TypeFuzzy, got.Type)
}

func TestMatch_FuzzyBeatsEarlierCategory(t *testing.T) {
	estimates := []matching.Candidate{
		matching.NewCandidate("Timber framing", "Steel"),
		matching.NewCandidate("Lintel", "Other"),
	}

	got := matching.Match(matching.NewCandidate("Steel lintel 2.4m", "Steel"), estimates)

	assert.Equal(t, 1, got.Index)
	assert.Equal(t, matching.TypeFuzzy, got.Type)
}

func TestMatch_Deterministic(t *testing.T) {
	estimates := []matching.Candidate{
		matching.NewCandidate("Concrete", "Concrete"),
		matching.NewCandidate("Concrete 25MPa batch", "Concrete"),
		matching.NewCandidate("Steel", "Steel"),
	}
	invoice := matching.NewCandidate("Concrete 25MPa", "Concrete")

	first := matching.Match(invoice, estimates)
	for range 50 {
		assert.Equal(t, first, matching.Match(invoice, estimates))
	}
}

func TestType_Valid(t *testing.T) {
	assert.True(t, matching.TypeManual.Valid())
	assert.False(t, matching.Type("partial").Valid())
}
