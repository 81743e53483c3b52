package reconciliation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/boqrecon/internal/matching"
)

type OverrideParams struct {
	EstimateItemID uuid.UUID `validate:"required"`
	Reason         string    `validate:"max=1000"`
}

// OverrideMatch re-points a match at another estimate item of the same run.
// Variances and the run's aggregates are recomputed; the run status is left
// unchanged. It holds the same run lock as RunMatching and is refused while a
// pass is in flight or invoice items are waiting for one.
func (s *Service) OverrideMatch(ctx context.Context, runID, matchID uuid.UUID, params OverrideParams) (*Match, error) {
	params.Reason = strings.TrimSpace(params.Reason)

	if err := s.validate.Struct(params); err != nil {
		return nil, validationError(err)
	}

	release, err := s.locker.Lock(ctx, runID)
	if err != nil {
		return nil, err
	}
	defer release()

	m, err := s.overrideMatch(ctx, runID, matchID, params)
	if err != nil {
		return nil, persistence("override match", err)
	}

	slog.Info("match overridden", "run_id", runID, "match_id", matchID, "estimate_item_id", params.EstimateItemID)

	return m, nil
}

func (s *Service) overrideMatch(ctx context.Context, runID, matchID uuid.UUID, params OverrideParams) (*Match, error) {
	run, err := s.repo.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	if run.Status == StatusProcessing {
		return nil, ErrRunBusy
	}

	matches, err := s.repo.ListMatches(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}

	pos := -1

	for i, m := range matches {
		if m.ID == matchID {
			pos = i
			break
		}
	}

	if pos < 0 {
		return nil, ErrNotFound
	}

	if len(matches) != run.TotalInvoiceItems {
		return nil, ErrMatchesStale
	}

	estimates, err := s.repo.ListEstimateItems(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("list estimate items: %w", err)
	}

	est := findEstimate(estimates, params.EstimateItemID)
	if est == nil {
		return nil, &ValidationError{Field: "EstimateItemID", Message: "does not belong to run"}
	}

	items, err := s.repo.ListInvoiceItems(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("list invoice items: %w", err)
	}

	item := findInvoiceItem(items, matches[pos].InvoiceItemID)
	if item == nil {
		return nil, fmt.Errorf("invoice item %s of match %s: %w", matches[pos].InvoiceItemID, matchID, ErrNotFound)
	}

	updated := newMatch(runID, item, est, matching.TypeManual, matching.ScoreExact)
	updated.ID = matchID
	updated.CreatedAt = matches[pos].CreatedAt
	updated.IsOverride = true

	if params.Reason != "" {
		updated.OverrideReason = &params.Reason
	}

	matches[pos] = updated

	wtx, err := s.repo.BeginWriteBack(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("begin write back: %w", err)
	}
	defer wtx.Rollback()

	if err := wtx.UpdateMatch(ctx, updated); err != nil {
		return nil, fmt.Errorf("update match: %w", err)
	}

	version := run.Version
	total := run.TotalInvoiceItems
	applyTotals(run, totalsOf(matches))
	run.TotalInvoiceItems = total

	if err := wtx.UpdateRun(ctx, run, version); err != nil {
		return nil, fmt.Errorf("update run: %w", err)
	}

	if err := wtx.Commit(); err != nil {
		return nil, fmt.Errorf("commit override: %w", err)
	}

	return updated, nil
}

func findEstimate(items []*EstimateItem, id uuid.UUID) *EstimateItem {
	for _, e := range items {
		if e.ID == id {
			return e
		}
	}

	return nil
}

func findInvoiceItem(items []*InvoiceItem, id uuid.UUID) *InvoiceItem {
	for _, it := range items {
		if it.ID == id {
			return it
		}
	}

	return nil
}
