package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/MrJamesThe3rd/boqrecon/internal/matching"
	"github.com/MrJamesThe3rd/boqrecon/internal/variance"
)

const failTimeout = 5 * time.Second

type RunOptions struct {
	// PreserveOverrides carries manual overrides from the previous pass into
	// the new one instead of re-matching those invoice items.
	PreserveOverrides bool
}

type MatchSummary struct {
	MatchedCount   int
	UnmatchedCount int
}

// RunMatching matches every invoice item of the run against its estimate
// snapshots, replaces the previous pass's matches and stores the aggregates.
// Running it again on unchanged inputs yields the same pairings.
func (s *Service) RunMatching(ctx context.Context, runID uuid.UUID, opts RunOptions) (*MatchSummary, error) {
	release, err := s.locker.Lock(ctx, runID)
	if err != nil {
		return nil, err
	}
	defer release()

	run, err := s.loadRun(ctx, runID)
	if err != nil {
		return nil, persistence("get run", err)
	}

	if run.TotalInvoiceItems == 0 {
		return nil, ErrNoInvoiceItems
	}

	if err := s.claim(ctx, run); err != nil {
		return nil, persistence("claim run", err)
	}

	start := s.now()
	slog.Info("matching started", "run_id", run.ID, "version", run.Version)

	claimed := run.Version

	totals, err := s.pass(ctx, run, opts)
	if err != nil {
		s.fail(ctx, run.ID, claimed, err)

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}

		return nil, persistence("run matching", err)
	}

	elapsed := s.now().Sub(start)
	s.recorder.PassCompleted(totals.Matched, totals.Unmatched, elapsed)
	slog.Info("matching completed",
		"run_id", run.ID,
		"matched", totals.Matched,
		"unmatched", totals.Unmatched,
		"elapsed", elapsed,
	)

	return &MatchSummary{MatchedCount: totals.Matched, UnmatchedCount: totals.Unmatched}, nil
}

func (s *Service) pass(ctx context.Context, run *Run, opts RunOptions) (variance.Totals, error) {
	var (
		items     []*InvoiceItem
		estimates []*EstimateItem
		overrides map[uuid.UUID]*Match
	)

	err := s.retry(ctx, func() error {
		var err error
		items, err = s.repo.ListInvoiceItems(ctx, run.ID)
		return err
	})
	if err != nil {
		return variance.Totals{}, fmt.Errorf("load invoice items: %w", err)
	}

	err = s.retry(ctx, func() error {
		var err error
		estimates, err = s.repo.ListEstimateItems(ctx, run.ID)
		return err
	})
	if err != nil {
		return variance.Totals{}, fmt.Errorf("load estimate items: %w", err)
	}

	if opts.PreserveOverrides {
		overrides, err = s.loadOverrides(ctx, run.ID)
		if err != nil {
			return variance.Totals{}, fmt.Errorf("load overrides: %w", err)
		}
	}

	matches, err := s.matchAll(ctx, run.ID, items, estimates, overrides)
	if err != nil {
		return variance.Totals{}, err
	}

	totals := totalsOf(matches)

	wtx, err := s.repo.BeginWriteBack(ctx, run.ID)
	if err != nil {
		return variance.Totals{}, fmt.Errorf("begin write back: %w", err)
	}
	defer wtx.Rollback()

	if err := wtx.ReplaceMatches(ctx, run.ID, matches); err != nil {
		return variance.Totals{}, fmt.Errorf("replace matches: %w", err)
	}

	version := run.Version
	run.Status = StatusCompleted
	run.LastError = nil
	run.FailedAt = nil
	applyTotals(run, totals)

	if err := wtx.UpdateRun(ctx, run, version); err != nil {
		return variance.Totals{}, fmt.Errorf("update run: %w", err)
	}

	if err := wtx.Commit(); err != nil {
		return variance.Totals{}, fmt.Errorf("commit write back: %w", err)
	}

	return totals, nil
}

// matchAll builds one match per invoice item. Results are written by index so
// the output order never depends on goroutine scheduling.
func (s *Service) matchAll(
	ctx context.Context,
	runID uuid.UUID,
	items []*InvoiceItem,
	estimates []*EstimateItem,
	overrides map[uuid.UUID]*Match,
) ([]*Match, error) {
	candidates := make([]matching.Candidate, len(estimates))
	byID := make(map[uuid.UUID]*EstimateItem, len(estimates))

	for i, e := range estimates {
		candidates[i] = matching.NewCandidate(e.Name, e.Category)
		byID[e.ID] = e
	}

	matches := make([]*Match, len(items))

	one := func(i int) {
		item := items[i]

		if prev, ok := overrides[item.ID]; ok && prev.EstimateItemID != nil {
			if est, ok := byID[*prev.EstimateItemID]; ok {
				m := newMatch(runID, item, est, matching.TypeManual, matching.ScoreExact)
				m.IsOverride = true
				m.OverrideReason = prev.OverrideReason
				matches[i] = m

				return
			}
		}

		var category string
		if item.MaterialCategory != nil {
			category = *item.MaterialCategory
		}

		res := matching.Match(matching.NewCandidate(item.RawDescription, category), candidates)
		if !res.Matched() {
			matches[i] = newMatch(runID, item, nil, res.Type, res.Score)
			return
		}

		matches[i] = newMatch(runID, item, estimates[res.Index], res.Type, res.Score)
	}

	if len(items) < s.cfg.ParallelThreshold || s.cfg.Workers <= 1 {
		for i := range items {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			one(i)
		}

		return matches, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)

	for i := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			one(i)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return matches, nil
}

func (s *Service) loadRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	var run *Run

	err := s.retry(ctx, func() error {
		var err error
		run, err = s.repo.GetRun(ctx, id)
		return err
	})

	return run, err
}

func (s *Service) loadOverrides(ctx context.Context, runID uuid.UUID) (map[uuid.UUID]*Match, error) {
	var prev []*Match

	err := s.retry(ctx, func() error {
		var err error
		prev, err = s.repo.ListMatches(ctx, runID)
		return err
	})
	if err != nil {
		return nil, err
	}

	overrides := make(map[uuid.UUID]*Match)

	for _, m := range prev {
		if m.IsOverride {
			overrides[m.InvoiceItemID] = m
		}
	}

	return overrides, nil
}

// claim moves the run to processing. A version conflict reloads the run and
// tries again until the retry budget is spent.
func (s *Service) claim(ctx context.Context, run *Run) error {
	return s.retry(ctx, func() error {
		version, err := s.repo.ClaimRun(ctx, run.ID, run.Version)
		if err == nil {
			run.Status = StatusProcessing
			run.Version = version

			return nil
		}

		if !errors.Is(err, ErrVersionConflict) {
			return backoff.Permanent(err)
		}

		fresh, gerr := s.repo.GetRun(ctx, run.ID)
		if gerr != nil {
			return backoff.Permanent(gerr)
		}

		*run = *fresh

		return err
	})
}

// fail marks the run failed unless a newer pass has moved it on. It runs on a
// detached context so cancellation of the pass still leaves a failed run.
func (s *Service) fail(ctx context.Context, runID uuid.UUID, version int64, cause error) {
	reason := failureReason(ctx, cause)
	s.recorder.PassFailed(reason)

	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failTimeout)
	defer cancel()

	err := s.repo.FailRun(fctx, runID, version, cause.Error())

	switch {
	case err == nil:
		slog.Error("matching failed", "run_id", runID, "reason", reason, "error", cause)
	case errors.Is(err, ErrVersionConflict):
		slog.Warn("matching failed after run moved on", "run_id", runID, "error", cause)
	default:
		slog.Error("failed to mark run failed", "run_id", runID, "error", err, "cause", cause)
	}
}

func failureReason(ctx context.Context, err error) string {
	switch {
	case ctx.Err() != nil:
		return "canceled"
	case errors.Is(err, ErrVersionConflict):
		return "conflict"
	}

	return "persistence"
}

// retry runs op with exponential backoff. ErrNotFound is never retried.
func (s *Service) retry(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.cfg.RetryInterval
	b.MaxElapsedTime = 0

	var retries uint64
	if s.cfg.LoadRetries > 0 {
		retries = uint64(s.cfg.LoadRetries)
	}

	return backoff.Retry(func() error {
		err := op()
		if errors.Is(err, ErrNotFound) {
			return backoff.Permanent(err)
		}

		return err
	}, backoff.WithContext(backoff.WithMaxRetries(b, retries), ctx))
}

func newMatch(runID uuid.UUID, item *InvoiceItem, est *EstimateItem, typ matching.Type, score decimal.Decimal) *Match {
	m := &Match{
		ID:             uuid.New(),
		RunID:          runID,
		InvoiceItemID:  item.ID,
		MatchType:      typ,
		Score:          score,
		QuantityActual: decimal.NewNullDecimal(item.Quantity),
	}

	if est == nil {
		return m
	}

	estID := est.ID
	qty, pct := variance.Quantity(est.Quantity, item.Quantity)
	carbonActual := variance.CarbonActual(item.Quantity, est.CarbonFactor)

	m.EstimateItemID = &estID
	m.QuantityEstimated = decimal.NewNullDecimal(est.Quantity)
	m.QuantityVariance = decimal.NewNullDecimal(qty)
	m.QuantityVariancePct = pct
	m.CarbonEstimatedKg = decimal.NewNullDecimal(est.CarbonTotalKg)
	m.CarbonActualKg = decimal.NewNullDecimal(carbonActual)
	m.CarbonVarianceKg = decimal.NewNullDecimal(variance.Carbon(est.CarbonTotalKg, carbonActual))
	m.CostVarianceCents = variance.Cost(est.Quantity, item.Quantity, item.UnitPriceCents, item.TotalPriceCents)

	return m
}

func totalsOf(matches []*Match) variance.Totals {
	var t variance.Totals

	for _, m := range matches {
		t.Add(variance.Item{
			Matched:          m.Matched(),
			QuantityVariance: m.QuantityVariance.Decimal,
			CarbonVariance:   m.CarbonVarianceKg.Decimal,
			CostVariance:     m.CostVarianceCents,
		})
	}

	return t
}

func applyTotals(run *Run, t variance.Totals) {
	run.TotalInvoiceItems = t.Total()
	run.MatchedItems = t.Matched
	run.UnmatchedItems = t.Unmatched
	run.TotalVarianceQuantity = t.Quantity
	run.TotalVarianceCarbonKg = t.CarbonKg
	run.TotalVarianceCostCents = t.CostCents
}
