package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"

	"github.com/MrJamesThe3rd/boqrecon/internal/reconciliation"
)

type writeBackTx struct {
	tx *sqlx.Tx
}

// BeginWriteBack opens a transaction holding the run's advisory lock until
// commit or rollback.
func (s *Store) BeginWriteBack(ctx context.Context, runID uuid.UUID) (reconciliation.WriteBackTx, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning write back tx: %w", err)
	}

	if err := lockRun(ctx, tx, runID); err != nil {
		tx.Rollback()
		return nil, err
	}

	return &writeBackTx{tx: tx}, nil
}

func (w *writeBackTx) Commit() error   { return w.tx.Commit() }
func (w *writeBackTx) Rollback() error { return w.tx.Rollback() }

// ReplaceMatches drops every match of the run and inserts matches in their place.
func (w *writeBackTx) ReplaceMatches(ctx context.Context, runID uuid.UUID, matches []*reconciliation.Match) error {
	if _, err := w.tx.ExecContext(ctx, `DELETE FROM reconciliation_matches WHERE run_id = $1`, runID); err != nil {
		return fmt.Errorf("deleting matches: %w", err)
	}

	now := time.Now().UTC()

	for start := 0; start < len(matches); start += batchSize {
		ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
		ib.InsertInto("reconciliation_matches")
		ib.Cols(matchColumns...)

		for _, m := range matches[start:min(start+batchSize, len(matches))] {
			m.CreatedAt = now
			m.UpdatedAt = now

			ib.Values(m.ID, m.RunID, m.InvoiceItemID, m.EstimateItemID, m.MatchType, m.Score,
				m.QuantityEstimated, m.QuantityActual, m.QuantityVariance, m.QuantityVariancePct,
				m.CarbonEstimatedKg, m.CarbonActualKg, m.CarbonVarianceKg, m.CostVarianceCents,
				m.IsOverride, m.OverrideReason, m.CreatedAt, m.UpdatedAt)
		}

		query, args := ib.Build()
		if _, err := w.tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("inserting matches: %w", err)
		}
	}

	return nil
}

func (w *writeBackTx) UpdateMatch(ctx context.Context, m *reconciliation.Match) error {
	query := `
		UPDATE reconciliation_matches
		SET estimate_item_id = $1, match_type = $2, match_score = $3,
			quantity_estimated = $4, quantity_actual = $5, quantity_variance = $6, quantity_variance_pct = $7,
			carbon_estimated_kg = $8, carbon_actual_kg = $9, carbon_variance_kg = $10, cost_variance_cents = $11,
			is_override = $12, override_reason = $13, updated_at = NOW()
		WHERE id = $14 AND run_id = $15
		RETURNING updated_at
	`

	err := w.tx.GetContext(ctx, &m.UpdatedAt, query,
		m.EstimateItemID, m.MatchType, m.Score,
		m.QuantityEstimated, m.QuantityActual, m.QuantityVariance, m.QuantityVariancePct,
		m.CarbonEstimatedKg, m.CarbonActualKg, m.CarbonVarianceKg, m.CostVarianceCents,
		m.IsOverride, m.OverrideReason,
		m.ID, m.RunID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return reconciliation.ErrNotFound
		}

		return fmt.Errorf("updating match: %w", err)
	}

	return nil
}

// UpdateRun stores status and aggregates when the run is still at version and
// advances run.Version.
func (w *writeBackTx) UpdateRun(ctx context.Context, run *reconciliation.Run, version int64) error {
	query := `
		UPDATE reconciliation_runs
		SET status = $1, total_invoice_items = $2, matched_items = $3, unmatched_items = $4,
			total_variance_quantity = $5, total_variance_carbon_kg = $6, total_variance_cost_cents = $7,
			last_error = $8, failed_at = $9, version = version + 1, updated_at = NOW()
		WHERE id = $10 AND version = $11
		RETURNING version, updated_at
	`

	err := w.tx.QueryRowxContext(ctx, query,
		run.Status, run.TotalInvoiceItems, run.MatchedItems, run.UnmatchedItems,
		run.TotalVarianceQuantity, run.TotalVarianceCarbonKg, run.TotalVarianceCostCents,
		run.LastError, run.FailedAt,
		run.ID, version,
	).Scan(&run.Version, &run.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return missingOrConflict(ctx, w.tx, run.ID)
		}

		return fmt.Errorf("updating run: %w", err)
	}

	return nil
}
