package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"

	"github.com/MrJamesThe3rd/boqrecon/internal/reconciliation"
)

// batchSize keeps multi-row inserts well below the Postgres bind parameter limit.
const batchSize = 1000

var _ reconciliation.Repository = (*Store)(nil)

type Store struct {
	db *sqlx.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: sqlx.NewDb(db, "pgx")}
}

func (s *Store) CreateRun(ctx context.Context, run *reconciliation.Run, items []*reconciliation.EstimateItem) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning create run tx: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO reconciliation_runs (user_id, project_id, name, status, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, version, created_at, updated_at
	`

	err = tx.QueryRowxContext(ctx, query, run.UserID, run.ProjectID, run.Name, run.Status, run.Notes).
		Scan(&run.ID, &run.Version, &run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	now := time.Now().UTC()

	for start := 0; start < len(items); start += batchSize {
		ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
		ib.InsertInto("estimate_snapshots")
		ib.Cols(estimateColumns...)

		for _, it := range items[start:min(start+batchSize, len(items))] {
			it.ID = uuid.New()
			it.RunID = run.ID
			it.CreatedAt = now

			ib.Values(it.ID, it.RunID, it.OriginalMaterialID, it.Name, it.Category, it.Quantity, it.Unit,
				it.CarbonFactor, it.CarbonTotalKg, it.DataSource, it.Position, it.CreatedAt)
		}

		query, args := ib.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("inserting estimate snapshots: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing create run: %w", err)
	}

	return nil
}

func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (*reconciliation.Run, error) {
	var row runRow

	err := s.db.GetContext(ctx, &row, `SELECT `+runColumns+` FROM reconciliation_runs WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, reconciliation.ErrNotFound
		}

		return nil, fmt.Errorf("getting run: %w", err)
	}

	return row.toRun(), nil
}

func (s *Store) ListRuns(ctx context.Context, userID string) ([]*reconciliation.Run, error) {
	var rows []runRow

	query := `SELECT ` + runColumns + ` FROM reconciliation_runs WHERE user_id = $1 ORDER BY created_at DESC`
	if err := s.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}

	runs := make([]*reconciliation.Run, len(rows))
	for i, r := range rows {
		runs[i] = r.toRun()
	}

	return runs, nil
}

// DeleteRun relies on ON DELETE CASCADE for snapshots, invoice items and matches.
func (s *Store) DeleteRun(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reconciliation_runs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}

	if n == 0 {
		return reconciliation.ErrNotFound
	}

	return nil
}

// AddInvoiceItems inserts the items and sets the run's total to the number of
// invoice items it now holds, all under the run's advisory lock.
func (s *Store) AddInvoiceItems(ctx context.Context, runID uuid.UUID, items []*reconciliation.InvoiceItem) (int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning add invoice items tx: %w", err)
	}
	defer tx.Rollback()

	if err := lockRun(ctx, tx, runID); err != nil {
		return 0, err
	}

	var exists bool
	if err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM reconciliation_runs WHERE id = $1)`, runID); err != nil {
		return 0, fmt.Errorf("checking run: %w", err)
	}

	if !exists {
		return 0, reconciliation.ErrNotFound
	}

	now := time.Now().UTC()

	for start := 0; start < len(items); start += batchSize {
		ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
		ib.InsertInto("invoice_items")
		ib.Cols(invoiceColumns...)

		for _, it := range items[start:min(start+batchSize, len(items))] {
			it.ID = uuid.New()
			it.RunID = runID
			it.CreatedAt = now

			ib.Values(it.ID, it.RunID, it.DocumentID, it.LineNumber, it.RawDescription, it.NormalizedDescription,
				it.Quantity, it.Unit, it.UnitPriceCents, it.TotalPriceCents, it.MaterialCategory,
				it.ConfidenceScore, it.CreatedAt)
		}

		query, args := ib.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("inserting invoice items: %w", err)
		}
	}

	query := `
		UPDATE reconciliation_runs
		SET total_invoice_items = (SELECT COUNT(*) FROM invoice_items WHERE run_id = $1),
			status = $2, version = version + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING total_invoice_items
	`

	var total int
	if err := tx.GetContext(ctx, &total, query, runID, reconciliation.StatusProcessing); err != nil {
		return 0, fmt.Errorf("updating run totals: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing invoice items: %w", err)
	}

	return total, nil
}

func (s *Store) ListInvoiceItems(ctx context.Context, runID uuid.UUID) ([]*reconciliation.InvoiceItem, error) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(invoiceColumns...)
	sb.From("invoice_items")
	sb.Where(sb.Equal("run_id", runID))
	sb.OrderBy("line_number", "seq")

	query, args := sb.Build()

	var rows []invoiceRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("listing invoice items: %w", err)
	}

	items := make([]*reconciliation.InvoiceItem, len(rows))
	for i, r := range rows {
		items[i] = r.toInvoiceItem()
	}

	return items, nil
}

func (s *Store) ListEstimateItems(ctx context.Context, runID uuid.UUID) ([]*reconciliation.EstimateItem, error) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(estimateColumns...)
	sb.From("estimate_snapshots")
	sb.Where(sb.Equal("run_id", runID))
	sb.OrderBy("position")

	query, args := sb.Build()

	var rows []estimateRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("listing estimate items: %w", err)
	}

	items := make([]*reconciliation.EstimateItem, len(rows))
	for i, r := range rows {
		items[i] = r.toEstimateItem()
	}

	return items, nil
}

// ListMatches returns matches in invoice item order.
func (s *Store) ListMatches(ctx context.Context, runID uuid.UUID) ([]*reconciliation.Match, error) {
	query := `SELECT ` + qualified("m", matchColumns) + `
		FROM reconciliation_matches m
		JOIN invoice_items i ON i.id = m.invoice_item_id
		WHERE m.run_id = $1
		ORDER BY i.line_number, i.seq`

	var rows []matchRow
	if err := s.db.SelectContext(ctx, &rows, query, runID); err != nil {
		return nil, fmt.Errorf("listing matches: %w", err)
	}

	matches := make([]*reconciliation.Match, len(rows))
	for i, r := range rows {
		m, err := r.toMatch()
		if err != nil {
			return nil, err
		}

		matches[i] = m
	}

	return matches, nil
}

func (s *Store) ClaimRun(ctx context.Context, id uuid.UUID, version int64) (int64, error) {
	query := `
		UPDATE reconciliation_runs
		SET status = $3, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING version
	`

	var next int64

	err := s.db.GetContext(ctx, &next, query, id, version, reconciliation.StatusProcessing)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, missingOrConflict(ctx, s.db, id)
		}

		return 0, fmt.Errorf("claiming run: %w", err)
	}

	return next, nil
}

func (s *Store) FailRun(ctx context.Context, id uuid.UUID, version int64, reason string) error {
	query := `
		UPDATE reconciliation_runs
		SET status = $3, last_error = $4, failed_at = NOW(), version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2
	`

	res, err := s.db.ExecContext(ctx, query, id, version, reconciliation.StatusFailed, reason)
	if err != nil {
		return fmt.Errorf("failing run: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failing run: %w", err)
	}

	if n == 0 {
		return missingOrConflict(ctx, s.db, id)
	}

	return nil
}

// missingOrConflict explains why a version-checked update touched no rows.
func missingOrConflict(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) error {
	var exists bool
	if err := sqlx.GetContext(ctx, q, &exists, `SELECT EXISTS (SELECT 1 FROM reconciliation_runs WHERE id = $1)`, id); err != nil {
		return fmt.Errorf("checking run: %w", err)
	}

	if !exists {
		return reconciliation.ErrNotFound
	}

	return reconciliation.ErrVersionConflict
}

func runLockKey(runID uuid.UUID) int64 {
	h := fnv.New64a()
	h.Write([]byte("reconciliation_run"))
	h.Write([]byte{0})
	h.Write(runID[:])

	return int64(h.Sum64())
}

func lockRun(ctx context.Context, tx *sqlx.Tx, runID uuid.UUID) error {
	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", runLockKey(runID)); err != nil {
		return fmt.Errorf("acquiring run lock: %w", err)
	}

	return nil
}

func qualified(alias string, cols []string) string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = alias + "." + c
	}

	return strings.Join(out, ", ")
}
