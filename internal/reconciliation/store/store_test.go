package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/boqrecon/internal/matching"
	"github.com/MrJamesThe3rd/boqrecon/internal/reconciliation"
	"github.com/MrJamesThe3rd/boqrecon/internal/reconciliation/store"
)

var matchCols = []string{
	"id", "run_id", "invoice_item_id", "estimate_item_id", "match_type", "match_score",
	"quantity_estimated", "quantity_actual", "quantity_variance", "quantity_variance_pct",
	"carbon_estimated_kg", "carbon_actual_kg", "carbon_variance_kg", "cost_variance_cents",
	"is_override", "override_reason", "created_at", "updated_at",
}

var runCols = []string{
	"id", "user_id", "project_id", "name", "status",
	"total_invoice_items", "matched_items", "unmatched_items",
	"total_variance_quantity", "total_variance_carbon_kg", "total_variance_cost_cents",
	"notes", "last_error", "failed_at", "version", "created_at", "updated_at",
}

func newStore(t *testing.T) (*store.Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return store.New(db), mock
}

func TestStore_GetRun(t *testing.T) {
	s, mock := newStore(t)
	id := uuid.New()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM reconciliation_runs WHERE id").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(runCols).AddRow(
			id.String(), "user-1", nil, "Level 2 slab", "completed",
			int64(5), int64(4), int64(1),
			"167.5", "-21030", int64(50000),
			nil, nil, nil, int64(4), now, now,
		))

	run, err := s.GetRun(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, id, run.ID)
	assert.Equal(t, reconciliation.StatusCompleted, run.Status)
	assert.Equal(t, 4, run.MatchedItems)
	assert.True(t, decimal.RequireFromString("167.5").Equal(run.TotalVarianceQuantity))
	assert.Equal(t, int64(50000), run.TotalVarianceCostCents)
	assert.Nil(t, run.ProjectID)
	assert.Equal(t, int64(4), run.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetRun_NotFound(t *testing.T) {
	s, mock := newStore(t)
	id := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM reconciliation_runs WHERE id").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(runCols))

	_, err := s.GetRun(context.Background(), id)
	require.ErrorIs(t, err, reconciliation.ErrNotFound)
}

func TestStore_DeleteRun_NotFound(t *testing.T) {
	s, mock := newStore(t)
	id := uuid.New()

	mock.ExpectExec("DELETE FROM reconciliation_runs").
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.DeleteRun(context.Background(), id)
	require.ErrorIs(t, err, reconciliation.ErrNotFound)
}

func TestStore_ClaimRun(t *testing.T) {
	s, mock := newStore(t)
	id := uuid.New()

	mock.ExpectQuery("UPDATE reconciliation_runs").
		WithArgs(id, int64(3), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(4)))

	version, err := s.ClaimRun(context.Background(), id, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(4), version)
}

func TestStore_ClaimRun_Conflict(t *testing.T) {
	s, mock := newStore(t)
	id := uuid.New()

	mock.ExpectQuery("UPDATE reconciliation_runs").
		WithArgs(id, int64(3), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"version"}))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := s.ClaimRun(context.Background(), id, 3)
	require.ErrorIs(t, err, reconciliation.ErrVersionConflict)
}

func TestStore_FailRun_Missing(t *testing.T) {
	s, mock := newStore(t)
	id := uuid.New()

	mock.ExpectExec("UPDATE reconciliation_runs").
		WithArgs(id, int64(2), sqlmock.AnyArg(), "boom").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	err := s.FailRun(context.Background(), id, 2, "boom")
	require.ErrorIs(t, err, reconciliation.ErrNotFound)
}

func TestStore_AddInvoiceItems(t *testing.T) {
	s, mock := newStore(t)
	runID := uuid.New()

	items := []*reconciliation.InvoiceItem{
		{LineNumber: 1, RawDescription: "Concrete 25MPa", NormalizedDescription: "concrete 25mpa", Quantity: decimal.NewFromInt(120)},
		{LineNumber: 2, RawDescription: "Rebar", NormalizedDescription: "rebar", Quantity: decimal.NewFromInt(4)},
	}

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(runID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec("INSERT INTO invoice_items").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery("UPDATE reconciliation_runs").
		WithArgs(runID, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"total_invoice_items"}).AddRow(int64(2)))
	mock.ExpectCommit()

	total, err := s.AddInvoiceItems(context.Background(), runID, items)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	for _, it := range items {
		assert.NotEqual(t, uuid.Nil, it.ID)
		assert.Equal(t, runID, it.RunID)
	}

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_AddInvoiceItems_RunMissing(t *testing.T) {
	s, mock := newStore(t)
	runID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(runID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	_, err := s.AddInvoiceItems(context.Background(), runID, []*reconciliation.InvoiceItem{{RawDescription: "x"}})
	require.ErrorIs(t, err, reconciliation.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WriteBack(t *testing.T) {
	s, mock := newStore(t)
	runID := uuid.New()
	estID := uuid.New()

	matches := []*reconciliation.Match{
		{
			ID:             uuid.New(),
			RunID:          runID,
			InvoiceItemID:  uuid.New(),
			EstimateItemID: &estID,
			MatchType:      matching.TypeExact,
			Score:          matching.ScoreExact,
		},
		{
			ID:            uuid.New(),
			RunID:         runID,
			InvoiceItemID: uuid.New(),
			MatchType:     matching.TypeUnmatched,
			Score:         matching.ScoreNone,
		},
	}

	run := &reconciliation.Run{ID: runID, Status: reconciliation.StatusCompleted, MatchedItems: 1, UnmatchedItems: 1}
	updated := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM reconciliation_matches").
		WithArgs(runID).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO reconciliation_matches").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery("UPDATE reconciliation_runs").
		WillReturnRows(sqlmock.NewRows([]string{"version", "updated_at"}).AddRow(int64(3), updated))
	mock.ExpectCommit()

	wtx, err := s.BeginWriteBack(context.Background(), runID)
	require.NoError(t, err)

	defer wtx.Rollback()

	require.NoError(t, wtx.ReplaceMatches(context.Background(), runID, matches))
	require.NoError(t, wtx.UpdateRun(context.Background(), run, 2))
	require.NoError(t, wtx.Commit())

	assert.Equal(t, int64(3), run.Version)
	assert.Equal(t, updated, run.UpdatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WriteBack_VersionConflict(t *testing.T) {
	s, mock := newStore(t)
	runID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("UPDATE reconciliation_runs").
		WillReturnRows(sqlmock.NewRows([]string{"version", "updated_at"}))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(runID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	wtx, err := s.BeginWriteBack(context.Background(), runID)
	require.NoError(t, err)

	err = wtx.UpdateRun(context.Background(), &reconciliation.Run{ID: runID}, 7)
	require.ErrorIs(t, err, reconciliation.ErrVersionConflict)

	require.NoError(t, wtx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListMatches(t *testing.T) {
	s, mock := newStore(t)
	runID := uuid.New()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM reconciliation_matches m").
		WithArgs(runID).
		WillReturnRows(sqlmock.NewRows(matchCols).AddRow(
			uuid.NewString(), runID.String(), uuid.NewString(), nil, "unmatched", "0",
			nil, nil, nil, nil, nil, nil, nil, nil,
			false, nil, now, now,
		))

	matches, err := s.ListMatches(context.Background(), runID)
	require.NoError(t, err)
	require.Len(t, matches, 1)

	assert.Equal(t, matching.TypeUnmatched, matches[0].MatchType)
	assert.Nil(t, matches[0].EstimateItemID)
	assert.False(t, matches[0].QuantityVariance.Valid)
	assert.Nil(t, matches[0].CostVarianceCents)
}

func TestStore_ListMatches_UnknownType(t *testing.T) {
	s, mock := newStore(t)
	runID := uuid.New()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM reconciliation_matches m").
		WithArgs(runID).
		WillReturnRows(sqlmock.NewRows(matchCols).AddRow(
			uuid.NewString(), runID.String(), uuid.NewString(), nil, "partial", "0",
			nil, nil, nil, nil, nil, nil, nil, nil,
			false, nil, now, now,
		))

	_, err := s.ListMatches(context.Background(), runID)
	require.ErrorContains(t, err, `unknown match type "partial"`)
}
