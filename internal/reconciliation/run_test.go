package reconciliation_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/boqrecon/internal/matching"
	"github.com/MrJamesThe3rd/boqrecon/internal/reconciliation"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testConfig() reconciliation.Config {
	return reconciliation.Config{
		Workers:           1,
		ParallelThreshold: 1000,
		LoadRetries:       2,
		RetryInterval:     time.Millisecond,
	}
}

type fixture struct {
	repo *reconciliation.MockRepository
	wtx  *reconciliation.MockWriteBackTx
	svc  *reconciliation.Service
}

func newFixture(t *testing.T, opts ...reconciliation.Option) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	repo := reconciliation.NewMockRepository(ctrl)
	wtx := reconciliation.NewMockWriteBackTx(ctrl)
	opts = append([]reconciliation.Option{reconciliation.WithConfig(testConfig())}, opts...)

	return &fixture{
		repo: repo,
		wtx:  wtx,
		svc:  reconciliation.NewService(repo, opts...),
	}
}

type scenario struct {
	run       *reconciliation.Run
	estimates []*reconciliation.EstimateItem
	items     []*reconciliation.InvoiceItem
}

func estimate(runID uuid.UUID, pos int, name, category, qty, factor string) *reconciliation.EstimateItem {
	return &reconciliation.EstimateItem{
		ID:            uuid.New(),
		RunID:         runID,
		Name:          name,
		Category:      category,
		Quantity:      dec(qty),
		Unit:          "m3",
		CarbonFactor:  dec(factor),
		CarbonTotalKg: dec(qty).Mul(dec(factor)),
		Position:      pos,
	}
}

func invoice(runID uuid.UUID, line int, desc, qty string, category *string) *reconciliation.InvoiceItem {
	return &reconciliation.InvoiceItem{
		ID:                    uuid.New(),
		RunID:                 runID,
		LineNumber:            line,
		RawDescription:        desc,
		NormalizedDescription: matching.Normalize(desc),
		Quantity:              dec(qty),
		MaterialCategory:      category,
		ConfidenceScore:       0.9,
	}
}

// newScenario returns a run whose invoice items exercise every match type.
func newScenario() *scenario {
	runID := uuid.New()

	concrete := estimate(runID, 0, "Concrete 25MPa", "Concrete", "100", "300")
	steel := estimate(runID, 1, "Reinforcing bar N12", "Steel", "50", "2")
	stud := estimate(runID, 2, "Timber stud 90x45", "Timber", "0", "5")

	exact := invoice(runID, 1, "Concrete 25MPa", "120", nil)
	exact.UnitPriceCents = new(int64(2500))
	exact.TotalPriceCents = new(int64(300000))

	items := []*reconciliation.InvoiceItem{
		exact,
		invoice(runID, 2, "Ready mix concrete 25MPa batch", "10", nil),
		invoice(runID, 3, "Galvanised lintel", "5", new("steel")),
		invoice(runID, 4, "Specialty Glazing Film", "3", new("Glazing")),
		invoice(runID, 5, "Timber stud 90x45", "12", nil),
	}

	return &scenario{
		run: &reconciliation.Run{
			ID:                runID,
			UserID:            "user-1",
			Name:              "Level 2 slab",
			Status:            reconciliation.StatusProcessing,
			TotalInvoiceItems: len(items),
			Version:           1,
		},
		estimates: []*reconciliation.EstimateItem{concrete, steel, stud},
		items:     items,
	}
}

func (f *fixture) expectLoad(sc *scenario) {
	run := *sc.run

	f.repo.EXPECT().GetRun(gomock.Any(), sc.run.ID).Return(&run, nil)
	f.repo.EXPECT().ClaimRun(gomock.Any(), sc.run.ID, run.Version).Return(run.Version+1, nil)
	f.repo.EXPECT().ListInvoiceItems(gomock.Any(), sc.run.ID).Return(sc.items, nil)
	f.repo.EXPECT().ListEstimateItems(gomock.Any(), sc.run.ID).Return(sc.estimates, nil)
}

// expectWriteBack captures the matches and run written by a successful pass.
func (f *fixture) expectWriteBack(sc *scenario, matches *[]*reconciliation.Match, run *reconciliation.Run) {
	f.repo.EXPECT().BeginWriteBack(gomock.Any(), sc.run.ID).Return(f.wtx, nil)
	f.wtx.EXPECT().ReplaceMatches(gomock.Any(), sc.run.ID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, ms []*reconciliation.Match) error {
			*matches = ms
			return nil
		})
	f.wtx.EXPECT().UpdateRun(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r *reconciliation.Run, _ int64) error {
			*run = *r
			return nil
		})
	f.wtx.EXPECT().Commit().Return(nil)
	f.wtx.EXPECT().Rollback().Return(nil)
}

func TestService_RunMatching_Scenarios(t *testing.T) {
	ctrl := gomock.NewController(t)
	recorder := reconciliation.NewMockRecorder(ctrl)

	f := newFixture(t, reconciliation.WithRecorder(recorder))
	sc := newScenario()

	var (
		matches []*reconciliation.Match
		written reconciliation.Run
	)

	f.expectLoad(sc)
	f.expectWriteBack(sc, &matches, &written)
	recorder.EXPECT().PassCompleted(4, 1, gomock.Any())

	summary, err := f.svc.RunMatching(context.Background(), sc.run.ID, reconciliation.RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, 4, summary.MatchedCount)
	assert.Equal(t, 1, summary.UnmatchedCount)

	require.Len(t, matches, len(sc.items))

	for i, m := range matches {
		assert.Equal(t, sc.items[i].ID, m.InvoiceItemID, "matches follow invoice item order")
		assert.Equal(t, sc.run.ID, m.RunID)
		assert.NotEqual(t, uuid.Nil, m.ID)
		assert.Equal(t, m.MatchType == matching.TypeUnmatched, m.EstimateItemID == nil)
	}

	t.Run("Exact", func(t *testing.T) {
		m := matches[0]

		assert.Equal(t, matching.TypeExact, m.MatchType)
		assert.Equal(t, "1", m.Score.String())
		assert.Equal(t, sc.estimates[0].ID, *m.EstimateItemID)
		assert.Equal(t, "20", m.QuantityVariance.Decimal.String())
		assert.Equal(t, "20", m.QuantityVariancePct.Decimal.String())
		assert.Equal(t, "30000", m.CarbonEstimatedKg.Decimal.String())
		assert.Equal(t, "36000", m.CarbonActualKg.Decimal.String())
		assert.Equal(t, "6000", m.CarbonVarianceKg.Decimal.String())
		require.NotNil(t, m.CostVarianceCents)
		assert.Equal(t, int64(50000), *m.CostVarianceCents)
	})

	t.Run("Fuzzy", func(t *testing.T) {
		m := matches[1]

		assert.Equal(t, matching.TypeFuzzy, m.MatchType)
		assert.Equal(t, "0.7", m.Score.String())
		assert.Equal(t, sc.estimates[0].ID, *m.EstimateItemID)
		assert.Nil(t, m.CostVarianceCents)
	})

	t.Run("Category", func(t *testing.T) {
		m := matches[2]

		assert.Equal(t, matching.TypeCategory, m.MatchType)
		assert.Equal(t, "0.5", m.Score.String())
		assert.Equal(t, sc.estimates[1].ID, *m.EstimateItemID)
	})

	t.Run("Unmatched", func(t *testing.T) {
		m := matches[3]

		assert.Equal(t, matching.TypeUnmatched, m.MatchType)
		assert.True(t, m.Score.IsZero())
		assert.Nil(t, m.EstimateItemID)
		assert.False(t, m.QuantityEstimated.Valid)
		assert.False(t, m.QuantityVariance.Valid)
		assert.False(t, m.QuantityVariancePct.Valid)
		assert.False(t, m.CarbonEstimatedKg.Valid)
		assert.False(t, m.CarbonActualKg.Valid)
		assert.False(t, m.CarbonVarianceKg.Valid)
		assert.Nil(t, m.CostVarianceCents)
	})

	t.Run("ZeroEstimateQuantity", func(t *testing.T) {
		m := matches[4]

		assert.Equal(t, matching.TypeExact, m.MatchType)
		assert.Equal(t, "12", m.QuantityVariance.Decimal.String())
		assert.False(t, m.QuantityVariancePct.Valid)
	})

	t.Run("Aggregates", func(t *testing.T) {
		assert.Equal(t, reconciliation.StatusCompleted, written.Status)
		assert.Equal(t, 5, written.TotalInvoiceItems)
		assert.Equal(t, 4, written.MatchedItems)
		assert.Equal(t, 1, written.UnmatchedItems)
		assert.Equal(t, "167", written.TotalVarianceQuantity.String())
		assert.Equal(t, "-21030", written.TotalVarianceCarbonKg.String())
		assert.Equal(t, int64(50000), written.TotalVarianceCostCents)
		assert.Nil(t, written.LastError)
	})
}

func TestService_RunMatching_ReplaceSemantics(t *testing.T) {
	f := newFixture(t)
	sc := newScenario()

	var (
		first, second []*reconciliation.Match
		written       reconciliation.Run
	)

	f.expectLoad(sc)
	f.expectWriteBack(sc, &first, &written)

	s1, err := f.svc.RunMatching(context.Background(), sc.run.ID, reconciliation.RunOptions{})
	require.NoError(t, err)

	sc.run.Status = reconciliation.StatusCompleted
	sc.run.Version = 3

	f.expectLoad(sc)
	f.expectWriteBack(sc, &second, &written)

	s2, err := f.svc.RunMatching(context.Background(), sc.run.ID, reconciliation.RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, s1, s2)
	require.Len(t, second, len(first))

	for i := range first {
		assert.Equal(t, first[i].InvoiceItemID, second[i].InvoiceItemID)
		assert.Equal(t, first[i].EstimateItemID, second[i].EstimateItemID)
		assert.Equal(t, first[i].MatchType, second[i].MatchType)
		assert.NotEqual(t, first[i].ID, second[i].ID)
	}
}

func TestService_RunMatching_ParallelMatchesSequential(t *testing.T) {
	sc := newScenario()

	for i := range 300 {
		sc.items = append(sc.items, invoice(sc.run.ID, 10+i, fmt.Sprintf("Concrete 25MPa pour %d", i), "1", nil))
	}

	sc.run.TotalInvoiceItems = len(sc.items)

	run := func(cfg reconciliation.Config) []*reconciliation.Match {
		f := newFixture(t, reconciliation.WithConfig(cfg))

		var (
			matches []*reconciliation.Match
			written reconciliation.Run
		)

		f.expectLoad(sc)
		f.expectWriteBack(sc, &matches, &written)

		_, err := f.svc.RunMatching(context.Background(), sc.run.ID, reconciliation.RunOptions{})
		require.NoError(t, err)

		return matches
	}

	sequential := run(testConfig())

	parallel := testConfig()
	parallel.Workers = 8
	parallel.ParallelThreshold = 1

	got := run(parallel)

	require.Len(t, got, len(sequential))

	for i := range sequential {
		assert.Equal(t, sequential[i].InvoiceItemID, got[i].InvoiceItemID)
		assert.Equal(t, sequential[i].EstimateItemID, got[i].EstimateItemID)
		assert.Equal(t, sequential[i].MatchType, got[i].MatchType)
	}
}

func TestService_RunMatching_NotFound(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()

	f.repo.EXPECT().GetRun(gomock.Any(), id).Return(nil, reconciliation.ErrNotFound)

	_, err := f.svc.RunMatching(context.Background(), id, reconciliation.RunOptions{})
	require.ErrorIs(t, err, reconciliation.ErrNotFound)
	assert.True(t, reconciliation.IsValidation(err))
}

func TestService_RunMatching_NoInvoiceItems(t *testing.T) {
	f := newFixture(t)
	sc := newScenario()
	sc.run.TotalInvoiceItems = 0
	sc.run.Status = reconciliation.StatusPending

	f.repo.EXPECT().GetRun(gomock.Any(), sc.run.ID).Return(sc.run, nil)

	_, err := f.svc.RunMatching(context.Background(), sc.run.ID, reconciliation.RunOptions{})
	require.ErrorIs(t, err, reconciliation.ErrNoInvoiceItems)
}

func TestService_RunMatching_RunBusy(t *testing.T) {
	ctrl := gomock.NewController(t)
	locker := reconciliation.NewMockRunLocker(ctrl)

	f := newFixture(t, reconciliation.WithLocker(locker))
	id := uuid.New()

	locker.EXPECT().Lock(gomock.Any(), id).Return(nil, reconciliation.ErrRunBusy)

	_, err := f.svc.RunMatching(context.Background(), id, reconciliation.RunOptions{})
	require.ErrorIs(t, err, reconciliation.ErrRunBusy)
}

func TestService_RunMatching_ReleasesLock(t *testing.T) {
	ctrl := gomock.NewController(t)
	locker := reconciliation.NewMockRunLocker(ctrl)

	f := newFixture(t, reconciliation.WithLocker(locker))
	sc := newScenario()

	released := false

	locker.EXPECT().Lock(gomock.Any(), sc.run.ID).Return(func() { released = true }, nil)

	var (
		matches []*reconciliation.Match
		written reconciliation.Run
	)

	f.expectLoad(sc)
	f.expectWriteBack(sc, &matches, &written)

	_, err := f.svc.RunMatching(context.Background(), sc.run.ID, reconciliation.RunOptions{})
	require.NoError(t, err)
	assert.True(t, released)
}

func TestService_RunMatching_ClaimRetriesOnConflict(t *testing.T) {
	f := newFixture(t)
	sc := newScenario()

	stale := *sc.run
	fresh := *sc.run
	fresh.Version = 5

	gomock.InOrder(
		f.repo.EXPECT().GetRun(gomock.Any(), sc.run.ID).Return(&stale, nil),
		f.repo.EXPECT().ClaimRun(gomock.Any(), sc.run.ID, int64(1)).Return(int64(0), reconciliation.ErrVersionConflict),
		f.repo.EXPECT().GetRun(gomock.Any(), sc.run.ID).Return(&fresh, nil),
		f.repo.EXPECT().ClaimRun(gomock.Any(), sc.run.ID, int64(5)).Return(int64(6), nil),
	)
	f.repo.EXPECT().ListInvoiceItems(gomock.Any(), sc.run.ID).Return(sc.items, nil)
	f.repo.EXPECT().ListEstimateItems(gomock.Any(), sc.run.ID).Return(sc.estimates, nil)
	f.repo.EXPECT().BeginWriteBack(gomock.Any(), sc.run.ID).Return(f.wtx, nil)
	f.wtx.EXPECT().ReplaceMatches(gomock.Any(), sc.run.ID, gomock.Any()).Return(nil)
	f.wtx.EXPECT().UpdateRun(gomock.Any(), gomock.Any(), int64(6)).Return(nil)
	f.wtx.EXPECT().Commit().Return(nil)
	f.wtx.EXPECT().Rollback().Return(nil)

	_, err := f.svc.RunMatching(context.Background(), sc.run.ID, reconciliation.RunOptions{})
	require.NoError(t, err)
}

func TestService_RunMatching_ClaimConflictExhausted(t *testing.T) {
	f := newFixture(t)
	sc := newScenario()

	f.repo.EXPECT().GetRun(gomock.Any(), sc.run.ID).Return(sc.run, nil).Times(4)
	f.repo.EXPECT().ClaimRun(gomock.Any(), sc.run.ID, gomock.Any()).
		Return(int64(0), reconciliation.ErrVersionConflict).Times(3)

	_, err := f.svc.RunMatching(context.Background(), sc.run.ID, reconciliation.RunOptions{})
	require.ErrorIs(t, err, reconciliation.ErrVersionConflict)
}

func TestService_RunMatching_RetriesTransientLoad(t *testing.T) {
	f := newFixture(t)
	sc := newScenario()
	run := *sc.run

	f.repo.EXPECT().GetRun(gomock.Any(), sc.run.ID).Return(&run, nil)
	f.repo.EXPECT().ClaimRun(gomock.Any(), sc.run.ID, int64(1)).Return(int64(2), nil)
	gomock.InOrder(
		f.repo.EXPECT().ListInvoiceItems(gomock.Any(), sc.run.ID).Return(nil, errors.New("connection reset")),
		f.repo.EXPECT().ListInvoiceItems(gomock.Any(), sc.run.ID).Return(sc.items, nil),
	)
	f.repo.EXPECT().ListEstimateItems(gomock.Any(), sc.run.ID).Return(sc.estimates, nil)

	var (
		matches []*reconciliation.Match
		written reconciliation.Run
	)

	f.expectWriteBack(sc, &matches, &written)

	_, err := f.svc.RunMatching(context.Background(), sc.run.ID, reconciliation.RunOptions{})
	require.NoError(t, err)
	assert.Len(t, matches, len(sc.items))
}

func TestService_RunMatching_WriteBackFailureMarksFailed(t *testing.T) {
	ctrl := gomock.NewController(t)
	recorder := reconciliation.NewMockRecorder(ctrl)

	f := newFixture(t, reconciliation.WithRecorder(recorder))
	sc := newScenario()
	dbErr := errors.New("disk full")

	f.expectLoad(sc)
	f.repo.EXPECT().BeginWriteBack(gomock.Any(), sc.run.ID).Return(f.wtx, nil)
	f.wtx.EXPECT().ReplaceMatches(gomock.Any(), sc.run.ID, gomock.Any()).Return(dbErr)
	f.wtx.EXPECT().Rollback().Return(nil)
	f.repo.EXPECT().FailRun(gomock.Any(), sc.run.ID, int64(2), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, _ int64, reason string) error {
			assert.Contains(t, reason, "disk full")
			return nil
		})
	recorder.EXPECT().PassFailed("persistence")

	_, err := f.svc.RunMatching(context.Background(), sc.run.ID, reconciliation.RunOptions{})
	require.ErrorIs(t, err, dbErr)

	var pe *reconciliation.PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.False(t, reconciliation.IsValidation(err))
}

func TestService_RunMatching_ConflictOnWriteBack(t *testing.T) {
	f := newFixture(t)
	sc := newScenario()

	f.expectLoad(sc)
	f.repo.EXPECT().BeginWriteBack(gomock.Any(), sc.run.ID).Return(f.wtx, nil)
	f.wtx.EXPECT().ReplaceMatches(gomock.Any(), sc.run.ID, gomock.Any()).Return(nil)
	f.wtx.EXPECT().UpdateRun(gomock.Any(), gomock.Any(), int64(2)).Return(reconciliation.ErrVersionConflict)
	f.wtx.EXPECT().Rollback().Return(nil)
	f.repo.EXPECT().FailRun(gomock.Any(), sc.run.ID, int64(2), gomock.Any()).Return(reconciliation.ErrVersionConflict)

	_, err := f.svc.RunMatching(context.Background(), sc.run.ID, reconciliation.RunOptions{})
	require.ErrorIs(t, err, reconciliation.ErrVersionConflict)
}

func TestService_RunMatching_CancellationLeavesRunFailed(t *testing.T) {
	f := newFixture(t)
	sc := newScenario()
	run := *sc.run

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f.repo.EXPECT().GetRun(gomock.Any(), sc.run.ID).Return(&run, nil)
	f.repo.EXPECT().ClaimRun(gomock.Any(), sc.run.ID, int64(1)).Return(int64(2), nil)
	f.repo.EXPECT().ListInvoiceItems(gomock.Any(), sc.run.ID).
		DoAndReturn(func(context.Context, uuid.UUID) ([]*reconciliation.InvoiceItem, error) {
			cancel()
			return sc.items, nil
		})
	f.repo.EXPECT().ListEstimateItems(gomock.Any(), sc.run.ID).Return(sc.estimates, nil).AnyTimes()
	f.repo.EXPECT().FailRun(gomock.Any(), sc.run.ID, int64(2), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ uuid.UUID, _ int64, _ string) error {
			assert.NoError(t, ctx.Err())
			return nil
		})

	_, err := f.svc.RunMatching(ctx, sc.run.ID, reconciliation.RunOptions{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestService_RunMatching_PreserveOverrides(t *testing.T) {
	f := newFixture(t)
	sc := newScenario()

	// The glazing film was manually pointed at the concrete estimate.
	glazing := sc.items[3]
	concreteID := sc.estimates[0].ID
	reason := "supplier mislabelled"

	prior := []*reconciliation.Match{{
		ID:             uuid.New(),
		RunID:          sc.run.ID,
		InvoiceItemID:  glazing.ID,
		EstimateItemID: &concreteID,
		MatchType:      matching.TypeManual,
		Score:          matching.ScoreExact,
		IsOverride:     true,
		OverrideReason: &reason,
	}}

	var (
		matches []*reconciliation.Match
		written reconciliation.Run
	)

	f.expectLoad(sc)
	f.repo.EXPECT().ListMatches(gomock.Any(), sc.run.ID).Return(prior, nil)
	f.expectWriteBack(sc, &matches, &written)

	summary, err := f.svc.RunMatching(context.Background(), sc.run.ID, reconciliation.RunOptions{PreserveOverrides: true})
	require.NoError(t, err)
	assert.Equal(t, 5, summary.MatchedCount)
	assert.Equal(t, 0, summary.UnmatchedCount)

	m := matches[3]
	assert.Equal(t, matching.TypeManual, m.MatchType)
	assert.True(t, m.IsOverride)
	assert.Equal(t, &reason, m.OverrideReason)
	assert.Equal(t, concreteID, *m.EstimateItemID)
	assert.Equal(t, "-97", m.QuantityVariance.Decimal.String())
}

func TestService_RunMatching_OverridesLostByDefault(t *testing.T) {
	f := newFixture(t)
	sc := newScenario()

	var (
		matches []*reconciliation.Match
		written reconciliation.Run
	)

	f.expectLoad(sc)
	f.expectWriteBack(sc, &matches, &written)

	_, err := f.svc.RunMatching(context.Background(), sc.run.ID, reconciliation.RunOptions{})
	require.NoError(t, err)

	for _, m := range matches {
		assert.False(t, m.IsOverride)
	}
}
