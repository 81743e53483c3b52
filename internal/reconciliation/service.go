package reconciliation

import (
	"context"
	"runtime"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/boqrecon/internal/matching"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=reconciliation
type Repository interface {
	CreateRun(ctx context.Context, run *Run, items []*EstimateItem) error
	GetRun(ctx context.Context, id uuid.UUID) (*Run, error)
	ListRuns(ctx context.Context, userID string) ([]*Run, error)
	DeleteRun(ctx context.Context, id uuid.UUID) error

	// AddInvoiceItems inserts items, moves the run to processing and returns
	// the number of invoice items now attached to the run.
	AddInvoiceItems(ctx context.Context, runID uuid.UUID, items []*InvoiceItem) (int, error)
	ListInvoiceItems(ctx context.Context, runID uuid.UUID) ([]*InvoiceItem, error)
	ListEstimateItems(ctx context.Context, runID uuid.UUID) ([]*EstimateItem, error)
	ListMatches(ctx context.Context, runID uuid.UUID) ([]*Match, error)

	// ClaimRun moves the run to processing if its version is still version
	// and returns the new version. Returns ErrVersionConflict otherwise.
	ClaimRun(ctx context.Context, id uuid.UUID, version int64) (int64, error)
	// FailRun marks the run failed if its version is still version.
	FailRun(ctx context.Context, id uuid.UUID, version int64, reason string) error

	BeginWriteBack(ctx context.Context, runID uuid.UUID) (WriteBackTx, error)
}

// WriteBackTx makes a matching pass or an override visible atomically.
type WriteBackTx interface {
	ReplaceMatches(ctx context.Context, runID uuid.UUID, matches []*Match) error
	UpdateMatch(ctx context.Context, m *Match) error
	// UpdateRun persists status and aggregates if the stored version is
	// still version, and bumps run.Version. Returns ErrVersionConflict otherwise.
	UpdateRun(ctx context.Context, run *Run, version int64) error
	Commit() error
	Rollback() error
}

// RunLocker serializes matching passes for one run across processes.
type RunLocker interface {
	Lock(ctx context.Context, runID uuid.UUID) (release func(), err error)
}

// Recorder observes matching passes.
type Recorder interface {
	PassCompleted(matched, unmatched int, elapsed time.Duration)
	PassFailed(reason string)
}

// Config tunes the matching pass.
type Config struct {
	// Workers bounds the goroutines matching invoice items of one run.
	Workers int
	// ParallelThreshold is the invoice item count from which matching runs
	// in parallel.
	ParallelThreshold int
	// LoadRetries bounds retries of idempotent reads and of the run claim.
	LoadRetries   int
	RetryInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		Workers:           runtime.GOMAXPROCS(0),
		ParallelThreshold: 500,
		LoadRetries:       3,
		RetryInterval:     100 * time.Millisecond,
	}
}

type Service struct {
	repo     Repository
	locker   RunLocker
	recorder Recorder
	cfg      Config
	validate *validator.Validate
	now      func() time.Time
}

type Option func(*Service)

func WithLocker(l RunLocker) Option {
	return func(s *Service) { s.locker = l }
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

func WithConfig(cfg Config) Option {
	return func(s *Service) { s.cfg = cfg }
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		locker:   noopLocker{},
		recorder: noopRecorder{},
		cfg:      DefaultConfig(),
		validate: newValidator(),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

type EstimateItemParams struct {
	OriginalMaterialID *string
	Name               string          `validate:"required,max=500"`
	Category           string          `validate:"required,max=200"`
	Quantity           decimal.Decimal `validate:"dgt=0"`
	Unit               string          `validate:"required,max=50"`
	CarbonFactor       decimal.Decimal `validate:"dgte=0"`
	DataSource         string          `validate:"required,max=200"`
}

type CreateRunParams struct {
	UserID        string `validate:"required"`
	Name          string `validate:"required,max=200"`
	ProjectID     *string
	Notes         *string
	EstimateItems []EstimateItemParams `validate:"dive"`
}

// CreateRun creates a pending run and snapshots its estimate items. An empty
// estimate list is allowed; every invoice item of such a run ends up unmatched.
func (s *Service) CreateRun(ctx context.Context, params CreateRunParams) (*Run, error) {
	params.UserID = strings.TrimSpace(params.UserID)
	params.Name = strings.TrimSpace(params.Name)

	for i := range params.EstimateItems {
		params.EstimateItems[i].Name = strings.TrimSpace(params.EstimateItems[i].Name)
		params.EstimateItems[i].Category = strings.TrimSpace(params.EstimateItems[i].Category)
		params.EstimateItems[i].Unit = strings.TrimSpace(params.EstimateItems[i].Unit)
		params.EstimateItems[i].DataSource = strings.TrimSpace(params.EstimateItems[i].DataSource)
	}

	if err := s.validate.Struct(params); err != nil {
		return nil, validationError(err)
	}

	run := &Run{
		UserID:    params.UserID,
		ProjectID: params.ProjectID,
		Name:      params.Name,
		Status:    StatusPending,
		Notes:     params.Notes,
	}

	items := make([]*EstimateItem, len(params.EstimateItems))
	for i, p := range params.EstimateItems {
		items[i] = &EstimateItem{
			OriginalMaterialID: p.OriginalMaterialID,
			Name:               p.Name,
			Category:           p.Category,
			Quantity:           p.Quantity,
			Unit:               p.Unit,
			CarbonFactor:       p.CarbonFactor,
			CarbonTotalKg:      p.Quantity.Mul(p.CarbonFactor),
			DataSource:         p.DataSource,
			Position:           i,
		}
	}

	if err := s.repo.CreateRun(ctx, run, items); err != nil {
		return nil, persistence("create run", err)
	}

	return run, nil
}

type InvoiceItemParams struct {
	LineNumber      int             `validate:"gte=0"`
	Description     string          `validate:"required,max=1000"`
	Quantity        decimal.Decimal `validate:"dgte=0"`
	Unit            string          `validate:"required,max=50"`
	UnitPriceCents  *int64          `validate:"omitempty,gte=0"`
	TotalPriceCents *int64          `validate:"omitempty,gte=0"`
	Category        *string
	Confidence      float64 `validate:"gte=0,lte=1"`
}

type addInvoiceItemsInput struct {
	Items []InvoiceItemParams `validate:"min=1,dive"`
}

// AddInvoiceItems attaches invoice items to a run and moves it to processing.
// Items are immutable once stored; corrections are a new import.
func (s *Service) AddInvoiceItems(ctx context.Context, runID uuid.UUID, params []InvoiceItemParams, documentID *string) ([]*InvoiceItem, error) {
	for i := range params {
		params[i].Description = strings.TrimSpace(params[i].Description)
		params[i].Unit = strings.TrimSpace(params[i].Unit)
	}

	if err := s.validate.Struct(addInvoiceItemsInput{Items: params}); err != nil {
		return nil, validationError(err)
	}

	items := make([]*InvoiceItem, len(params))
	for i, p := range params {
		items[i] = &InvoiceItem{
			RunID:                 runID,
			DocumentID:            documentID,
			LineNumber:            p.LineNumber,
			RawDescription:        p.Description,
			NormalizedDescription: matching.Normalize(p.Description),
			Quantity:              p.Quantity,
			Unit:                  p.Unit,
			UnitPriceCents:        p.UnitPriceCents,
			TotalPriceCents:       p.TotalPriceCents,
			MaterialCategory:      p.Category,
			ConfidenceScore:       p.Confidence,
		}
	}

	if _, err := s.repo.AddInvoiceItems(ctx, runID, items); err != nil {
		return nil, persistence("add invoice items", err)
	}

	return items, nil
}

func (s *Service) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	run, err := s.repo.GetRun(ctx, id)
	if err != nil {
		return nil, persistence("get run", err)
	}

	return run, nil
}

func (s *Service) ListRuns(ctx context.Context, userID string) ([]*Run, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, &ValidationError{Field: "UserID", Message: "is required"}
	}

	runs, err := s.repo.ListRuns(ctx, userID)
	if err != nil {
		return nil, persistence("list runs", err)
	}

	return runs, nil
}

// DeleteRun removes the run together with its snapshots, invoice items and
// matches.
func (s *Service) DeleteRun(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteRun(ctx, id); err != nil {
		return persistence("delete run", err)
	}

	return nil
}

func (s *Service) ListMatches(ctx context.Context, runID uuid.UUID) ([]*Match, error) {
	matches, err := s.repo.ListMatches(ctx, runID)
	if err != nil {
		return nil, persistence("list matches", err)
	}

	return matches, nil
}

func (s *Service) ListInvoiceItems(ctx context.Context, runID uuid.UUID) ([]*InvoiceItem, error) {
	items, err := s.repo.ListInvoiceItems(ctx, runID)
	if err != nil {
		return nil, persistence("list invoice items", err)
	}

	return items, nil
}

func (s *Service) ListEstimateItems(ctx context.Context, runID uuid.UUID) ([]*EstimateItem, error) {
	items, err := s.repo.ListEstimateItems(ctx, runID)
	if err != nil {
		return nil, persistence("list estimate items", err)
	}

	return items, nil
}

type noopLocker struct{}

func (noopLocker) Lock(context.Context, uuid.UUID) (func(), error) {
	return func() {}, nil
}

type noopRecorder struct{}

func (noopRecorder) PassCompleted(int, int, time.Duration) {}
func (noopRecorder) PassFailed(string)                     {}
