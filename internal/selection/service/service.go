package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	dirmodels "reviewdraw/internal/directory/models"
	"reviewdraw/internal/selection/engine"
	"reviewdraw/internal/selection/metrics"
	"reviewdraw/internal/selection/models"
	"reviewdraw/pkg/domain"
	dErrors "reviewdraw/pkg/domain-errors"
	"reviewdraw/pkg/platform/audit"
	pstrings "reviewdraw/pkg/platform/strings"
	"reviewdraw/pkg/requestcontext"
)

type ExpertRepository interface {
	ListEligible(ctx context.Context, categoryID domain.CategoryID) ([]dirmodels.Expert, error)
}

type CategoryDirectory interface {
	Resolve(ctx context.Context, categoryID domain.CategoryID) (string, bool, error)
}

type RecordStore interface {
	Create(ctx context.Context, rec *models.Record) error
	Get(ctx context.Context, id domain.RecordID) (*models.Record, error)
	Update(ctx context.Context, id domain.RecordID, mutate func(rec *models.Record) error) (*models.Record, error)
	List(ctx context.Context, filter models.Filter) ([]*models.Record, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

const (
	DefaultProjectPrefix = "PDSU"

	DefaultListLimit = 50
	MaxListLimit     = 500
)

// Service orchestrates draws and replacements: it loads pools, runs the
// engine, persists the record and emits best-effort audit events.
type Service struct {
	experts    ExpertRepository
	categories CategoryDirectory
	records    RecordStore
	engine     *engine.Engine

	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
	projectPrefix  string
	serial         func() int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithEngine(e *engine.Engine) Option {
	return func(s *Service) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithProjectPrefix sets the leading segment of generated project numbers.
func WithProjectPrefix(prefix string) Option {
	return func(s *Service) {
		if p := strings.TrimSpace(prefix); p != "" {
			s.projectPrefix = p
		}
	}
}

// WithProjectSerial overrides the four-digit suffix source of project numbers.
func WithProjectSerial(fn func() int) Option {
	return func(s *Service) {
		if fn != nil {
			s.serial = fn
		}
	}
}

func New(experts ExpertRepository, categories CategoryDirectory, records RecordStore, opts ...Option) *Service {
	s := &Service{
		experts:       experts,
		categories:    categories,
		records:       records,
		engine:        engine.New(),
		logger:        slog.Default(),
		tracer:        otel.Tracer("reviewdraw/selection"),
		projectPrefix: DefaultProjectPrefix,
		serial:        func() int { return 1000 + rand.IntN(9000) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProjectInput is the operator-supplied project context of a draw.
type ProjectInput struct {
	Name             string
	OrganizationUnit string
	// ExtractDate is YYYY-MM-DD; empty means the request date.
	ExtractDate string
	Supervisor  string
}

type AllocateCommand struct {
	Project      ProjectInput
	Requirements []models.Requirement
	// Avoid applies to every requirement in addition to its own list.
	Avoid []domain.ExpertKey
}

type ReplaceCommand struct {
	RecordID domain.RecordID
	ExpertID domain.ExpertKey
	Reason   string
}

// Allocate draws every requirement and persists a new clean record. Nothing is
// stored when any requirement cannot be met or ctx ends before the write.
func (s *Service) Allocate(ctx context.Context, cmd AllocateCommand) (*models.Record, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "selection.Allocate",
		trace.WithAttributes(attribute.Int("requirements", len(cmd.Requirements))))
	defer span.End()

	rec, err := s.allocate(ctx, cmd)
	s.metrics.ObserveLatency("allocate", time.Since(start))
	s.metrics.IncAllocation(outcome(err))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "allocate failed")
		s.logger.WarnContext(ctx, "allocation failed",
			"request_id", requestcontext.RequestID(ctx),
			"project_name", cmd.Project.Name,
			"error", err,
		)
		return nil, err
	}
	span.SetAttributes(attribute.String("record_id", rec.ID.String()))
	return rec, nil
}

func (s *Service) allocate(ctx context.Context, cmd AllocateCommand) (*models.Record, error) {
	now := requestcontext.Now(ctx).UTC()
	project, err := s.snapshotProject(ctx, cmd.Project, now)
	if err != nil {
		return nil, err
	}
	reqs := mergeAvoid(cmd.Requirements, cmd.Avoid)
	if err := engine.Validate(reqs); err != nil {
		return nil, translate(err, "invalid requirements")
	}

	names, pool, err := s.loadInputs(ctx, reqs)
	if err != nil {
		return nil, translate(err, "failed to load expert pools")
	}
	alloc, err := s.engine.Allocate(reqs, names, pool, now)
	if err != nil {
		return nil, translate(err, "failed to draw experts")
	}
	if err := ctx.Err(); err != nil {
		return nil, translate(err, "")
	}

	rec := &models.Record{
		ID:        domain.NewRecordID(),
		Project:   project,
		Entries:   alloc.Entries,
		Log:       alloc.Log,
		Status:    models.StatusClean,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
	if err := s.records.Create(ctx, rec); err != nil {
		return nil, translate(err, "failed to save selection record")
	}

	for _, req := range reqs {
		s.metrics.AddExpertsDrawn(string(req.CategoryID), req.Count)
	}
	s.emitAllocation(ctx, rec)
	return rec, nil
}

func (s *Service) snapshotProject(ctx context.Context, in ProjectInput, now time.Time) (models.ProjectSnapshot, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.ProjectSnapshot{}, dErrors.New(dErrors.CodeValidation, "project name is required")
	}
	date := strings.TrimSpace(in.ExtractDate)
	if date == "" {
		date = now.Format(time.DateOnly)
	} else if _, err := time.Parse(time.DateOnly, date); err != nil {
		return models.ProjectSnapshot{}, dErrors.New(dErrors.CodeValidation, "extract date must be YYYY-MM-DD")
	}
	return models.ProjectSnapshot{
		Number:           s.projectNumber(now),
		Name:             name,
		OrganizationUnit: strings.TrimSpace(in.OrganizationUnit),
		ExtractDate:      date,
		Supervisor:       strings.TrimSpace(in.Supervisor),
		OperatorID:       requestcontext.OperatorID(ctx),
	}, nil
}

// projectNumber renders <prefix>-YYYYMMDD-NNNN.
func (s *Service) projectNumber(now time.Time) string {
	return fmt.Sprintf("%s-%s-%04d", s.projectPrefix, now.Format("20060102"), s.serial()%10000)
}

func mergeAvoid(reqs []models.Requirement, global []domain.ExpertKey) []models.Requirement {
	out := make([]models.Requirement, len(reqs))
	for i, req := range reqs {
		avoid := make([]domain.ExpertKey, 0, len(req.Avoid)+len(global))
		avoid = append(avoid, req.Avoid...)
		avoid = append(avoid, global...)
		out[i] = models.Requirement{
			CategoryID: domain.CategoryID(strings.TrimSpace(string(req.CategoryID))),
			Count:      req.Count,
			Avoid:      pstrings.DedupeAndTrim(avoid),
		}
	}
	return out
}

// loadInputs resolves names and lists experts for every category concurrently.
func (s *Service) loadInputs(ctx context.Context, reqs []models.Requirement) (engine.CategoryNames, engine.Pool, error) {
	type loaded struct {
		name    string
		found   bool
		experts []dirmodels.Expert
	}
	results := make([]loaded, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	for i, req := range reqs {
		g.Go(func() error {
			name, found, err := s.categories.Resolve(gctx, req.CategoryID)
			if err != nil {
				return fmt.Errorf("resolve category %s: %w", req.CategoryID, err)
			}
			experts, err := s.experts.ListEligible(gctx, req.CategoryID)
			if err != nil {
				return fmt.Errorf("list experts for %s: %w", req.CategoryID, err)
			}
			results[i] = loaded{name: name, found: found, experts: experts}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	names := make(engine.CategoryNames, len(reqs))
	pool := make(engine.Pool, len(reqs))
	for i, req := range reqs {
		if results[i].found {
			names[req.CategoryID] = results[i].name
		}
		pool[req.CategoryID] = results[i].experts
	}
	return names, pool, nil
}

// Replace swaps one seated expert for a random eligible one. Each successful
// call draws again and appends a log entry.
func (s *Service) Replace(ctx context.Context, cmd ReplaceCommand) (*models.Record, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "selection.Replace", trace.WithAttributes(
		attribute.String("record_id", cmd.RecordID.String()),
		attribute.String("expert_id", string(cmd.ExpertID)),
	))
	defer span.End()

	rec, res, err := s.replace(ctx, cmd)
	s.metrics.ObserveLatency("replace", time.Since(start))
	s.metrics.IncReplacement(outcome(err))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "replace failed")
		s.logger.WarnContext(ctx, "replacement failed",
			"request_id", requestcontext.RequestID(ctx),
			"record_id", cmd.RecordID.String(),
			"expert_id", cmd.ExpertID,
			"error", err,
		)
		return nil, err
	}
	s.emitReplacement(ctx, rec, res)
	return rec, nil
}

func (s *Service) replace(ctx context.Context, cmd ReplaceCommand) (*models.Record, *engine.Replacement, error) {
	if cmd.RecordID.IsNil() {
		return nil, nil, dErrors.New(dErrors.CodeValidation, "record id is required")
	}
	reason := strings.TrimSpace(cmd.Reason)
	if reason == "" {
		return nil, nil, translate(models.InvalidReason(), "")
	}
	now := requestcontext.Now(ctx).UTC()

	var res *engine.Replacement
	rec, err := s.records.Update(ctx, cmd.RecordID, func(rec *models.Record) error {
		idx := rec.EntryIndex(cmd.ExpertID)
		if idx < 0 {
			return models.EntryNotFound()
		}
		candidates, err := s.experts.ListEligible(ctx, rec.Entries[idx].CategoryID)
		if err != nil {
			return fmt.Errorf("list experts for %s: %w", rec.Entries[idx].CategoryID, err)
		}
		res, err = s.engine.Replace(rec, cmd.ExpertID, reason, candidates, rec.StampAfter(now))
		return err
	})
	if err != nil {
		return nil, nil, translate(err, "failed to replace expert")
	}
	return rec, res, nil
}

func (s *Service) Get(ctx context.Context, id domain.RecordID) (*models.Record, error) {
	rec, err := s.records.Get(ctx, id)
	if err != nil {
		return nil, translate(err, "failed to load selection record")
	}
	return rec, nil
}

// List returns records newest first. A zero limit means DefaultListLimit; larger
// limits are capped at MaxListLimit.
func (s *Service) List(ctx context.Context, filter models.Filter) ([]*models.Record, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown status filter")
	}
	if !filter.Since.IsZero() && !filter.Until.IsZero() && !filter.Since.Before(filter.Until) {
		return nil, dErrors.New(dErrors.CodeValidation, "since must be before until")
	}
	switch {
	case filter.Limit <= 0:
		filter.Limit = DefaultListLimit
	case filter.Limit > MaxListLimit:
		filter.Limit = MaxListLimit
	}
	recs, err := s.records.List(ctx, filter)
	if err != nil {
		return nil, translate(err, "failed to list selection records")
	}
	return recs, nil
}
