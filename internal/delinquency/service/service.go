// Package service records delinquency actions against loans and resolves
// their effective pause periods.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	delinquencymetrics "arrears/internal/delinquency/metrics"
	"arrears/internal/delinquency/models"
	"arrears/internal/delinquency/validator"
	loanmodels "arrears/internal/loan/models"
	id "arrears/pkg/domain"
	dErrors "arrears/pkg/domain-errors"
	"arrears/pkg/platform/sentinel"
	"arrears/pkg/requestcontext"
)

// TimelineStore persists delinquency timelines.
type TimelineStore interface {
	ListByLoan(ctx context.Context, loanID id.LoanID) ([]models.Entry, error)
	ListByLoans(ctx context.Context, loanIDs []id.LoanID) (map[id.LoanID][]models.Entry, error)
	Append(ctx context.Context, entry *models.Entry) error
}

// LoanReader looks up the loan an action targets.
type LoanReader interface {
	FindByID(ctx context.Context, loanID id.LoanID) (*loanmodels.Loan, error)
}

// BusinessDate provides the current business date.
type BusinessDate interface {
	Current(ctx context.Context) (time.Time, error)
}

// EventPublisher announces accepted actions. It runs inside the per-loan
// transaction, so a transactional outbox commits with the entry.
type EventPublisher interface {
	Publish(ctx context.Context, event models.ActionCreated) error
}

// MaxBatchLoans bounds PausePeriodsForLoans.
const MaxBatchLoans = 100

// CreateActionRequest carries an action request whose dates were already
// parsed at the edge.
type CreateActionRequest struct {
	Action    string
	StartDate *time.Time
	EndDate   *time.Time
}

// Service orchestrates delinquency actions.
type Service struct {
	timelines    TimelineStore
	loans        LoanReader
	businessDate BusinessDate
	tx           TimelineTx
	publisher    EventPublisher
	logger       *slog.Logger
	metrics      *delinquencymetrics.Metrics
	tracer       trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *delinquencymetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithEventPublisher(p EventPublisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithTx replaces the default in-memory sharded lock.
func WithTx(tx TimelineTx) Option {
	return func(s *Service) {
		s.tx = tx
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

func New(timelines TimelineStore, loans LoanReader, businessDate BusinessDate, opts ...Option) *Service {
	s := &Service{
		timelines:    timelines,
		loans:        loans,
		businessDate: businessDate,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = NewShardedTx()
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer("arrears/internal/delinquency")
	}
	return s
}

// CreateAction validates the request against the loan's current timeline and
// appends the resulting entry. Rule violations come back as a
// *validator.ValidationError listing every violated rule.
func (s *Service) CreateAction(ctx context.Context, loanID id.LoanID, req CreateActionRequest) (*models.Entry, error) {
	ctx, span := s.tracer.Start(ctx, "delinquency.CreateAction", trace.WithAttributes(
		attribute.String("loan_id", loanID.String()),
		attribute.String("action", req.Action),
	))
	defer span.End()

	var (
		created      *models.Entry
		businessDate time.Time
	)
	err := s.tx.RunInTx(ctx, loanID, func(txCtx context.Context) error {
		loan, err := s.loans.FindByID(txCtx, loanID)
		if err != nil {
			return wrapLoanErr(err)
		}
		businessDate, err = s.businessDate.Current(txCtx)
		if err != nil {
			return err
		}
		history, err := s.timelines.ListByLoan(txCtx, loanID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load delinquency timeline")
		}

		start := time.Now()
		entry, err := validator.Validate(validator.Input{
			Action:       req.Action,
			StartDate:    req.StartDate,
			EndDate:      req.EndDate,
			LoanID:       loanID,
			LoanActive:   loan.IsActive(),
			History:      history,
			BusinessDate: businessDate,
		})
		s.observeValidation(start)
		if err != nil {
			return err
		}

		entry.CreatedAt = requestcontext.Now(txCtx)
		if err := s.timelines.Append(txCtx, entry); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "loan not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append delinquency action")
		}
		if s.publisher != nil {
			event := models.NewActionCreated(uuid.NewString(), *entry, businessDate,
				requestcontext.Subject(txCtx), requestcontext.RequestID(txCtx))
			if err := s.publisher.Publish(txCtx, event); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to publish delinquency action")
			}
		}
		created = entry
		return nil
	})
	if err != nil {
		s.recordRejection(ctx, span, loanID, req.Action, err)
		return nil, err
	}

	span.SetAttributes(attribute.String("entry_id", created.ID.String()))
	if s.metrics != nil {
		s.metrics.IncAccepted(created.Action.String())
	}
	s.logAudit(ctx, "delinquency_action_created",
		"loan_id", loanID.String(),
		"entry_id", created.ID.String(),
		"action", created.Action.String(),
		"start_date", models.FormatDate(created.StartDate),
		"business_date", models.FormatDate(businessDate),
	)
	return created, nil
}

// ListActions returns the loan's timeline in insertion order.
func (s *Service) ListActions(ctx context.Context, loanID id.LoanID) ([]models.Entry, error) {
	ctx, span := s.tracer.Start(ctx, "delinquency.ListActions", trace.WithAttributes(
		attribute.String("loan_id", loanID.String()),
	))
	defer span.End()

	if _, err := s.loans.FindByID(ctx, loanID); err != nil {
		return nil, wrapLoanErr(err)
	}
	timeline, err := s.timelines.ListByLoan(ctx, loanID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load delinquency timeline")
	}
	return timeline, nil
}

// PausePeriods returns the loan's effective pause periods, flagging the one
// covering the current business date.
func (s *Service) PausePeriods(ctx context.Context, loanID id.LoanID) ([]models.PausePeriod, error) {
	ctx, span := s.tracer.Start(ctx, "delinquency.PausePeriods", trace.WithAttributes(
		attribute.String("loan_id", loanID.String()),
	))
	defer span.End()

	var (
		timeline     []models.Entry
		businessDate time.Time
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.loans.FindByID(gctx, loanID)
		return wrapLoanErr(err)
	})
	g.Go(func() error {
		var err error
		businessDate, err = s.businessDate.Current(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		timeline, err = s.timelines.ListByLoan(gctx, loanID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load delinquency timeline")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return models.PausePeriods(timeline, businessDate), nil
}

// PausePeriodsForLoans resolves pause periods for several loans at once.
// Unknown loans, and loans without actions, map to an empty list.
func (s *Service) PausePeriodsForLoans(ctx context.Context, loanIDs []id.LoanID) (map[id.LoanID][]models.PausePeriod, error) {
	ctx, span := s.tracer.Start(ctx, "delinquency.PausePeriodsForLoans", trace.WithAttributes(
		attribute.Int("loan_count", len(loanIDs)),
	))
	defer span.End()

	if len(loanIDs) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "at least one loan id is required")
	}
	if len(loanIDs) > MaxBatchLoans {
		return nil, dErrors.New(dErrors.CodeBadRequest, "too many loan ids")
	}

	var (
		timelines    map[id.LoanID][]models.Entry
		businessDate time.Time
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		businessDate, err = s.businessDate.Current(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		timelines, err = s.timelines.ListByLoans(gctx, loanIDs)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load delinquency timelines")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	out := make(map[id.LoanID][]models.PausePeriod, len(loanIDs))
	for _, loanID := range loanIDs {
		out[loanID] = models.PausePeriods(timelines[loanID], businessDate)
	}
	return out, nil
}

func wrapLoanErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "loan not found")
	case dErrors.CodeOf(err) != dErrors.CodeInternal:
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load loan")
	}
}

func (s *Service) observeValidation(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveValidation(start)
	}
}

func (s *Service) recordRejection(ctx context.Context, span trace.Span, loanID id.LoanID, action string, err error) {
	var verr *validator.ValidationError
	if !errors.As(err, &verr) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if s.logger != nil && dErrors.CodeOf(err) == dErrors.CodeInternal {
			s.logger.ErrorContext(ctx, "failed to create delinquency action",
				"loan_id", loanID.String(),
				"error", err.Error(),
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		return
	}

	kinds := make([]string, len(verr.Violations))
	for i, v := range verr.Violations {
		kinds[i] = string(v.Kind)
	}
	span.SetAttributes(attribute.StringSlice("violations", kinds))
	if s.metrics != nil {
		s.metrics.IncRejected(kinds...)
	}
	if s.logger != nil {
		s.logger.WarnContext(ctx, "delinquency action rejected",
			"loan_id", loanID.String(),
			"action", action,
			"violations", kinds,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

func (s *Service) logAudit(ctx context.Context, event string, attrs ...any) {
	if s.logger == nil {
		return
	}
	args := append(attrs,
		"event", event,
		"log_type", "audit",
		"actor", requestcontext.Subject(ctx),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.logger.InfoContext(ctx, event, args...)
}
