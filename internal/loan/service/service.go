package service

import (
	"context"
	"errors"
	"log/slog"

	"arrears/internal/loan/models"
	id "arrears/pkg/domain"
	dErrors "arrears/pkg/domain-errors"
	"arrears/pkg/platform/sentinel"
	"arrears/pkg/requestcontext"
)

// Store persists loans.
type Store interface {
	Create(ctx context.Context, loan *models.Loan) error
	FindByID(ctx context.Context, loanID id.LoanID) (*models.Loan, error)
	Execute(ctx context.Context, loanID id.LoanID, validate func(*models.Loan) error, mutate func(*models.Loan)) (*models.Loan, error)
}

// Service manages the loan lifecycle the delinquency module depends on.
type Service struct {
	store  Store
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a loan. Status defaults to submitted.
func (s *Service) Register(ctx context.Context, req models.RegisterLoanRequest) (*models.Loan, error) {
	status := models.StatusSubmitted
	if req.Status != "" {
		parsed, ok := models.ParseStatus(req.Status)
		if !ok {
			return nil, dErrors.New(dErrors.CodeValidation, "invalid loan status")
		}
		status = parsed
	}

	loan, err := models.NewLoan(id.NewLoanID(), req.ExternalID, status, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}

	if err := s.store.Create(ctx, loan); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "external id already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register loan")
	}

	s.logAudit(ctx, "loan_registered",
		"loan_id", loan.ID.String(),
		"status", loan.Status.String(),
	)
	return loan, nil
}

func (s *Service) Get(ctx context.Context, loanID id.LoanID) (*models.Loan, error) {
	loan, err := s.store.FindByID(ctx, loanID)
	if err != nil {
		return nil, wrapLoanErr(err)
	}
	return loan, nil
}

// ChangeStatus moves a loan along its lifecycle.
func (s *Service) ChangeStatus(ctx context.Context, loanID id.LoanID, next models.Status) (*models.Loan, error) {
	now := requestcontext.Now(ctx)
	var previous models.Status
	loan, err := s.store.Execute(ctx, loanID,
		func(l *models.Loan) error {
			previous = l.Status
			err := l.CanTransitionTo(next)
			var de *dErrors.Error
			if errors.As(err, &de) && de.Code == dErrors.CodeInvariantViolation {
				return dErrors.New(dErrors.CodeConflict, de.Message)
			}
			return err
		},
		func(l *models.Loan) {
			l.ApplyStatus(next, now)
		},
	)
	if err != nil {
		return nil, wrapLoanErr(err)
	}

	s.logAudit(ctx, "loan_status_changed",
		"loan_id", loan.ID.String(),
		"from", previous.String(),
		"to", loan.Status.String(),
	)
	return loan, nil
}

func wrapLoanErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "loan not found")
	case dErrors.CodeOf(err) != dErrors.CodeInternal:
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load loan")
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
