// Package service resolves the current business date. The business date is
// an operator-controlled calendar day, independent of wall-clock time.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"arrears/pkg/calendar"
	dErrors "arrears/pkg/domain-errors"
	"arrears/pkg/platform/sentinel"
	"arrears/pkg/requestcontext"
)

// Store persists the current business date.
type Store interface {
	Get(ctx context.Context) (time.Time, error)
	Set(ctx context.Context, date time.Time) error
}

type Service struct {
	store       Store
	defaultDate time.Time
	logger      *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithDefaultDate is returned by Current while no date has been set.
func WithDefaultDate(date time.Time) Option {
	return func(s *Service) {
		s.defaultDate = calendar.Date(date)
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Current returns the stored business date, or the configured default while
// none has been set. With neither it fails with CodeUnavailable; the wall
// clock is never consulted.
func (s *Service) Current(ctx context.Context) (time.Time, error) {
	date, err := s.store.Get(ctx)
	if err == nil {
		return calendar.Date(date), nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return time.Time{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "business date unavailable")
	}
	if s.defaultDate.IsZero() {
		return time.Time{}, dErrors.New(dErrors.CodeUnavailable, "business date has not been set")
	}
	return s.defaultDate, nil
}

// Set stores a new business date.
func (s *Service) Set(ctx context.Context, date time.Time) (time.Time, error) {
	if date.IsZero() {
		return time.Time{}, dErrors.New(dErrors.CodeValidation, "date is required")
	}
	date = calendar.Date(date)
	if err := s.store.Set(ctx, date); err != nil {
		return time.Time{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to set business date")
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "business_date_set",
			"event", "business_date_set",
			"log_type", "audit",
			"date", calendar.Format(date),
			"actor", requestcontext.Subject(ctx),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return date, nil
}
