package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	businessdateservice "arrears/internal/businessdate/service"
	businessdatestore "arrears/internal/businessdate/store"
	delinquencymetrics "arrears/internal/delinquency/metrics"
	"arrears/internal/delinquency/models"
	"arrears/internal/delinquency/store"
	"arrears/internal/delinquency/validator"
	loanmodels "arrears/internal/loan/models"
	loanstore "arrears/internal/loan/store"
	id "arrears/pkg/domain"
	dErrors "arrears/pkg/domain-errors"
	"arrears/pkg/requestcontext"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.ActionCreated
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event models.ActionCreated) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

type DelinquencyServiceSuite struct {
	suite.Suite
	ctx          context.Context
	timelines    *store.InMemory
	loans        *loanstore.InMemory
	businessDate *businessdateservice.Service
	publisher    *recordingPublisher
	registry     *prometheus.Registry
	metrics      *delinquencymetrics.Metrics
	service      *Service
	loanID       id.LoanID
}

func TestDelinquencyServiceSuite(t *testing.T) {
	suite.Run(t, new(DelinquencyServiceSuite))
}

func (s *DelinquencyServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithSubject(context.Background(), "collections-bot")
	s.timelines = store.NewInMemory()
	s.loans = loanstore.NewInMemory()
	s.businessDate = businessdateservice.New(businessdatestore.NewInMemory())
	s.publisher = &recordingPublisher{}
	s.registry = prometheus.NewRegistry()
	s.metrics = delinquencymetrics.New(s.registry)
	s.service = New(s.timelines, s.loans, s.businessDate,
		WithEventPublisher(s.publisher),
		WithMetrics(s.metrics),
	)
	s.loanID = s.newLoan(loanmodels.StatusActive)
}

func (s *DelinquencyServiceSuite) newLoan(status loanmodels.Status) id.LoanID {
	loan, err := loanmodels.NewLoan(id.NewLoanID(), "LN-"+id.NewLoanID().String(), status, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.loans.Create(s.ctx, loan))
	return loan.ID
}

func (s *DelinquencyServiceSuite) setBusinessDate(d time.Time) {
	_, err := s.businessDate.Set(s.ctx, d)
	s.Require().NoError(err)
}

func (s *DelinquencyServiceSuite) seedPause(start, end time.Time) {
	p, err := models.NewPause(s.loanID, start, end)
	s.Require().NoError(err)
	s.Require().NoError(s.timelines.Append(s.ctx, p))
}

func (s *DelinquencyServiceSuite) seedResume(start time.Time) {
	s.Require().NoError(s.timelines.Append(s.ctx, models.NewResume(s.loanID, start)))
}

func date(day int) time.Time {
	return models.NewDate(2022, time.September, day)
}

func ptr(t time.Time) *time.Time {
	return &t
}

func (s *DelinquencyServiceSuite) requireKinds(err error, kinds ...validator.Kind) {
	var verr *validator.ValidationError
	s.Require().True(errors.As(err, &verr), "expected validation error, got %v", err)
	s.Equal(kinds, verr.Kinds())
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *DelinquencyServiceSuite) TestPauseAccepted() {
	s.setBusinessDate(date(9))

	entry, err := s.service.CreateAction(s.ctx, s.loanID, CreateActionRequest{
		Action: "pause", StartDate: ptr(date(9)), EndDate: ptr(date(19)),
	})
	s.Require().NoError(err)
	s.False(entry.ID.IsNil())
	s.Equal(models.ActionPause, entry.Action)
	s.Equal(date(19), *entry.EndDate)

	timeline, err := s.service.ListActions(s.ctx, s.loanID)
	s.Require().NoError(err)
	s.Require().Len(timeline, 1)
	s.Equal(entry.ID, timeline[0].ID)

	s.Require().Len(s.publisher.events, 1)
	ev := s.publisher.events[0]
	s.Equal(models.EventActionCreated, ev.EventType)
	s.Equal(entry.ID, ev.EntryID)
	s.Equal("collections-bot", ev.Actor)
	s.Equal("2022-09-09", ev.BusinessDate)

	s.Equal(1.0, testutil.ToFloat64(s.metrics.ActionsAccepted.WithLabelValues("pause")))
}

func (s *DelinquencyServiceSuite) TestResumeAccepted() {
	s.seedPause(date(5), date(15))
	s.setBusinessDate(date(9))

	entry, err := s.service.CreateAction(s.ctx, s.loanID, CreateActionRequest{
		Action: "RESUME", StartDate: ptr(date(9)),
	})
	s.Require().NoError(err)
	s.Equal(models.ActionResume, entry.Action)
	s.Nil(entry.EndDate)

	periods, err := s.service.PausePeriods(s.ctx, s.loanID)
	s.Require().NoError(err)
	s.Require().Len(periods, 1)
	s.Equal(date(9), periods[0].EndDate)
	s.True(periods[0].Active)
}

func (s *DelinquencyServiceSuite) TestOverlapRejected() {
	s.seedPause(date(14), date(22))
	s.setBusinessDate(date(9))

	_, err := s.service.CreateAction(s.ctx, s.loanID, CreateActionRequest{
		Action: "pause", StartDate: ptr(date(9)), EndDate: ptr(date(15)),
	})
	s.requireKinds(err, validator.KindOverlapping)

	timeline, err := s.service.ListActions(s.ctx, s.loanID)
	s.Require().NoError(err)
	s.Len(timeline, 1)
	s.Empty(s.publisher.events)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.ActionsRejected.WithLabelValues(string(validator.KindOverlapping))))
}

func (s *DelinquencyServiceSuite) TestShortenedPauseAllowsNewPause() {
	s.seedPause(date(15), date(22))
	s.seedResume(date(17))
	s.setBusinessDate(date(18))

	_, err := s.service.CreateAction(s.ctx, s.loanID, CreateActionRequest{
		Action: "pause", StartDate: ptr(date(18)), EndDate: ptr(date(20)),
	})
	s.Require().NoError(err)

	periods, err := s.service.PausePeriods(s.ctx, s.loanID)
	s.Require().NoError(err)
	s.Require().Len(periods, 2)
	s.Equal(date(17), periods[0].EndDate)
	s.False(periods[0].Active)
	s.True(periods[1].Active)
}

func (s *DelinquencyServiceSuite) TestResumeWithoutActivePauseRejected() {
	s.seedPause(date(5), date(8))
	s.setBusinessDate(date(9))

	_, err := s.service.CreateAction(s.ctx, s.loanID, CreateActionRequest{
		Action: "resume", StartDate: ptr(date(9)),
	})
	s.requireKinds(err, validator.KindResumeShouldBeOnPause)
}

func (s *DelinquencyServiceSuite) TestMinimumDurationRejected() {
	s.setBusinessDate(date(9))

	_, err := s.service.CreateAction(s.ctx, s.loanID, CreateActionRequest{
		Action: "pause", StartDate: ptr(date(10)), EndDate: ptr(date(10)),
	})
	s.requireKinds(err, validator.KindInvalidStartDateAndEndDate)
}

func (s *DelinquencyServiceSuite) TestInactiveLoanRejected() {
	closed := s.newLoan(loanmodels.StatusClosed)
	s.setBusinessDate(date(9))

	_, err := s.service.CreateAction(s.ctx, closed, CreateActionRequest{
		Action: "pause", StartDate: ptr(date(9)), EndDate: ptr(date(19)),
	})
	s.requireKinds(err, validator.KindInvalidLoanState)
}

func (s *DelinquencyServiceSuite) TestUnknownLoan() {
	s.setBusinessDate(date(9))

	_, err := s.service.CreateAction(s.ctx, id.NewLoanID(), CreateActionRequest{Action: "pause"})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.service.ListActions(s.ctx, id.NewLoanID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.service.PausePeriods(s.ctx, id.NewLoanID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *DelinquencyServiceSuite) TestBusinessDateNotSet() {
	_, err := s.service.CreateAction(s.ctx, s.loanID, CreateActionRequest{
		Action: "pause", StartDate: ptr(date(9)), EndDate: ptr(date(19)),
	})
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))

	timeline, err := s.timelines.ListByLoan(s.ctx, s.loanID)
	s.Require().NoError(err)
	s.Empty(timeline)
}

func (s *DelinquencyServiceSuite) TestPublisherFailureIsInternal() {
	s.setBusinessDate(date(9))
	s.publisher.err = errors.New("outbox down")

	_, err := s.service.CreateAction(s.ctx, s.loanID, CreateActionRequest{
		Action: "pause", StartDate: ptr(date(9)), EndDate: ptr(date(19)),
	})
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

// TestConcurrentOverlappingPauses verifies the per-loan lock: of many
// overlapping pauses submitted at once exactly one is accepted.
func (s *DelinquencyServiceSuite) TestConcurrentOverlappingPauses() {
	s.setBusinessDate(date(1))

	const goroutines = 25
	var (
		wg       sync.WaitGroup
		accepted atomic.Int32
		overlaps atomic.Int32
	)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			_, err := s.service.CreateAction(s.ctx, s.loanID, CreateActionRequest{
				Action:    "pause",
				StartDate: ptr(date(10 + offset%3)),
				EndDate:   ptr(date(20)),
			})
			var verr *validator.ValidationError
			switch {
			case err == nil:
				accepted.Add(1)
			case errors.As(err, &verr) && verr.Has(validator.KindOverlapping):
				overlaps.Add(1)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(int32(1), accepted.Load())
	s.Equal(int32(goroutines-1), overlaps.Load())

	timeline, err := s.service.ListActions(s.ctx, s.loanID)
	s.Require().NoError(err)
	s.Len(timeline, 1)
}

func (s *DelinquencyServiceSuite) TestPausePeriodsForLoans() {
	s.seedPause(date(5), date(15))
	other := s.newLoan(loanmodels.StatusActive)
	s.setBusinessDate(date(9))

	byLoan, err := s.service.PausePeriodsForLoans(s.ctx, []id.LoanID{s.loanID, other})
	s.Require().NoError(err)
	s.Require().Len(byLoan[s.loanID], 1)
	s.True(byLoan[s.loanID][0].Active)
	s.Empty(byLoan[other])

	_, err = s.service.PausePeriodsForLoans(s.ctx, nil)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))

	tooMany := make([]id.LoanID, MaxBatchLoans+1)
	_, err = s.service.PausePeriodsForLoans(s.ctx, tooMany)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *DelinquencyServiceSuite) TestValidationDurationObserved() {
	s.setBusinessDate(date(9))
	_, _ = s.service.CreateAction(s.ctx, s.loanID, CreateActionRequest{Action: "resume", StartDate: ptr(date(9))})

	count, err := testutil.GatherAndCount(s.registry, "arrears_delinquency_validation_duration_seconds")
	s.Require().NoError(err)
	s.Equal(1, count)
}
