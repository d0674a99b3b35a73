package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"arrears/internal/delinquency/models"
	id "arrears/pkg/domain"
	"arrears/pkg/requestcontext"
)

type TimelineStoreSuite struct {
	suite.Suite
	store  *InMemory
	ctx    context.Context
	loanID id.LoanID
}

func TestTimelineStoreSuite(t *testing.T) {
	suite.Run(t, new(TimelineStoreSuite))
}

func (s *TimelineStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	s.loanID = id.NewLoanID()
}

func (s *TimelineStoreSuite) pause(start, end time.Time) *models.Entry {
	p, err := models.NewPause(s.loanID, start, end)
	s.Require().NoError(err)
	return p
}

func (s *TimelineStoreSuite) TestAppendAssignsIdentity() {
	entry := s.pause(models.NewDate(2026, 3, 2), models.NewDate(2026, 3, 9))
	s.Require().NoError(s.store.Append(s.ctx, entry))

	s.False(entry.ID.IsNil())
	s.Equal(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), entry.CreatedAt)
}

func (s *TimelineStoreSuite) TestListPreservesInsertionOrder() {
	later := s.pause(models.NewDate(2026, 5, 1), models.NewDate(2026, 5, 9))
	earlier := s.pause(models.NewDate(2026, 4, 1), models.NewDate(2026, 4, 9))
	resume := models.NewResume(s.loanID, models.NewDate(2026, 4, 3))
	for _, e := range []*models.Entry{later, earlier, resume} {
		s.Require().NoError(s.store.Append(s.ctx, e))
	}

	timeline, err := s.store.ListByLoan(s.ctx, s.loanID)
	s.Require().NoError(err)
	s.Require().Len(timeline, 3)
	s.Equal(later.ID, timeline[0].ID)
	s.Equal(earlier.ID, timeline[1].ID)
	s.Equal(resume.ID, timeline[2].ID)
}

func (s *TimelineStoreSuite) TestListReturnsCopies() {
	s.Require().NoError(s.store.Append(s.ctx, s.pause(models.NewDate(2026, 3, 2), models.NewDate(2026, 3, 9))))

	timeline, err := s.store.ListByLoan(s.ctx, s.loanID)
	s.Require().NoError(err)
	*timeline[0].EndDate = models.NewDate(2030, 1, 1)

	again, err := s.store.ListByLoan(s.ctx, s.loanID)
	s.Require().NoError(err)
	s.Equal(models.NewDate(2026, 3, 9), *again[0].EndDate)
}

func (s *TimelineStoreSuite) TestUnknownLoanHasEmptyTimeline() {
	timeline, err := s.store.ListByLoan(s.ctx, id.NewLoanID())
	s.Require().NoError(err)
	s.Empty(timeline)
}

func (s *TimelineStoreSuite) TestListByLoans() {
	other := id.NewLoanID()
	s.Require().NoError(s.store.Append(s.ctx, s.pause(models.NewDate(2026, 3, 2), models.NewDate(2026, 3, 9))))
	s.Require().NoError(s.store.Append(s.ctx, models.NewResume(other, models.NewDate(2026, 3, 1))))

	byLoan, err := s.store.ListByLoans(s.ctx, []id.LoanID{s.loanID, other, id.NewLoanID()})
	s.Require().NoError(err)
	s.Len(byLoan, 2)
	s.Len(byLoan[s.loanID], 1)
	s.Len(byLoan[other], 1)
}
