//go:build integration

package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"arrears/internal/loan/models"
	"arrears/internal/loan/store"
	id "arrears/pkg/domain"
	"arrears/pkg/platform/sentinel"
	"arrears/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "outbox", "loan_delinquency_actions", "loans"))
}

func (s *PostgresStoreSuite) newLoan(externalID string) *models.Loan {
	loan, err := models.NewLoan(id.NewLoanID(), externalID, models.StatusActive, time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(err)
	return loan
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	loan := s.newLoan("LN-PG-1")
	s.Require().NoError(s.store.Create(ctx, loan))

	found, err := s.store.FindByID(ctx, loan.ID)
	s.Require().NoError(err)
	s.Equal(loan.ID, found.ID)
	s.Equal(models.StatusActive, found.Status)

	_, err = s.store.FindByID(ctx, id.NewLoanID())
	s.ErrorIs(err, sentinel.ErrNotFound)

	err = s.store.Create(ctx, s.newLoan("LN-PG-1"))
	s.ErrorIs(err, sentinel.ErrConflict)
}

// TestConcurrentStatusChange verifies FOR UPDATE serializes transitions so
// only one closes an active loan.
func (s *PostgresStoreSuite) TestConcurrentStatusChange() {
	ctx := context.Background()
	loan := s.newLoan("LN-PG-race")
	s.Require().NoError(s.store.Create(ctx, loan))

	const goroutines = 20
	var wg sync.WaitGroup
	var successes atomic.Int32
	for n := 0; n < goroutines; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Execute(ctx, loan.ID,
				func(l *models.Loan) error { return l.CanTransitionTo(models.StatusOverpaid) },
				func(l *models.Loan) { l.ApplyStatus(models.StatusOverpaid, time.Now()) },
			)
			if err == nil {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successes.Load())
}
