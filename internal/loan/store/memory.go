package store

import (
	"context"
	"strings"
	"sync"

	"arrears/internal/loan/models"
	id "arrears/pkg/domain"
	"arrears/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded loan store for development and tests.
type InMemory struct {
	mu         sync.RWMutex
	loans      map[id.LoanID]*models.Loan
	byExternal map[string]id.LoanID
}

func NewInMemory() *InMemory {
	return &InMemory{
		loans:      make(map[id.LoanID]*models.Loan),
		byExternal: make(map[string]id.LoanID),
	}
}

// Create stores a new loan. External ids are unique, case-insensitively.
func (s *InMemory) Create(_ context.Context, loan *models.Loan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(loan.ExternalID)
	if _, taken := s.byExternal[key]; taken {
		return sentinel.ErrConflict
	}
	if _, exists := s.loans[loan.ID]; exists {
		return sentinel.ErrConflict
	}
	copied := *loan
	s.loans[loan.ID] = &copied
	s.byExternal[key] = loan.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, loanID id.LoanID) (*models.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	loan, ok := s.loans[loanID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *loan
	return &copied, nil
}

// Execute runs validate then mutate on the stored loan under the write lock.
// Nothing is persisted when validate fails.
func (s *InMemory) Execute(_ context.Context, loanID id.LoanID, validate func(*models.Loan) error, mutate func(*models.Loan)) (*models.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	loan, ok := s.loans[loanID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	working := *loan
	if err := validate(&working); err != nil {
		return nil, err
	}
	mutate(&working)
	s.loans[loanID] = &working
	result := working
	return &result, nil
}
