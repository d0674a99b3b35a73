package store

import (
	"context"
	"sync"

	"arrears/internal/delinquency/models"
	id "arrears/pkg/domain"
	"arrears/pkg/requestcontext"
)

// InMemory keeps timelines in process memory.
type InMemory struct {
	mu        sync.RWMutex
	timelines map[id.LoanID][]models.Entry
}

func NewInMemory() *InMemory {
	return &InMemory{timelines: make(map[id.LoanID][]models.Entry)}
}

// ListByLoan returns the loan's timeline in insertion order.
// The result is a copy; callers may not mutate stored entries.
func (s *InMemory) ListByLoan(_ context.Context, loanID id.LoanID) ([]models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTimeline(s.timelines[loanID]), nil
}

// ListByLoans returns the timelines of several loans. Loans without entries
// are absent from the map.
func (s *InMemory) ListByLoans(_ context.Context, loanIDs []id.LoanID) (map[id.LoanID][]models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[id.LoanID][]models.Entry, len(loanIDs))
	for _, loanID := range loanIDs {
		if timeline, ok := s.timelines[loanID]; ok {
			out[loanID] = cloneTimeline(timeline)
		}
	}
	return out, nil
}

// Append stores the entry at the end of its loan's timeline, assigning ID and
// CreatedAt when unset.
func (s *InMemory) Append(ctx context.Context, entry *models.Entry) error {
	if entry.ID.IsNil() {
		entry.ID = id.NewEntryID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = requestcontext.Now(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.timelines[entry.LoanID] = append(s.timelines[entry.LoanID], cloneEntry(*entry))
	return nil
}

func cloneTimeline(timeline []models.Entry) []models.Entry {
	out := make([]models.Entry, len(timeline))
	for i, e := range timeline {
		out[i] = cloneEntry(e)
	}
	return out
}

func cloneEntry(e models.Entry) models.Entry {
	if e.EndDate != nil {
		end := *e.EndDate
		e.EndDate = &end
	}
	return e
}
