package store

import (
	"context"
	"sync"
	"time"

	"arrears/pkg/platform/sentinel"
)

// InMemory holds the business date in process memory.
type InMemory struct {
	mu   sync.RWMutex
	date time.Time
	set  bool
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

// Get returns sentinel.ErrNotFound until a date has been set.
func (s *InMemory) Get(_ context.Context) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.set {
		return time.Time{}, sentinel.ErrNotFound
	}
	return s.date, nil
}

func (s *InMemory) Set(_ context.Context, date time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.date = date
	s.set = true
	return nil
}
