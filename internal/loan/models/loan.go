package models

import (
	"strings"
	"time"

	id "arrears/pkg/domain"
	dErrors "arrears/pkg/domain-errors"
)

// Status is the loan lifecycle position.
type Status string

const (
	StatusSubmitted  Status = "submitted"
	StatusApproved   Status = "approved"
	StatusActive     Status = "active"
	StatusOverpaid   Status = "overpaid"
	StatusClosed     Status = "closed"
	StatusWrittenOff Status = "written_off"
)

var transitions = map[Status][]Status{
	StatusSubmitted: {StatusApproved, StatusClosed},
	StatusApproved:  {StatusActive, StatusClosed},
	StatusActive:    {StatusOverpaid, StatusClosed, StatusWrittenOff},
	StatusOverpaid:  {StatusActive, StatusClosed},
}

// ParseStatus accepts a status name in any case.
func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	return st, st.IsValid()
}

func (s Status) IsValid() bool {
	switch s {
	case StatusSubmitted, StatusApproved, StatusActive, StatusOverpaid, StatusClosed, StatusWrittenOff:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// Loan is the slice of the loan aggregate the delinquency module depends on.
//
// Invariants:
//   - ExternalID is non-empty and at most 100 characters
//   - Status is one of the known statuses
//   - Status changes follow the lifecycle transitions only
type Loan struct {
	ID         id.LoanID `json:"id"`
	ExternalID string    `json:"external_id"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func NewLoan(loanID id.LoanID, externalID string, status Status, now time.Time) (*Loan, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "external id cannot be empty")
	}
	if len(externalID) > 100 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "external id must be 100 characters or less")
	}
	if status == "" {
		status = StatusSubmitted
	}
	if !status.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid loan status")
	}
	return &Loan{
		ID:         loanID,
		ExternalID: externalID,
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// IsActive reports whether delinquency actions may be recorded for the loan.
func (l *Loan) IsActive() bool {
	return l.Status == StatusActive
}

// CanTransitionTo checks the lifecycle graph.
func (l *Loan) CanTransitionTo(next Status) error {
	if !next.IsValid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "invalid loan status")
	}
	for _, allowed := range transitions[l.Status] {
		if allowed == next {
			return nil
		}
	}
	return dErrors.New(dErrors.CodeInvariantViolation, "loan cannot move from "+string(l.Status)+" to "+string(next))
}

// ApplyStatus records a transition already checked with CanTransitionTo.
func (l *Loan) ApplyStatus(next Status, now time.Time) {
	l.Status = next
	l.UpdatedAt = now
}
