package models

import (
	"time"

	id "arrears/pkg/domain"
	dErrors "arrears/pkg/domain-errors"
)

// Entry is one immutable record in a loan's delinquency timeline.
//
// Invariants:
//   - Action is pause or resume
//   - a resume never carries an EndDate
//   - a pause always carries an EndDate strictly after StartDate
//   - StartDate and EndDate are calendar dates (see Date)
//   - ID and CreatedAt are zero until the entry is persisted
//
// Entries are never edited or removed once appended; corrections are new entries.
type Entry struct {
	ID        id.EntryID
	LoanID    id.LoanID
	Action    Action
	StartDate time.Time
	EndDate   *time.Time
	CreatedAt time.Time
}

// NewPause builds a pause entry covering [start, end].
func NewPause(loanID id.LoanID, start, end time.Time) (*Entry, error) {
	start, end = Date(start), Date(end)
	if !end.After(start) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "pause end date must be after its start date")
	}
	return &Entry{
		LoanID:    loanID,
		Action:    ActionPause,
		StartDate: start,
		EndDate:   &end,
	}, nil
}

// NewResume builds a resume entry effective on start.
func NewResume(loanID id.LoanID, start time.Time) *Entry {
	return &Entry{
		LoanID:    loanID,
		Action:    ActionResume,
		StartDate: Date(start),
	}
}

func (e Entry) IsPause() bool {
	return e.Action == ActionPause
}

func (e Entry) IsResume() bool {
	return e.Action == ActionResume
}

// Range returns the declared range of a pause. ok is false for resumes.
func (e Entry) Range() (DateRange, bool) {
	if !e.IsPause() || e.EndDate == nil {
		return DateRange{}, false
	}
	return DateRange{Start: e.StartDate, End: *e.EndDate}, true
}
