package models

import (
	"time"

	id "arrears/pkg/domain"
)

// EventActionCreated is the event type emitted for every accepted action.
const EventActionCreated = "delinquency_action_created"

// PausePeriod is an effective pause range as exposed on the loan.
type PausePeriod struct {
	StartDate time.Time
	EndDate   time.Time
	// Active is true when the period covers the current business date.
	Active bool
}

// PausePeriods flags each effective pause against businessDate.
func PausePeriods(timeline []Entry, businessDate time.Time) []PausePeriod {
	ranges := EffectivePauses(timeline)
	periods := make([]PausePeriod, len(ranges))
	for i, r := range ranges {
		periods[i] = PausePeriod{StartDate: r.Start, EndDate: r.End, Active: r.Covers(businessDate)}
	}
	return periods
}

// ActionCreated describes an appended timeline entry for downstream consumers
// such as arrears aging and collections.
type ActionCreated struct {
	EventID      string     `json:"event_id"`
	EventType    string     `json:"event_type"`
	LoanID       id.LoanID  `json:"loan_id"`
	EntryID      id.EntryID `json:"entry_id"`
	Action       Action     `json:"action"`
	StartDate    string     `json:"start_date"`
	EndDate      string     `json:"end_date,omitempty"`
	BusinessDate string     `json:"business_date"`
	Actor        string     `json:"actor,omitempty"`
	RequestID    string     `json:"request_id,omitempty"`
	OccurredAt   time.Time  `json:"occurred_at"`
}

// NewActionCreated builds the event for a persisted entry.
func NewActionCreated(eventID string, entry Entry, businessDate time.Time, actor, requestID string) ActionCreated {
	ev := ActionCreated{
		EventID:      eventID,
		EventType:    EventActionCreated,
		LoanID:       entry.LoanID,
		EntryID:      entry.ID,
		Action:       entry.Action,
		StartDate:    FormatDate(entry.StartDate),
		BusinessDate: FormatDate(businessDate),
		Actor:        actor,
		RequestID:    requestID,
		OccurredAt:   entry.CreatedAt,
	}
	if entry.EndDate != nil {
		ev.EndDate = FormatDate(*entry.EndDate)
	}
	return ev
}
