package models

import (
	"time"

	"arrears/pkg/calendar"
)

// Date normalizes t to a calendar date. All timeline dates pass through Date
// so that comparisons ignore time of day and zone.
func Date(t time.Time) time.Time {
	return calendar.Date(t)
}

// NewDate builds a normalized calendar date.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a calendar date in ISO form.
func FormatDate(t time.Time) string {
	return calendar.Format(t)
}
