// Package calendar holds calendar-date helpers shared by the loan modules.
// A calendar date is a time.Time at midnight UTC.
package calendar

import "time"

// Layout is the ISO calendar date layout used on the wire and in storage.
const Layout = time.DateOnly

// Date truncates t to its calendar day at midnight UTC. The day is taken in
// t's own location before the zone is dropped.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Parse reads a Layout date.
func Parse(s string) (time.Time, error) {
	return time.Parse(Layout, s)
}

func Format(t time.Time) string {
	return t.Format(Layout)
}
