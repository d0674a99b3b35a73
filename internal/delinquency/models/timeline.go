package models

import "time"

// DateRange is a closed calendar interval [Start, End].
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Covers reports whether d falls inside the range, endpoints included.
func (r DateRange) Covers(d time.Time) bool {
	d = Date(d)
	return !d.Before(r.Start) && !d.After(r.End)
}

// Overlaps reports whether two closed ranges intersect. Touching endpoints count.
func Overlaps(a, b DateRange) bool {
	return !a.Start.After(b.End) && !b.Start.After(a.End)
}

// Overlaps is the method form of the package-level Overlaps.
func (r DateRange) Overlaps(other DateRange) bool {
	return Overlaps(r, other)
}

// EffectivePauses resolves the ranges during which the loan was actually paused.
//
// Each pause is resolved on its own: the earliest resume starting strictly after
// the pause start and no later than the pause end cuts the range short at the
// resume date. Every resume in the timeline is considered, regardless of its
// position, because insertion order is not date order. One range is returned
// per pause, in timeline order.
//
// This is pure domain logic - no I/O, no side effects.
func EffectivePauses(timeline []Entry) []DateRange {
	ranges := make([]DateRange, 0, len(timeline))
	for _, pause := range timeline {
		declared, ok := pause.Range()
		if !ok {
			continue
		}
		if cut, found := earliestResumeWithin(timeline, declared); found {
			declared.End = cut
		}
		ranges = append(ranges, declared)
	}
	return ranges
}

// earliestResumeWithin finds the first resume date in (r.Start, r.End].
func earliestResumeWithin(timeline []Entry, r DateRange) (time.Time, bool) {
	var earliest time.Time
	found := false
	for _, e := range timeline {
		if !e.IsResume() {
			continue
		}
		if !e.StartDate.After(r.Start) || e.StartDate.After(r.End) {
			continue
		}
		if !found || e.StartDate.Before(earliest) {
			earliest = e.StartDate
			found = true
		}
	}
	return earliest, found
}

// ActivePause returns the effective range covering d, if any.
func ActivePause(timeline []Entry, d time.Time) (DateRange, bool) {
	for _, r := range EffectivePauses(timeline) {
		if r.Covers(d) {
			return r, true
		}
	}
	return DateRange{}, false
}

// OverlapsAny reports whether candidate intersects any range in ranges.
func OverlapsAny(candidate DateRange, ranges []DateRange) bool {
	for _, r := range ranges {
		if Overlaps(candidate, r) {
			return true
		}
	}
	return false
}
