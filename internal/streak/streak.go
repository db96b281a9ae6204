// Package streak computes activity streaks from a user's streak log.
//
// Dates are compared as calendar days in a single location supplied by the
// caller, never as raw timestamps. The log is expected in insertion order,
// which is chronological, and may hold several entries for the same day.
package streak

import "time"

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// NextDay reports whether next falls on the calendar day after prev in loc.
func NextDay(prev, next time.Time, loc *time.Location) bool {
	return SameDay(dayBefore(next, loc), prev, loc)
}

// Current returns the number of consecutive calendar days ending today, or
// yesterday when nothing has been logged today yet.
func Current(dates []time.Time, today time.Time, loc *time.Location) int {
	if len(dates) == 0 {
		return 0
	}

	expected := today
	if !SameDay(dates[len(dates)-1], today, loc) {
		expected = dayBefore(today, loc)
	}

	count := 0
	var lastMatched time.Time
	for i := len(dates) - 1; i >= 0; i-- {
		d := dates[i]
		if count > 0 && SameDay(d, lastMatched, loc) {
			continue
		}
		if !SameDay(d, expected, loc) {
			break
		}
		count++
		lastMatched = d
		expected = dayBefore(expected, loc)
	}
	return count
}

// Longest returns the longest run of consecutive calendar days in dates.
// dates must be sorted ascending.
func Longest(dates []time.Time, loc *time.Location) int {
	if len(dates) < 2 {
		return len(dates)
	}

	longest, running := 1, 1
	for i := 1; i < len(dates); i++ {
		prev, cur := dates[i-1], dates[i]
		switch {
		case NextDay(prev, cur, loc):
			running++
		case SameDay(prev, cur, loc):
		default:
			running = 1
		}
		if running > longest {
			longest = running
		}
	}
	return longest
}

// dayBefore returns noon of the previous calendar day in loc. Noon keeps DST
// shifts from landing on the wrong day.
func dayBefore(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d-1, 12, 0, 0, 0, loc)
}
