package util

import "time"

// StartOfDay truncates a time to midnight UTC. All period math in the engine
// works on whole days.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysInclusive returns the number of calendar days between start and end with
// both endpoints counted: DaysInclusive(Jan 1, Jan 1) == 1. Returns 0 when end
// is before start.
func DaysInclusive(start, end time.Time) int {
	s := StartOfDay(start)
	e := StartOfDay(end)
	if e.Before(s) {
		return 0
	}
	return int(e.Sub(s).Hours()/24) + 1
}

// LaterOf returns the later of two times
func LaterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

// EarlierOf returns the earlier of two times
func EarlierOf(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
