// Package timeutil holds the calendar and wall-clock helpers shared by the
// work-hour calculator and the task allocator.
package timeutil

import "time"

// DayLayout is the storage and display layout for calendar days.
const DayLayout = "2006-01-02"

// StartOfDay returns midnight (00:00:00) of the given day in the same timezone
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last nanosecond of the given day (23:59:59.999999999)
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).Add(24*time.Hour - time.Nanosecond)
}

// DayKey formats the calendar day of t, e.g. "2024-01-15".
func DayKey(t time.Time) string {
	return t.Format(DayLayout)
}

// SameDay reports whether a and b fall on the same calendar day in a's location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// Today returns midnight of the current day in loc.
func Today(loc *time.Location) time.Time {
	return StartOfDay(time.Now().In(loc))
}
