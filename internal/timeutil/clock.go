package timeutil

import (
	"fmt"
	"time"
)

// Clock is a wall-clock time of day with minute precision.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses "HH:MM" (24h).
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return Clock{}, fmt.Errorf("invalid clock time '%s' (use HH:MM, e.g., 08:30)", s)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// MustClock is ParseClock for package-level defaults.
func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// On returns the instant of c on the calendar day of day.
func (c Clock) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour, c.Minute, 0, 0, day.Location())
}

// Minutes returns the number of minutes since midnight.
func (c Clock) Minutes() int {
	return c.Hour*60 + c.Minute
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Window is a fixed daily interval [Start, End).
type Window struct {
	Start Clock
	End   Clock
}

// LunchBreak is the default blackout window, 12:00 to 13:00.
var LunchBreak = Window{Start: Clock{Hour: 12}, End: Clock{Hour: 13}}

// On returns the window's bounds on the calendar day of day.
func (w Window) On(day time.Time) (start, end time.Time) {
	return w.Start.On(day), w.End.On(day)
}

// Length returns End - Start.
func (w Window) Length() time.Duration {
	return time.Duration(w.End.Minutes()-w.Start.Minutes()) * time.Minute
}

// StartsAt reports whether t sits exactly on the window start (seconds included).
func (w Window) StartsAt(t time.Time) bool {
	return t.Hour() == w.Start.Hour && t.Minute() == w.Start.Minute && t.Second() == 0 && t.Nanosecond() == 0
}

// Valid reports whether the window has a positive length.
func (w Window) Valid() bool {
	return w.End.Minutes() > w.Start.Minutes()
}

func (w Window) String() string {
	return w.Start.String() + "-" + w.End.String()
}
