package service

import (
	"context"
	"fmt"
	"time"

	"github.com/xolan/worktime/internal/timeutil"
	"github.com/xolan/worktime/internal/workhours"
	"github.com/xolan/worktime/internal/worklog"
)

// ClockReader reads a day's punches.
type ClockReader interface {
	DayClockEvents(ctx context.Context, day time.Time) (signIn, signOut *time.Time, err error)
}

// HoursService answers work-hour queries.
type HoursService struct {
	clock ClockReader
	calc  *workhours.Calculator
	loc   *time.Location
}

// NewHoursService creates a new HoursService
func NewHoursService(clock ClockReader, calc *workhours.Calculator, loc *time.Location) *HoursService {
	return &HoursService{clock: clock, calc: calc, loc: loc}
}

// Daily returns the normalized work hours for the day containing date.
// A day with a missing punch has zero hours.
func (s *HoursService) Daily(ctx context.Context, date time.Time) (worklog.DailyWorkHours, error) {
	day := timeutil.StartOfDay(date.In(s.loc))

	signIn, signOut, err := s.clock.DayClockEvents(ctx, day)
	if err != nil {
		return worklog.DailyWorkHours{}, fmt.Errorf("failed to read punches for %s: %w", timeutil.DayKey(day), err)
	}

	return s.calc.Daily(day, signIn, signOut), nil
}
