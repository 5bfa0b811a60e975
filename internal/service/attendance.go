package service

import (
	"context"
	"fmt"
	"time"

	"github.com/xolan/worktime/internal/worklog"
)

// ClockWriter records punches.
type ClockWriter interface {
	RecordClockEvent(ctx context.Context, ev worklog.ClockEvent) error
}

// AttendanceService records sign-in and sign-out punches.
type AttendanceService struct {
	clock ClockWriter
	now   func() time.Time
}

// NewAttendanceService creates a new AttendanceService
func NewAttendanceService(clock ClockWriter, now func() time.Time) *AttendanceService {
	if now == nil {
		now = time.Now
	}
	return &AttendanceService{clock: clock, now: now}
}

// Punch records a punch of kind at the given instant, or now when at is zero.
func (s *AttendanceService) Punch(ctx context.Context, kind worklog.ClockKind, at time.Time) (worklog.ClockEvent, error) {
	if at.IsZero() {
		at = s.now()
	}
	ev := worklog.ClockEvent{Kind: kind, Timestamp: at.Truncate(time.Second)}
	if err := s.clock.RecordClockEvent(ctx, ev); err != nil {
		return worklog.ClockEvent{}, fmt.Errorf("failed to record %s: %w", kind, err)
	}
	return ev, nil
}
