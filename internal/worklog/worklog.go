// Package worklog defines the records exchanged between the attendance
// ledger, the task allocator and the task-completion gateway.
package worklog

import (
	"time"

	"github.com/shopspring/decimal"
)

// HalfHour is the allocation unit.
var HalfHour = decimal.New(5, -1)

// ClockKind distinguishes punch records.
type ClockKind string

const (
	SignIn  ClockKind = "sign_in"
	SignOut ClockKind = "sign_out"
)

// ClockEvent is a single raw punch record.
type ClockEvent struct {
	Kind      ClockKind `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
}

// DailyWorkHours is the normalized work-hour figure for one calendar day.
type DailyWorkHours struct {
	Date  time.Time       `json:"date"`
	Hours decimal.Decimal `json:"hours"`
}

// Task is a ledger task record.
type Task struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	EstimateHours   decimal.Decimal `json:"estimate_hours"`
	ConsumedHours   decimal.Decimal `json:"consumed_hours"`
	RegisteredHours decimal.Decimal `json:"registered_hours"`
	Status          TaskStatus      `json:"status"`
	ScheduledDay    string          `json:"scheduled_day"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Remaining returns estimate minus consumed, floored at zero.
func (t Task) Remaining() decimal.Decimal {
	r := t.EstimateHours.Sub(t.ConsumedHours)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// OpenTask is a task still waiting for time on a given day.
type OpenTask struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name,omitempty"`
	RemainingHours decimal.Decimal `json:"remaining_hours"`
	Status         TaskStatus      `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
}

// TaskAllocation is one contiguous slice of the day assigned to a task.
// HoursConsumed is a non-negative multiple of HalfHour.
type TaskAllocation struct {
	TaskID        int64           `json:"task_id"`
	StartTime     time.Time       `json:"start_time"`
	EndTime       time.Time       `json:"end_time"`
	HoursConsumed decimal.Decimal `json:"hours_consumed"`
}

// ReconciliationResult is what gets merged into the ledger for one allocation.
type ReconciliationResult struct {
	TaskID               int64           `json:"task_id"`
	CumulativeConsumed   decimal.Decimal `json:"cumulative_consumed"`
	RegisteredHoursDelta decimal.Decimal `json:"registered_hours_delta"`
	NewStatus            TaskStatus      `json:"new_status"`
}

// SumHours totals HoursConsumed over allocations.
func SumHours(allocations []TaskAllocation) decimal.Decimal {
	total := decimal.Zero
	for _, a := range allocations {
		total = total.Add(a.HoursConsumed)
	}
	return total
}
