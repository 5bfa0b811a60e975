// Package service wires the ledger, the work-hour calculator, the allocator
// and the reconciler into the operations exposed by the CLI, the HTTP API
// and the scheduler.
package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xolan/worktime/internal/worklog"
)

// RunState is a step of a daily allocation run.
type RunState string

const (
	StateIdle           RunState = "idle"
	StateComputingHours RunState = "computing_hours"
	StateAllocating     RunState = "allocating"
	StateReconciling    RunState = "reconciling"
	StateDone           RunState = "done"
	StateAborted        RunState = "aborted"
)

// Ledger is the subset of the ledger store used by a run.
type Ledger interface {
	DayClockEvents(ctx context.Context, day time.Time) (signIn, signOut *time.Time, err error)
	RegisteredHours(ctx context.Context, day time.Time) (decimal.Decimal, error)
	OpenTasks(ctx context.Context, day time.Time) ([]worklog.OpenTask, error)
	ApplyReconciliation(ctx context.Context, runID string, alloc worklog.TaskAllocation, result worklog.ReconciliationResult) error
	Backup(ctx context.Context) error
}

// Plan is the outcome of computing hours and allocating them, without
// reporting anything.
type Plan struct {
	Day               time.Time                `json:"day"`
	AvailableHours    decimal.Decimal          `json:"available_hours"`
	AlreadyRegistered decimal.Decimal          `json:"already_registered"`
	Budget            decimal.Decimal          `json:"budget"`
	Tasks             []worklog.OpenTask       `json:"tasks"`
	Allocations       []worklog.TaskAllocation `json:"allocations"`
}

// Allocated sums the hours in the plan's allocations.
func (p Plan) Allocated() decimal.Decimal {
	return worklog.SumHours(p.Allocations)
}

// RunResult is returned by RunDailyAllocation.
type RunResult struct {
	RunID           string                         `json:"run_id"`
	Day             string                         `json:"day"`
	State           RunState                       `json:"state"`
	Plan            Plan                           `json:"plan"`
	TasksProcessed  int                            `json:"tasks_processed"`
	HoursRegistered decimal.Decimal                `json:"hours_registered"`
	Results         []worklog.ReconciliationResult `json:"results,omitempty"`
	FailedTaskID    int64                          `json:"failed_task_id,omitempty"`
}
