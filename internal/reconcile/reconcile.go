// Package reconcile reports allocations to the task-completion gateway and
// merges the gateway's answers into the ledger.
//
// Reconciliation is best-effort and sequential: each task's ledger update is
// committed on its own, the loop stops at the first failure, and updates
// already committed in the same run stay in place.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/xolan/worktime/internal/notify"
	"github.com/xolan/worktime/internal/worklog"
)

// ErrGateway wraps every failure returned by the gateway.
var ErrGateway = errors.New("task-completion gateway failed")

// DefaultComment is attached to every completion when none is configured.
const DefaultComment = "Logged automatically by worktime"

// CompletionRequest reports one allocation against a remote task.
type CompletionRequest struct {
	TaskID        int64
	HoursConsumed decimal.Decimal
	StartTime     time.Time
	EndTime       time.Time
	Comment       string
}

// CompletionResponse is the remote task's state after the report.
type CompletionResponse struct {
	CumulativeConsumed decimal.Decimal
	Status             worklog.TaskStatus
}

// Gateway is the remote task tracker.
type Gateway interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
}

// LedgerWriter persists one reconciled allocation. Implementations must
// commit each call independently.
type LedgerWriter interface {
	ApplyReconciliation(ctx context.Context, runID string, alloc worklog.TaskAllocation, result worklog.ReconciliationResult) error
}

// Report summarizes one Reconcile call.
type Report struct {
	RunID           string
	TasksProcessed  int
	HoursRegistered decimal.Decimal
	Results         []worklog.ReconciliationResult
	// Aborted is set when the loop stopped before the last allocation.
	Aborted bool
	// FailedTaskID is the task whose report failed, when Aborted.
	FailedTaskID int64
}

// Reconciler drives the report-then-merge loop.
type Reconciler struct {
	gateway  Gateway
	ledger   LedgerWriter
	notifier notify.Notifier
	comment  string
	log      zerolog.Logger
}

// New creates a Reconciler. An empty comment falls back to DefaultComment.
func New(gateway Gateway, ledger LedgerWriter, notifier notify.Notifier, comment string, log zerolog.Logger) *Reconciler {
	if comment == "" {
		comment = DefaultComment
	}
	return &Reconciler{
		gateway:  gateway,
		ledger:   ledger,
		notifier: notifier,
		comment:  comment,
		log:      log.With().Str("component", "reconciler").Logger(),
	}
}

// Reconcile reports each allocation in order and merges the result into the
// ledger. It stops at the first gateway or ledger failure and returns the
// partial report together with the error. If at least one task was
// reconciled, a summary notification is sent either way.
func (r *Reconciler) Reconcile(ctx context.Context, runID string, allocations []worklog.TaskAllocation) (Report, error) {
	report := Report{RunID: runID, HoursRegistered: decimal.Zero}

	var loopErr error
	for _, alloc := range allocations {
		result, err := r.reconcileOne(ctx, runID, alloc)
		if err != nil {
			report.Aborted = true
			report.FailedTaskID = alloc.TaskID
			loopErr = err
			break
		}

		report.TasksProcessed++
		report.HoursRegistered = report.HoursRegistered.Add(result.RegisteredHoursDelta)
		report.Results = append(report.Results, result)
	}

	if report.TasksProcessed > 0 {
		summary := notify.Summary(runID, report.TasksProcessed, report.HoursRegistered)
		if err := r.notifier.Notify(ctx, summary); err != nil {
			r.log.Warn().Err(err).Str("run_id", runID).Msg("Failed to send summary notification")
		}
	}

	return report, loopErr
}

func (r *Reconciler) reconcileOne(ctx context.Context, runID string, alloc worklog.TaskAllocation) (worklog.ReconciliationResult, error) {
	resp, err := r.gateway.Complete(ctx, CompletionRequest{
		TaskID:        alloc.TaskID,
		HoursConsumed: alloc.HoursConsumed,
		StartTime:     alloc.StartTime,
		EndTime:       alloc.EndTime,
		Comment:       fmt.Sprintf("%s (run %s)", r.comment, runID),
	})
	if err != nil {
		r.log.Error().
			Err(err).
			Str("run_id", runID).
			Int64("task_id", alloc.TaskID).
			Msg("Gateway rejected allocation")
		if errors.Is(err, ErrGateway) {
			return worklog.ReconciliationResult{}, err
		}
		return worklog.ReconciliationResult{}, fmt.Errorf("%w: task %d: %w", ErrGateway, alloc.TaskID, err)
	}

	result := worklog.ReconciliationResult{
		TaskID:               alloc.TaskID,
		CumulativeConsumed:   resp.CumulativeConsumed,
		RegisteredHoursDelta: alloc.HoursConsumed,
		NewStatus:            resp.Status,
	}

	if err := r.ledger.ApplyReconciliation(ctx, runID, alloc, result); err != nil {
		r.log.Error().
			Err(err).
			Str("run_id", runID).
			Int64("task_id", alloc.TaskID).
			Msg("Failed to merge reconciliation into ledger")
		return worklog.ReconciliationResult{}, fmt.Errorf("failed to update ledger for task %d: %w", alloc.TaskID, err)
	}

	r.log.Info().
		Str("run_id", runID).
		Int64("task_id", alloc.TaskID).
		Str("hours", alloc.HoursConsumed.String()).
		Str("consumed", resp.CumulativeConsumed.String()).
		Str("status", string(resp.Status)).
		Msg("Task reconciled")

	return result, nil
}
