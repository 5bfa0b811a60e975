package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/xolan/worktime/internal/allocation"
	"github.com/xolan/worktime/internal/notify"
	"github.com/xolan/worktime/internal/reconcile"
	"github.com/xolan/worktime/internal/storage"
	"github.com/xolan/worktime/internal/timeutil"
	"github.com/xolan/worktime/internal/workhours"
)

var (
	// ErrRunInProgress is returned when a run for another day is still active.
	ErrRunInProgress = errors.New("another allocation run is in progress")
	// ErrNoGateway is returned by RunDailyAllocation when no gateway is configured.
	ErrNoGateway = errors.New("task-completion gateway is not configured")
)

// AllocationService plans and runs the daily allocation.
//
// Runs are serialized: concurrent calls for the same day share one run,
// and a call for a different day fails with ErrRunInProgress.
type AllocationService struct {
	ledger     Ledger
	calc       *workhours.Calculator
	allocator  *allocation.Allocator
	order      allocation.Order
	reconciler *reconcile.Reconciler
	notifier   notify.Notifier
	runsPath   string
	loc        *time.Location
	log        zerolog.Logger
	now        func() time.Time

	group   singleflight.Group
	running sync.Mutex
}

// AllocationOptions configures an AllocationService.
type AllocationOptions struct {
	Calculator *workhours.Calculator
	Allocator  *allocation.Allocator
	Order      allocation.Order
	// Reconciler may be nil, in which case only Plan is available.
	Reconciler *reconcile.Reconciler
	Notifier   notify.Notifier
	RunsPath   string
	Location   *time.Location
	Now        func() time.Time
}

// NewAllocationService creates a new AllocationService
func NewAllocationService(ledger Ledger, opts AllocationOptions, log zerolog.Logger) *AllocationService {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.NewLogNotifier(log)
	}
	return &AllocationService{
		ledger:     ledger,
		calc:       opts.Calculator,
		allocator:  opts.Allocator,
		order:      opts.Order,
		reconciler: opts.Reconciler,
		notifier:   opts.Notifier,
		runsPath:   opts.RunsPath,
		loc:        opts.Location,
		log:        log.With().Str("component", "allocation").Logger(),
		now:        opts.Now,
	}
}

// Plan computes the day's hours and allocations without contacting the
// gateway or writing to the ledger.
func (s *AllocationService) Plan(ctx context.Context, date time.Time) (Plan, error) {
	day := timeutil.StartOfDay(date.In(s.loc))
	plan := Plan{Day: day}

	if err := s.computeHours(ctx, &plan); err != nil {
		return plan, err
	}
	if err := s.allocate(ctx, &plan); err != nil {
		return plan, err
	}
	return plan, nil
}

func (s *AllocationService) computeHours(ctx context.Context, plan *Plan) error {
	signIn, signOut, err := s.ledger.DayClockEvents(ctx, plan.Day)
	if err != nil {
		return fmt.Errorf("failed to read punches: %w", err)
	}
	plan.AvailableHours = s.calc.ComputeDailyHours(signIn, signOut)

	if plan.AvailableHours.IsNegative() {
		s.log.Warn().
			Str("date", timeutil.DayKey(plan.Day)).
			Str("hours", plan.AvailableHours.String()).
			Msg("Sign-out precedes sign-in; no hours to allocate")
	}
	return nil
}

func (s *AllocationService) allocate(ctx context.Context, plan *Plan) error {
	registered, err := s.ledger.RegisteredHours(ctx, plan.Day)
	if err != nil {
		return fmt.Errorf("failed to read registered hours: %w", err)
	}
	tasks, err := s.ledger.OpenTasks(ctx, plan.Day)
	if err != nil {
		return fmt.Errorf("failed to read open tasks: %w", err)
	}

	plan.AlreadyRegistered = registered
	plan.Budget = plan.AvailableHours.Sub(registered)
	plan.Tasks = allocation.SortTasks(tasks, s.order)
	plan.Allocations = s.allocator.Allocate(plan.Day, plan.AvailableHours, plan.Tasks, registered)
	return nil
}

// RunDailyAllocation computes the day's hours, allocates them across the
// open tasks and reports every allocation to the gateway. Reconciliation
// stops at the first failure; updates already applied are kept. The
// returned result is populated as far as the run got, even on error.
// Once started, a run is not cancelled by ctx.
func (s *AllocationService) RunDailyAllocation(ctx context.Context, date time.Time) (RunResult, error) {
	if s.reconciler == nil {
		return RunResult{}, ErrNoGateway
	}

	day := timeutil.StartOfDay(date.In(s.loc))
	key := timeutil.DayKey(day)

	v, err, shared := s.group.Do(key, func() (any, error) {
		if !s.running.TryLock() {
			return RunResult{Day: key, State: StateIdle}, fmt.Errorf("%w (requested %s)", ErrRunInProgress, key)
		}
		defer s.running.Unlock()
		return s.run(context.WithoutCancel(ctx), day)
	})
	if shared {
		s.log.Debug().Str("date", key).Msg("Joined in-flight run")
	}
	return v.(RunResult), err
}

func (s *AllocationService) run(ctx context.Context, day time.Time) (RunResult, error) {
	started := s.now()
	result := RunResult{
		RunID:           uuid.NewString(),
		Day:             timeutil.DayKey(day),
		State:           StateIdle,
		HoursRegistered: decimal.Zero,
	}
	log := s.log.With().Str("run_id", result.RunID).Str("date", result.Day).Logger()

	transition := func(next RunState) {
		log.Info().Str("from", string(result.State)).Str("to", string(next)).Msg("Run state changed")
		result.State = next
	}

	result.Plan.Day = day

	transition(StateComputingHours)
	if err := s.computeHours(ctx, &result.Plan); err != nil {
		return s.fail(ctx, log, result, started, err)
	}

	transition(StateAllocating)
	if err := s.allocate(ctx, &result.Plan); err != nil {
		return s.fail(ctx, log, result, started, err)
	}
	log.Info().
		Str("available", result.Plan.AvailableHours.String()).
		Str("budget", result.Plan.Budget.String()).
		Int("open_tasks", len(result.Plan.Tasks)).
		Int("allocations", len(result.Plan.Allocations)).
		Msg("Allocation computed")

	transition(StateReconciling)
	if len(result.Plan.Allocations) > 0 {
		if err := s.ledger.Backup(ctx); err != nil {
			return s.fail(ctx, log, result, started, fmt.Errorf("failed to back up ledger: %w", err))
		}
	}

	report, err := s.reconciler.Reconcile(ctx, result.RunID, result.Plan.Allocations)
	result.TasksProcessed = report.TasksProcessed
	result.HoursRegistered = report.HoursRegistered
	result.Results = report.Results
	result.FailedTaskID = report.FailedTaskID
	if err != nil {
		transition(StateAborted)
		return s.fail(ctx, log, result, started, err)
	}

	transition(StateDone)
	s.record(log, result, started, nil)
	return result, nil
}

// fail logs cause, sends an alert and records the run.
func (s *AllocationService) fail(ctx context.Context, log zerolog.Logger, result RunResult, started time.Time, cause error) (RunResult, error) {
	log.Error().
		Err(cause).
		Str("state", string(result.State)).
		Int("tasks_processed", result.TasksProcessed).
		Msg("Allocation run failed")

	if err := s.notifier.Notify(ctx, notify.Alert(result.RunID, result.Day, cause)); err != nil {
		log.Warn().Err(err).Msg("Failed to send alert notification")
	}

	s.record(log, result, started, cause)
	return result, cause
}

func (s *AllocationService) record(log zerolog.Logger, result RunResult, started time.Time, cause error) {
	if s.runsPath == "" {
		return
	}

	rec := storage.RunRecord{
		RunID:           result.RunID,
		Day:             result.Day,
		StartedAt:       started,
		FinishedAt:      s.now(),
		Outcome:         storage.OutcomeDone,
		AvailableHours:  result.Plan.AvailableHours,
		TasksProcessed:  result.TasksProcessed,
		HoursRegistered: result.HoursRegistered,
		FailedTaskID:    result.FailedTaskID,
	}
	if cause != nil {
		rec.Outcome = storage.OutcomeFailed
		if result.State == StateAborted {
			rec.Outcome = storage.OutcomeAborted
		}
		rec.Error = cause.Error()
	}

	if err := storage.AppendRun(s.runsPath, rec); err != nil {
		log.Warn().Err(err).Str("path", s.runsPath).Msg("Failed to append run history")
	}
}
