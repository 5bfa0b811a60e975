package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/xolan/worktime/internal/service"
)

// AllocationRunner runs the daily allocation for a date.
type AllocationRunner interface {
	RunDailyAllocation(ctx context.Context, date time.Time) (service.RunResult, error)
}

// DailyAllocationJob runs today's allocation.
type DailyAllocationJob struct {
	runner  AllocationRunner
	loc     *time.Location
	now     func() time.Time
	timeout time.Duration
	log     zerolog.Logger
}

// NewDailyAllocationJob creates the job. now may be nil.
func NewDailyAllocationJob(runner AllocationRunner, loc *time.Location, now func() time.Time, log zerolog.Logger) *DailyAllocationJob {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return &DailyAllocationJob{
		runner:  runner,
		loc:     loc,
		now:     now,
		timeout: 10 * time.Minute,
		log:     log.With().Str("job", "daily_allocation").Logger(),
	}
}

// Name returns the job name
func (j *DailyAllocationJob) Name() string {
	return "daily-allocation"
}

// Run allocates and reports the current day's hours.
func (j *DailyAllocationJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	today := j.now().In(j.loc)
	result, err := j.runner.RunDailyAllocation(ctx, today)
	if err != nil {
		return err
	}

	j.log.Info().
		Str("run_id", result.RunID).
		Str("date", result.Day).
		Int("tasks_processed", result.TasksProcessed).
		Str("hours_registered", result.HoursRegistered.String()).
		Msg("Daily allocation finished")
	return nil
}
