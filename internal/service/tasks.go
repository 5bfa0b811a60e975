package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xolan/worktime/internal/timeutil"
	"github.com/xolan/worktime/internal/worklog"
)

// TaskStore manages task records.
type TaskStore interface {
	AddTask(ctx context.Context, t worklog.Task) error
	Task(ctx context.Context, id int64) (worklog.Task, error)
	ListTasks(ctx context.Context, day time.Time) ([]worklog.Task, error)
	SetTaskStatus(ctx context.Context, id int64, status worklog.TaskStatus) error
}

// TaskService provides operations for managing the day's tasks
type TaskService struct {
	store TaskStore
	loc   *time.Location
	now   func() time.Time
}

// NewTaskService creates a new TaskService
func NewTaskService(store TaskStore, loc *time.Location, now func() time.Time) *TaskService {
	if now == nil {
		now = time.Now
	}
	return &TaskService{store: store, loc: loc, now: now}
}

// AddTaskInput describes a task to schedule.
type AddTaskInput struct {
	ID       int64
	Name     string
	Estimate string // e.g. "2h", "1h30m", "2.5"
	Day      time.Time
}

// Add schedules a new task in the wait state.
func (s *TaskService) Add(ctx context.Context, in AddTaskInput) (worklog.Task, error) {
	if in.ID <= 0 {
		return worklog.Task{}, fmt.Errorf("task id must be positive, got %d", in.ID)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return worklog.Task{}, fmt.Errorf("task name cannot be empty")
	}
	estimate, err := worklog.ParseHours(in.Estimate)
	if err != nil {
		return worklog.Task{}, err
	}

	day := in.Day
	if day.IsZero() {
		day = s.now()
	}

	t := worklog.Task{
		ID:            in.ID,
		Name:          name,
		EstimateHours: estimate,
		Status:        worklog.StatusWait,
		ScheduledDay:  timeutil.DayKey(day.In(s.loc)),
		CreatedAt:     s.now(),
	}
	if err := s.store.AddTask(ctx, t); err != nil {
		return worklog.Task{}, err
	}
	return s.store.Task(ctx, t.ID)
}

// List returns the tasks scheduled on day, or every task when all is set.
func (s *TaskService) List(ctx context.Context, day time.Time, all bool) ([]worklog.Task, error) {
	if all {
		return s.store.ListTasks(ctx, time.Time{})
	}
	return s.store.ListTasks(ctx, timeutil.StartOfDay(day.In(s.loc)))
}

// SetStatus parses status and applies it to the task.
func (s *TaskService) SetStatus(ctx context.Context, id int64, status string) (worklog.Task, error) {
	parsed, err := worklog.ParseStatus(status)
	if err != nil {
		return worklog.Task{}, err
	}
	if err := s.store.SetTaskStatus(ctx, id, parsed); err != nil {
		return worklog.Task{}, err
	}
	return s.store.Task(ctx, id)
}
