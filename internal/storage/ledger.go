// Package storage persists the attendance and task ledger in SQLite, keeps
// a JSON Lines history of allocation runs, and rotates ledger backups.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/xolan/worktime/internal/timeutil"
	"github.com/xolan/worktime/internal/worklog"
)

const (
	// LedgerFile is the SQLite database holding punches, tasks and registrations.
	LedgerFile = "ledger.db"

	// timestampLayout is fixed-width so stored UTC instants sort as text.
	timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

var (
	// ErrTaskNotFound is returned when a task id is not in the ledger.
	ErrTaskNotFound = errors.New("task not found")
	// ErrTaskExists is returned when adding a task id twice.
	ErrTaskExists = errors.New("task already exists")
)

const schema = `
CREATE TABLE IF NOT EXISTS clock_events (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	kind TEXT NOT NULL CHECK (kind IN ('sign_in', 'sign_out')),
	at   TEXT NOT NULL,
	day  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_clock_events_day ON clock_events(day);

CREATE TABLE IF NOT EXISTS tasks (
	id               INTEGER PRIMARY KEY,
	seq              INTEGER NOT NULL,
	name             TEXT NOT NULL,
	estimate_hours   TEXT NOT NULL,
	consumed_hours   TEXT NOT NULL DEFAULT '0',
	registered_hours TEXT NOT NULL DEFAULT '0',
	status           TEXT NOT NULL,
	scheduled_day    TEXT NOT NULL,
	created_at       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tasks_day_status ON tasks(scheduled_day, status);

CREATE TABLE IF NOT EXISTS registrations (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id   TEXT NOT NULL,
	task_id  INTEGER NOT NULL REFERENCES tasks(id),
	day      TEXT NOT NULL,
	start_at TEXT NOT NULL,
	end_at   TEXT NOT NULL,
	hours    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_registrations_day ON registrations(day);
`

// Ledger is the SQLite-backed ledger store. Reads and writes are
// per-call; there is no locking across calls, so callers serialize runs.
type Ledger struct {
	db   *sql.DB
	path string
	loc  *time.Location
}

// GetLedgerPath returns the ledger location inside dataDir, creating the
// directory if needed.
func GetLedgerPath(dataDir string) (string, error) {
	absDir, err := filepath.Abs(dataDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve data directory: %w", err)
	}
	if err := os.MkdirAll(absDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return filepath.Join(absDir, LedgerFile), nil
}

// OpenLedger opens (and migrates) the ledger at path. Days are interpreted in loc.
func OpenLedger(path string, loc *time.Location) (*Ledger, error) {
	if loc == nil {
		loc = time.Local
	}

	connStr := path + "?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(FULL)" +
		"&_pragma=foreign_keys(1)" +
		"&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping ledger: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate ledger: %w", err)
	}

	return &Ledger{db: db, path: path, loc: loc}, nil
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Path returns the database file path.
func (l *Ledger) Path() string {
	return l.path
}

// withTransaction runs fn in a transaction, rolling back on error or panic.
func (l *Ledger) withTransaction(ctx context.Context, fn func(*sql.Tx) error) (err error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			err = fmt.Errorf("panic in transaction: %v", p)
		} else if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("transaction failed: %w (rollback also failed: %v)", err, rbErr)
			}
		} else if commitErr := tx.Commit(); commitErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", commitErr)
		}
	}()

	return fn(tx)
}

// RecordClockEvent stores a punch.
func (l *Ledger) RecordClockEvent(ctx context.Context, ev worklog.ClockEvent) error {
	at := ev.Timestamp.In(l.loc)
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO clock_events (kind, at, day) VALUES (?, ?, ?)`,
		string(ev.Kind), formatTimestamp(at), timeutil.DayKey(at))
	if err != nil {
		return fmt.Errorf("failed to record clock event: %w", err)
	}
	return nil
}

// DayClockEvents returns the earliest sign-in and latest sign-out of day.
// Either is nil when no such punch exists.
func (l *Ledger) DayClockEvents(ctx context.Context, day time.Time) (signIn, signOut *time.Time, err error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT kind, at FROM clock_events WHERE day = ?`, timeutil.DayKey(day.In(l.loc)))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query clock events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind, raw string
		if err := rows.Scan(&kind, &raw); err != nil {
			return nil, nil, fmt.Errorf("failed to scan clock event: %w", err)
		}
		at, err := l.parseTimestamp(raw)
		if err != nil {
			return nil, nil, err
		}

		switch worklog.ClockKind(kind) {
		case worklog.SignIn:
			if signIn == nil || at.Before(*signIn) {
				signIn = &at
			}
		case worklog.SignOut:
			if signOut == nil || at.After(*signOut) {
				signOut = &at
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read clock events: %w", err)
	}

	return signIn, signOut, nil
}

// RegisteredHours sums the hours already registered against tasks on day.
func (l *Ledger) RegisteredHours(ctx context.Context, day time.Time) (decimal.Decimal, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT hours FROM registrations WHERE day = ?`, timeutil.DayKey(day.In(l.loc)))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query registrations: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var h decimal.Decimal
		if err := rows.Scan(&h); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan registration: %w", err)
		}
		total = total.Add(h)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("failed to read registrations: %w", err)
	}
	return total, nil
}

// OpenTasks returns the wait/doing tasks scheduled for day in insertion
// order. Ordering policies are applied by the caller.
func (l *Ledger) OpenTasks(ctx context.Context, day time.Time) ([]worklog.OpenTask, error) {
	tasks, err := l.queryTasks(ctx,
		`WHERE scheduled_day = ? AND status IN (?, ?)`,
		timeutil.DayKey(day.In(l.loc)), string(worklog.StatusWait), string(worklog.StatusDoing))
	if err != nil {
		return nil, err
	}

	open := make([]worklog.OpenTask, 0, len(tasks))
	for _, t := range tasks {
		open = append(open, worklog.OpenTask{
			ID:             t.ID,
			Name:           t.Name,
			RemainingHours: t.Remaining(),
			Status:         t.Status,
			CreatedAt:      t.CreatedAt,
		})
	}
	return open, nil
}

// ApplyReconciliation merges one reconciled allocation: consumed hours are
// replaced by the gateway's cumulative figure, registered hours grow by the
// delta, the status is overwritten and a registration row is written.
// The update is its own transaction.
func (l *Ledger) ApplyReconciliation(ctx context.Context, runID string, alloc worklog.TaskAllocation, result worklog.ReconciliationResult) error {
	return l.withTransaction(ctx, func(tx *sql.Tx) error {
		var registered decimal.Decimal
		err := tx.QueryRowContext(ctx, `SELECT registered_hours FROM tasks WHERE id = ?`, result.TaskID).Scan(&registered)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %d", ErrTaskNotFound, result.TaskID)
		}
		if err != nil {
			return fmt.Errorf("failed to read task %d: %w", result.TaskID, err)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE tasks SET consumed_hours = ?, registered_hours = ?, status = ? WHERE id = ?`,
			result.CumulativeConsumed.String(),
			registered.Add(result.RegisteredHoursDelta).String(),
			string(result.NewStatus),
			result.TaskID)
		if err != nil {
			return fmt.Errorf("failed to update task %d: %w", result.TaskID, err)
		}

		start := alloc.StartTime.In(l.loc)
		_, err = tx.ExecContext(ctx,
			`INSERT INTO registrations (run_id, task_id, day, start_at, end_at, hours) VALUES (?, ?, ?, ?, ?, ?)`,
			runID, result.TaskID, timeutil.DayKey(start),
			formatTimestamp(start), formatTimestamp(alloc.EndTime), result.RegisteredHoursDelta.String())
		if err != nil {
			return fmt.Errorf("failed to record registration for task %d: %w", result.TaskID, err)
		}
		return nil
	})
}

// AddTask inserts a task. Zero CreatedAt means now; empty Status means wait.
func (l *Ledger) AddTask(ctx context.Context, t worklog.Task) error {
	if err := worklog.ValidateHours(t.EstimateHours); err != nil {
		return err
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("task name cannot be empty")
	}
	if t.Status == "" {
		t.Status = worklog.StatusWait
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	return l.withTransaction(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks WHERE id = ?`, t.ID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check task %d: %w", t.ID, err)
		}
		if exists > 0 {
			return fmt.Errorf("%w: %d", ErrTaskExists, t.ID)
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO tasks (id, seq, name, estimate_hours, consumed_hours, registered_hours, status, scheduled_day, created_at)
			 VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM tasks), ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.Name, t.EstimateHours.String(), t.ConsumedHours.String(), t.RegisteredHours.String(),
			string(t.Status), t.ScheduledDay, formatTimestamp(t.CreatedAt))
		if err != nil {
			return fmt.Errorf("failed to insert task %d: %w", t.ID, err)
		}
		return nil
	})
}

// Task returns a single task.
func (l *Ledger) Task(ctx context.Context, id int64) (worklog.Task, error) {
	tasks, err := l.queryTasks(ctx, `WHERE id = ?`, id)
	if err != nil {
		return worklog.Task{}, err
	}
	if len(tasks) == 0 {
		return worklog.Task{}, fmt.Errorf("%w: %d", ErrTaskNotFound, id)
	}
	return tasks[0], nil
}

// ListTasks returns all tasks, or only those scheduled on day when day is non-zero.
func (l *Ledger) ListTasks(ctx context.Context, day time.Time) ([]worklog.Task, error) {
	if day.IsZero() {
		return l.queryTasks(ctx, ``)
	}
	return l.queryTasks(ctx, `WHERE scheduled_day = ?`, timeutil.DayKey(day.In(l.loc)))
}

// SetTaskStatus overwrites a task's status.
func (l *Ledger) SetTaskStatus(ctx context.Context, id int64, status worklog.TaskStatus) error {
	res, err := l.db.ExecContext(ctx, `UPDATE tasks SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update task %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update task %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrTaskNotFound, id)
	}
	return nil
}

func (l *Ledger) queryTasks(ctx context.Context, where string, args ...any) ([]worklog.Task, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, name, estimate_hours, consumed_hours, registered_hours, status, scheduled_day, created_at
		 FROM tasks `+where+` ORDER BY seq`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []worklog.Task
	for rows.Next() {
		var (
			t       worklog.Task
			status  string
			created string
		)
		if err := rows.Scan(&t.ID, &t.Name, &t.EstimateHours, &t.ConsumedHours, &t.RegisteredHours,
			&status, &t.ScheduledDay, &created); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		t.Status = worklog.TaskStatus(status)
		if t.CreatedAt, err = l.parseTimestamp(created); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tasks: %w", err)
	}
	return tasks, nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func (l *Ledger) parseTimestamp(raw string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupt timestamp %q in ledger: %w", raw, err)
	}
	return t.In(l.loc), nil
}
