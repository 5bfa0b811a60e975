// Package notify delivers run summaries and alerts to the user.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/xolan/worktime/internal/worklog"
)

// Kind classifies a notification.
type Kind string

const (
	KindSummary Kind = "summary"
	KindAlert   Kind = "alert"
)

// Notification is a single user-facing message.
type Notification struct {
	Kind            Kind            `json:"kind"`
	Title           string          `json:"title"`
	Body            string          `json:"body"`
	RunID           string          `json:"run_id,omitempty"`
	TasksProcessed  int             `json:"tasks_processed"`
	HoursRegistered decimal.Decimal `json:"hours_registered"`
	At              time.Time       `json:"at"`
}

// Notifier delivers notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Summary builds the end-of-reconciliation message.
func Summary(runID string, tasksProcessed int, hours decimal.Decimal) Notification {
	return Notification{
		Kind:            KindSummary,
		Title:           "Work hours registered",
		Body:            fmt.Sprintf("Registered %s across %d task(s)", worklog.FormatHours(hours), tasksProcessed),
		RunID:           runID,
		TasksProcessed:  tasksProcessed,
		HoursRegistered: hours,
		At:              time.Now(),
	}
}

// Alert builds the message sent when a run is aborted.
func Alert(runID, day string, cause error) Notification {
	return Notification{
		Kind:  KindAlert,
		Title: "Work hour registration failed",
		Body:  fmt.Sprintf("Run for %s stopped: %v", day, cause),
		RunID: runID,
		At:    time.Now(),
	}
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log.With().Str("component", "notify").Logger()}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(_ context.Context, msg Notification) error {
	ev := n.log.Info()
	if msg.Kind == KindAlert {
		ev = n.log.Warn()
	}
	ev.Str("kind", string(msg.Kind)).
		Str("run_id", msg.RunID).
		Int("tasks", msg.TasksProcessed).
		Str("hours", msg.HoursRegistered.String()).
		Str("body", msg.Body).
		Msg(msg.Title)
	return nil
}

// Multi fans a notification out to every notifier and joins their errors.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, msg Notification) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
