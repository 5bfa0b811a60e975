package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/xolan/worktime/internal/service"
	"github.com/xolan/worktime/internal/storage"
	"github.com/xolan/worktime/internal/worklog"
)

// Printer writes styled reports.
type Printer struct {
	w io.Writer
	s Styles
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer, s Styles) *Printer {
	return &Printer{w: w, s: s}
}

func (p *Printer) line(format string, args ...any) {
	_, _ = fmt.Fprintf(p.w, format+"\n", args...)
}

// Hours prints a day's work hours.
func (p *Printer) Hours(daily worklog.DailyWorkHours) {
	p.line("%s %s", p.s.Title.Render(FormatDay(daily.Date)+":"), p.s.Hours.Render(FormatHours(daily.Hours)))
	if !daily.Hours.IsPositive() {
		p.line("%s", p.s.Muted.Render("No complete sign-in/sign-out pair, or sign-out before sign-in"))
	}
}

// Plan prints the hours, budget and allocations of a plan.
func (p *Printer) Plan(plan service.Plan) {
	p.line("%s", p.s.Title.Render("Allocation for "+FormatDay(plan.Day)))
	p.line("  %s %s", p.s.Label.Render("Work hours:  "), p.s.Value.Render(FormatHours(plan.AvailableHours)))
	p.line("  %s %s", p.s.Label.Render("Registered:  "), p.s.Value.Render(FormatHours(plan.AlreadyRegistered)))
	p.line("  %s %s", p.s.Label.Render("Budget:      "), p.s.Value.Render(FormatHours(plan.Budget)))

	if len(plan.Allocations) == 0 {
		p.line("")
		p.line("%s", p.s.Muted.Render("Nothing to allocate"))
		return
	}

	names := make(map[int64]string, len(plan.Tasks))
	for _, t := range plan.Tasks {
		names[t.ID] = t.Name
	}

	p.line("")
	for _, a := range plan.Allocations {
		p.Allocation(a, names[a.TaskID])
	}
	p.line("")
	p.line("%s %s", p.s.Label.Render("Total:"), p.s.Hours.Render(FormatHours(plan.Allocated())))
}

// Allocation prints one allocation row.
func (p *Printer) Allocation(a worklog.TaskAllocation, name string) {
	row := fmt.Sprintf("  %s  %s  %s",
		p.s.TaskID.Render(fmt.Sprintf("#%-6d", a.TaskID)),
		FormatSpan(a.StartTime, a.EndTime),
		p.s.Hours.Render(fmt.Sprintf("%-7s", FormatHours(a.HoursConsumed))))
	if name != "" {
		row += " " + name
	}
	p.line("%s", strings.TrimRight(row, " "))
}

// Run prints the outcome of a daily run.
func (p *Printer) Run(result service.RunResult) {
	p.Plan(result.Plan)
	p.line("")

	summary := fmt.Sprintf("Registered %s across %d %s (run %s)",
		FormatHours(result.HoursRegistered), result.TasksProcessed, Pluralize("task", result.TasksProcessed), result.RunID)

	switch result.State {
	case service.StateDone:
		p.line("%s", p.s.Success.Render(summary))
	case service.StateAborted:
		p.line("%s", p.s.Warning.Render(summary))
		p.line("%s", p.s.Error.Render(fmt.Sprintf("Stopped at task #%d; remaining allocations were not reported", result.FailedTaskID)))
	default:
		p.line("%s", p.s.Warning.Render(fmt.Sprintf("Run stopped while %s", strings.ReplaceAll(string(result.State), "_", " "))))
	}
}

// Tasks prints a task table.
func (p *Printer) Tasks(tasks []worklog.Task) {
	if len(tasks) == 0 {
		p.line("%s", p.s.Muted.Render("No tasks"))
		return
	}
	for _, t := range tasks {
		p.line("  %s  %-10s  %-6s  %s / %s  %s",
			p.s.TaskID.Render(fmt.Sprintf("#%-6d", t.ID)),
			t.ScheduledDay,
			string(t.Status),
			FormatHours(t.ConsumedHours),
			FormatHours(t.EstimateHours),
			t.Name)
	}
}

// History prints run records, and warnings for unreadable lines.
func (p *Printer) History(history storage.RunHistory) {
	if len(history.Runs) == 0 {
		p.line("%s", p.s.Muted.Render("No runs recorded"))
	}
	for _, r := range history.Runs {
		outcome := p.s.Success.Render(string(r.Outcome))
		if r.Outcome != storage.OutcomeDone {
			outcome = p.s.Error.Render(string(r.Outcome))
		}
		row := fmt.Sprintf("  %s  %s  %-8s  %d %s, %s",
			r.StartedAt.Format("2006-01-02 15:04"),
			r.Day,
			outcome,
			r.TasksProcessed,
			Pluralize("task", r.TasksProcessed),
			FormatHours(r.HoursRegistered))
		if r.Error != "" {
			row += "  " + p.s.Muted.Render(r.Error)
		}
		p.line("%s", row)
	}

	if len(history.Warnings) > 0 {
		p.line("")
		p.line("%s", p.s.Warning.Render(fmt.Sprintf("Warning: %d unreadable %s in run history",
			len(history.Warnings), Pluralize("line", len(history.Warnings)))))
		for _, w := range history.Warnings {
			p.line("%s", FormatCorruptionWarning(w))
		}
	}
}
