package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xolan/worktime/internal/cli"
	"github.com/xolan/worktime/internal/service"
	"github.com/xolan/worktime/internal/storage"
)

// taskCmd represents the task command
var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage scheduled tasks",
	Long: `Manage the tasks that daily runs allocate hours to.

A task is open while its status is wait or doing. Open tasks scheduled on
a day receive that day's hours, in insertion order by default.`,
}

var taskAddCmd = &cobra.Command{
	Use:   "add <id> <estimate> <name...>",
	Short: "Schedule a task",
	Long: `Schedule a task from the tracker for a day.

The id is the tracker's task id. The estimate accepts 2h, 1h30m, 90m or 2.5
and must be a multiple of half an hour.

Examples:
  worktime task add 1042 3h Review release notes
  worktime task add 1043 1h30m Fix login bug --date 2024-03-04`,
	Args: cobra.MinimumNArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		date, _ := cmd.Flags().GetString("date")
		addTask(args, date)
	},
}

var taskListCmd = &cobra.Command{
	Use:   "list [date]",
	Short: "List tasks scheduled on a day",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		all, _ := cmd.Flags().GetBool("all")
		listTasks(dayArg(args), all)
	},
}

var taskStatusCmd = &cobra.Command{
	Use:   "status <id> <status>",
	Short: "Change a task's status",
	Long: `Change a task's status: wait, doing, done, pause, cancel or closed.
Only wait and doing tasks receive hours.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		setTaskStatus(args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(taskCmd)
	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskStatusCmd)

	taskAddCmd.Flags().String("date", "", "Day the task is scheduled on (default: today)")
	taskListCmd.Flags().BoolP("all", "a", false, "List tasks of every day")
}

func parseTaskID(arg string) (int64, bool) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		fail(fmt.Sprintf("Invalid task id '%s'", arg), nil, "Task ids are positive integers from the tracker")
		return 0, false
	}
	return id, true
}

// addTask schedules a task from "<id> <estimate> <name...>"
func addTask(args []string, dateArg string) {
	id, ok := parseTaskID(args[0])
	if !ok {
		return
	}

	svcs, loc, ok := openServices()
	if !ok {
		return
	}
	defer func() { _ = svcs.Close() }()

	day, ok := resolveDay(dateArg, loc)
	if !ok {
		return
	}

	t, err := svcs.Tasks.Add(context.Background(), service.AddTaskInput{
		ID:       id,
		Name:     strings.Join(args[2:], " "),
		Estimate: args[1],
		Day:      day,
	})
	switch {
	case errors.Is(err, storage.ErrTaskExists):
		fail(fmt.Sprintf("Task #%d already exists", id), err, "Use 'worktime task list --all' to see scheduled tasks")
		return
	case err != nil:
		fail("Failed to add task", err, "Estimates look like 2h, 1h30m or 2.5 (half-hour multiples)")
		return
	}

	_, _ = fmt.Fprintf(deps.Stdout, "Added task #%d: %s (%s) on %s\n", t.ID, t.Name, cli.FormatHours(t.EstimateHours), t.ScheduledDay)
}

// listTasks prints the tasks of a day, or all of them
func listTasks(input string, all bool) {
	svcs, loc, ok := openServices()
	if !ok {
		return
	}
	defer func() { _ = svcs.Close() }()

	day, ok := resolveDay(input, loc)
	if !ok {
		return
	}

	tasks, err := svcs.Tasks.List(context.Background(), day, all)
	if err != nil {
		fail("Failed to list tasks", err, "")
		return
	}
	printer().Tasks(tasks)
}

// setTaskStatus changes the status of one task
func setTaskStatus(idArg, status string) {
	id, ok := parseTaskID(idArg)
	if !ok {
		return
	}

	svcs, _, ok := openServices()
	if !ok {
		return
	}
	defer func() { _ = svcs.Close() }()

	t, err := svcs.Tasks.SetStatus(context.Background(), id, status)
	switch {
	case errors.Is(err, storage.ErrTaskNotFound):
		fail(fmt.Sprintf("Task #%d not found", id), err, "Use 'worktime task list --all' to see scheduled tasks")
		return
	case err != nil:
		fail("Failed to update task", err, "Valid statuses: wait, doing, done, pause, cancel, closed")
		return
	}

	_, _ = fmt.Fprintf(deps.Stdout, "Task #%d is now %s\n", t.ID, t.Status)
}
