package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xolan/worktime/internal/timeutil"
	"github.com/xolan/worktime/internal/worklog"
)

// punchCmd represents the punch command
var punchCmd = &cobra.Command{
	Use:   "punch <in|out>",
	Short: "Record a sign-in or sign-out",
	Long: `Record an attendance punch. Without --at the current time is used.

Examples:
  worktime punch in
  worktime punch out --at 17:12
  worktime punch in --at 08:47 --date yesterday`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"in", "out"},
	Run: func(cmd *cobra.Command, args []string) {
		at, _ := cmd.Flags().GetString("at")
		date, _ := cmd.Flags().GetString("date")
		punch(args[0], at, date)
	},
}

func init() {
	rootCmd.AddCommand(punchCmd)

	punchCmd.Flags().String("at", "", "Time of the punch (HH:MM)")
	punchCmd.Flags().String("date", "", "Day of the punch, used with --at (default: today)")
}

// punch records a clock event
func punch(kindArg, atArg, dateArg string) {
	kind, err := worklog.ParseClockKind(kindArg)
	if err != nil {
		fail("Invalid punch", err, "Use 'worktime punch in' or 'worktime punch out'")
		return
	}
	if dateArg != "" && atArg == "" {
		fail("--date requires --at", nil, "Example: worktime punch in --at 08:47 --date yesterday")
		return
	}

	svcs, loc, ok := openServices()
	if !ok {
		return
	}
	defer func() { _ = svcs.Close() }()

	var at time.Time
	if atArg != "" {
		day, ok := resolveDay(dateArg, loc)
		if !ok {
			return
		}
		clock, err := timeutil.ParseClock(atArg)
		if err != nil {
			fail(fmt.Sprintf("Invalid time '%s'", atArg), err, "Use 24-hour HH:MM, e.g., 08:47")
			return
		}
		at = clock.On(day)
	}

	ev, err := svcs.Attendance.Punch(context.Background(), kind, at)
	if err != nil {
		fail("Failed to record punch", err, "")
		return
	}

	verb := "Signed in"
	if ev.Kind == worklog.SignOut {
		verb = "Signed out"
	}
	ts := ev.Timestamp.In(loc)
	_, _ = fmt.Fprintf(deps.Stdout, "%s at %s on %s\n", verb, ts.Format("15:04"), timeutil.DayKey(ts))
}
