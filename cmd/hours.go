package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

// hoursCmd represents the hours command
var hoursCmd = &cobra.Command{
	Use:   "hours [date]",
	Short: "Show the rounded work hours for a day",
	Long: `Show the normalized work hours for a day.

The earliest sign-in is rounded up and the latest sign-out rounded down to
the half hour. The configured blackout window is subtracted when the day
spans it. A day without both punches, or with the sign-out before the
sign-in, shows zero hours.

Examples:
  worktime hours                 Today
  worktime hours yesterday
  worktime hours 2024-03-04`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		showHours(dayArg(args))
	},
}

func init() {
	rootCmd.AddCommand(hoursCmd)
}

// showHours prints the work hours of a day
func showHours(input string) {
	svcs, loc, ok := openServices()
	if !ok {
		return
	}
	defer func() { _ = svcs.Close() }()

	day, ok := resolveDay(input, loc)
	if !ok {
		return
	}

	daily, err := svcs.Hours.Daily(context.Background(), day)
	if err != nil {
		fail("Failed to compute work hours", err, "")
		return
	}
	printer().Hours(daily)
}
