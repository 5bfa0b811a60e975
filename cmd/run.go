package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/xolan/worktime/internal/service"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [date]",
	Short: "Allocate a day's hours and report them to the gateway",
	Long: `Run the daily allocation: compute the day's work hours, allocate them to
the open tasks and report every allocation to the gateway in order.

The ledger is backed up before the first report. If the gateway rejects a
task, the run stops there; earlier tasks stay reported and an alert is sent.
Running the same day again only reports hours not yet registered.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runAllocation(dayArg(args))
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// runAllocation runs and prints the daily allocation
func runAllocation(input string) {
	svcs, loc, ok := openServices()
	if !ok {
		return
	}
	defer func() { _ = svcs.Close() }()

	day, ok := resolveDay(input, loc)
	if !ok {
		return
	}

	result, err := svcs.Allocation.RunDailyAllocation(context.Background(), day)
	switch {
	case errors.Is(err, service.ErrNoGateway):
		fail("No gateway configured", err, "Set gateway.url in config.toml or WORKTIME_GATEWAY_URL, or use 'worktime plan' to preview")
		return
	case errors.Is(err, service.ErrRunInProgress):
		fail("Another allocation run is in progress", err, "Wait for it to finish and retry")
		return
	}

	if result.State == service.StateDone || result.State == service.StateAborted {
		printer().Run(result)
	}
	if err != nil {
		fail("Allocation run did not complete", err, "See 'worktime history' for past runs")
	}
}
