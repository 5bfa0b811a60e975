package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

// planCmd represents the plan command
var planCmd = &cobra.Command{
	Use:   "plan [date]",
	Short: "Preview a day's allocation without reporting it",
	Long: `Compute the day's work hours and allocate them across the open tasks,
without contacting the gateway or changing the ledger.

Hours already registered for the day are deducted from the budget, so the
plan shows what 'worktime run' would report next.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		showPlan(dayArg(args))
	},
}

func init() {
	rootCmd.AddCommand(planCmd)
}

// showPlan prints the dry-run allocation for a day
func showPlan(input string) {
	svcs, loc, ok := openServices()
	if !ok {
		return
	}
	defer func() { _ = svcs.Close() }()

	day, ok := resolveDay(input, loc)
	if !ok {
		return
	}

	plan, err := svcs.Allocation.Plan(context.Background(), day)
	if err != nil {
		fail("Failed to plan the allocation", err, "")
		return
	}
	printer().Plan(plan)
}
