package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "worktime",
	Short: "Work-hour accounting and task-time allocation",
	Long: `worktime turns a day's sign-in/sign-out punches into rounded work hours,
spreads those hours across the day's open tasks in half-hour units and
reports each allocation to the task tracker.

Usage:
  worktime punch in|out [--at HH:MM]        Record a punch
  worktime hours [date]                     Show the rounded work hours for a day
  worktime task add <id> <estimate> <name>  Schedule a task
  worktime task list [date]                 List scheduled tasks
  worktime plan [date]                      Preview the allocation without reporting
  worktime run [date]                       Allocate and report a day's hours
  worktime history                          Show past runs
  worktime restore [n]                      Restore the ledger from a backup
  worktime serve                            Start the HTTP API and daily scheduler

Dates accept YYYY-MM-DD, DD/MM/YYYY, 'today' and 'yesterday' (default: today).
Hours accept 2h, 1h30m, 90m or 2.5 and must be multiples of half an hour.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(version, commit, date string) {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(
		"worktime version {{.Version}}\n" +
			"commit: " + commit + "\n" +
			"built: " + date + "\n",
	)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
