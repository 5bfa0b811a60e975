package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past allocation runs",
	Long: `Show past allocation runs, newest first, with their outcome and the hours
they reported. Runs are read from runs.jsonl in the data directory.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("limit")
		showHistory(limit)
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntP("limit", "n", 20, "Number of runs to show (0 for all)")
}

// showHistory prints the run history
func showHistory(limit int) {
	if limit < 0 {
		fail(fmt.Sprintf("Invalid limit %d", limit), nil, "Use 0 to show every run")
		return
	}

	svcs, _, ok := openServices()
	if !ok {
		return
	}
	defer func() { _ = svcs.Close() }()

	history, err := svcs.History.Runs(limit)
	if err != nil {
		fail("Failed to read run history", err, "")
		return
	}

	printer().History(history)
}
