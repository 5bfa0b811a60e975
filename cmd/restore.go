package cmd

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/xolan/worktime/internal/storage"
)

// restoreCmd represents the restore command
var restoreCmd = &cobra.Command{
	Use:   "restore [backup_number]",
	Short: "Restore the ledger from a backup",
	Long: `Restore the ledger database from a backup.

A backup is taken before every run that reports hours, and the last three
are kept. By default, restores from the most recent backup (.bak.1).
The current ledger becomes the new .bak.1, so a restore can be undone.

Examples:
  worktime restore       Restore from most recent backup
  worktime restore 2     Restore from backup #2`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		restoreFromBackup(args)
	},
}

func init() {
	rootCmd.AddCommand(restoreCmd)
}

// ledgerPath resolves the ledger path without opening it
func ledgerPath() (string, bool) {
	_, cfg, ok := loadConfig()
	if !ok {
		return "", false
	}
	dataDir, err := cfg.ResolveDataDir()
	if err != nil {
		fail("Failed to resolve data directory", err, "Check data_dir in config.toml")
		return "", false
	}
	path, err := storage.GetLedgerPath(dataDir)
	if err != nil {
		fail("Failed to get ledger path", err, "")
		return "", false
	}
	return path, true
}

// restoreFromBackup lists the backups and restores the requested one
func restoreFromBackup(args []string) {
	backupNum := 1
	if len(args) > 0 {
		num, err := strconv.Atoi(args[0])
		if err != nil {
			fail(fmt.Sprintf("Invalid backup number '%s'", args[0]), nil, "")
			return
		}
		if num < 1 || num > storage.MaxBackupCount {
			fail(fmt.Sprintf("Backup number must be between 1 and %d (got %d)", storage.MaxBackupCount, num), nil, "")
			return
		}
		backupNum = num
	}

	path, ok := ledgerPath()
	if !ok {
		return
	}

	backups, err := storage.ListBackups(path)
	if err != nil {
		fail("Failed to list backups", err, "")
		return
	}
	if len(backups) == 0 {
		_, _ = fmt.Fprintln(deps.Stdout, "No backups available")
		deps.Exit(1)
		return
	}

	found := false
	_, _ = fmt.Fprintln(deps.Stdout, "Available backups:")
	for _, b := range backups {
		note := ""
		if b.Number == 1 {
			note = " (most recent)"
		}
		_, _ = fmt.Fprintf(deps.Stdout, "  %d: %s, %s%s\n", b.Number, b.Path, humanize.Bytes(uint64(b.Size)), note)
		found = found || b.Number == backupNum
	}
	_, _ = fmt.Fprintln(deps.Stdout)

	if !found {
		fail(fmt.Sprintf("Backup %d does not exist", backupNum), nil, "")
		return
	}

	if err := storage.RestoreBackup(path, backupNum); err != nil {
		fail("Failed to restore backup", err, "Stop 'worktime serve' before restoring")
		return
	}

	_, _ = fmt.Fprintf(deps.Stdout, "Successfully restored from backup %d\n", backupNum)
}
