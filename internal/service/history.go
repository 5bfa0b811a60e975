package service

import (
	"fmt"
	"sort"

	"github.com/xolan/worktime/internal/storage"
)

// HistoryService reads the run history and the ledger backups.
type HistoryService struct {
	runsPath   string
	ledgerPath string
}

// NewHistoryService creates a new HistoryService
func NewHistoryService(runsPath, ledgerPath string) *HistoryService {
	return &HistoryService{runsPath: runsPath, ledgerPath: ledgerPath}
}

// Runs returns the most recent runs first, at most limit of them (0 means all),
// along with warnings for unreadable history lines.
func (s *HistoryService) Runs(limit int) (storage.RunHistory, error) {
	history, err := storage.ReadRunsWithWarnings(s.runsPath)
	if err != nil {
		return history, fmt.Errorf("failed to read run history: %w", err)
	}

	sort.SliceStable(history.Runs, func(i, j int) bool {
		return history.Runs[i].StartedAt.After(history.Runs[j].StartedAt)
	})
	if limit > 0 && len(history.Runs) > limit {
		history.Runs = history.Runs[:limit]
	}
	return history, nil
}

// Backups lists the ledger backups, newest first.
func (s *HistoryService) Backups() ([]storage.BackupInfo, error) {
	return storage.ListBackups(s.ledgerPath)
}
