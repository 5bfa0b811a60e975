package storage

import (
	"context"
	"fmt"
	"io"
	"os"
)

const (
	// BackupSuffix is the file extension for backup files
	BackupSuffix = ".bak"
	// MaxBackupCount is the maximum number of backup files to keep
	MaxBackupCount = 3
)

// GetBackupPath returns the path of backup n for the ledger at dbPath.
// Lower numbers are more recent (.bak.1 is the newest).
func GetBackupPath(dbPath string, n int) string {
	return fmt.Sprintf("%s%s.%d", dbPath, BackupSuffix, n)
}

// rotateBackups shifts .bak.1 -> .bak.2 -> .bak.3, dropping the oldest.
// Missing files are skipped.
func rotateBackups(dbPath string) error {
	if err := os.Remove(GetBackupPath(dbPath, MaxBackupCount)); err != nil && !os.IsNotExist(err) {
		return err
	}

	for i := MaxBackupCount - 1; i >= 1; i-- {
		if err := os.Rename(GetBackupPath(dbPath, i), GetBackupPath(dbPath, i+1)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	return nil
}

// Backup rotates existing backups and writes a consistent snapshot of the
// open ledger to .bak.1.
func (l *Ledger) Backup(ctx context.Context) error {
	if err := rotateBackups(l.path); err != nil {
		return fmt.Errorf("failed to rotate backups: %w", err)
	}

	if _, err := l.db.ExecContext(ctx, `VACUUM INTO ?`, GetBackupPath(l.path, 1)); err != nil {
		return fmt.Errorf("failed to snapshot ledger: %w", err)
	}
	return nil
}

// BackupInfo describes one backup file.
type BackupInfo struct {
	Number int    // 1 is the most recent
	Path   string
	Size   int64
}

// ListBackups returns the existing backups of dbPath, newest first.
func ListBackups(dbPath string) ([]BackupInfo, error) {
	var backups []BackupInfo

	for i := 1; i <= MaxBackupCount; i++ {
		path := GetBackupPath(dbPath, i)
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		backups = append(backups, BackupInfo{Number: i, Path: path, Size: info.Size()})
	}

	return backups, nil
}

// RestoreBackup replaces the ledger at dbPath with backup n. The ledger
// must not be open. The current file is first rotated into the backups so
// the restore itself can be undone.
func RestoreBackup(dbPath string, n int) error {
	if n < 1 || n > MaxBackupCount {
		return fmt.Errorf("invalid backup number %d, must be between 1 and %d", n, MaxBackupCount)
	}

	backupPath := GetBackupPath(dbPath, n)
	if _, err := os.Stat(backupPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("backup %d does not exist", n)
		}
		return err
	}

	// Read the chosen backup before rotation moves it.
	snapshot, err := os.ReadFile(backupPath)
	if err != nil {
		return err
	}

	if _, err := os.Stat(dbPath); err == nil {
		if err := rotateBackups(dbPath); err != nil {
			return err
		}
		if err := copyFile(dbPath, GetBackupPath(dbPath, 1)); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(dbPath + suffix); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	return writeFileAtomic(dbPath, snapshot)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// writeFileAtomic writes data to a temp file and renames it over path.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
