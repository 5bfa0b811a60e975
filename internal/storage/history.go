package storage

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
)

// RunsFile is the JSON Lines file recording every allocation run.
const RunsFile = "runs.jsonl"

// RunOutcome is the terminal state of a run.
type RunOutcome string

const (
	OutcomeDone    RunOutcome = "done"
	OutcomeAborted RunOutcome = "aborted"
	// OutcomeFailed marks a run that stopped before reaching the gateway.
	OutcomeFailed RunOutcome = "failed"
)

// RunRecord is one line of the run history.
type RunRecord struct {
	RunID           string          `json:"run_id"`
	Day             string          `json:"day"`
	StartedAt       time.Time       `json:"started_at"`
	FinishedAt      time.Time       `json:"finished_at"`
	Outcome         RunOutcome      `json:"outcome"`
	AvailableHours  decimal.Decimal `json:"available_hours"`
	TasksProcessed  int             `json:"tasks_processed"`
	HoursRegistered decimal.Decimal `json:"hours_registered"`
	FailedTaskID    int64           `json:"failed_task_id,omitempty"`
	Error           string          `json:"error,omitempty"`
}

// ParseWarning represents a corrupted or malformed history line
type ParseWarning struct {
	LineNumber int    // Line number in the file (1-indexed)
	Content    string // Raw content of the corrupted line
	Error      string // Description of the parsing error
}

// RunHistory holds the parsed run records plus warnings about skipped lines.
type RunHistory struct {
	Runs     []RunRecord
	Warnings []ParseWarning
}

// GetRunsPath returns the run history location inside dataDir.
func GetRunsPath(dataDir string) (string, error) {
	absDir, err := filepath.Abs(dataDir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(absDir, 0755); err != nil {
		return "", err
	}
	return filepath.Join(absDir, RunsFile), nil
}

// AppendRun appends a record to the history file, creating it if needed.
func AppendRun(path string, r RunRecord) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	line, err := json.Marshal(r)
	if err != nil {
		return err
	}

	_, err = file.WriteString(string(line) + "\n")
	return err
}

// ReadRunsWithWarnings reads the history file. A missing file yields an
// empty history; malformed lines are reported as warnings and skipped.
func ReadRunsWithWarnings(path string) (RunHistory, error) {
	result := RunHistory{
		Runs:     []RunRecord{},
		Warnings: []ParseWarning{},
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return result, err
	}
	defer func() { _ = file.Close() }()

	scanner := bufio.NewScanner(file)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		lineContent := scanner.Text()
		if lineContent == "" {
			continue
		}

		var r RunRecord
		if err := json.Unmarshal([]byte(lineContent), &r); err != nil {
			result.Warnings = append(result.Warnings, ParseWarning{
				LineNumber: lineNumber,
				Content:    lineContent,
				Error:      err.Error(),
			})
			continue
		}
		result.Runs = append(result.Runs, r)
	}

	if err := scanner.Err(); err != nil {
		return result, err
	}

	return result, nil
}
