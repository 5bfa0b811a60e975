package worklog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidStatus is returned for an unknown task status.
var ErrInvalidStatus = errors.New("invalid task status")

// TaskStatus mirrors the remote tracker's task states.
type TaskStatus string

const (
	StatusWait   TaskStatus = "wait"
	StatusDoing  TaskStatus = "doing"
	StatusDone   TaskStatus = "done"
	StatusPause  TaskStatus = "pause"
	StatusCancel TaskStatus = "cancel"
	StatusClosed TaskStatus = "closed"
)

var allStatuses = []TaskStatus{StatusWait, StatusDoing, StatusDone, StatusPause, StatusCancel, StatusClosed}

// Open reports whether the allocator may still assign time to the task.
func (s TaskStatus) Open() bool {
	return s == StatusWait || s == StatusDoing
}

// ParseStatus normalizes a status string.
func ParseStatus(s string) (TaskStatus, error) {
	norm := TaskStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, st := range allStatuses {
		if norm == st {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q (expected one of wait, doing, done, pause, cancel, closed)", ErrInvalidStatus, s)
}

// ParseClockKind accepts "in"/"out" and the stored kind names.
func ParseClockKind(s string) (ClockKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "in", "sign_in", "signin":
		return SignIn, nil
	case "out", "sign_out", "signout":
		return SignOut, nil
	}
	return "", fmt.Errorf("invalid punch kind %q (expected in or out)", s)
}
