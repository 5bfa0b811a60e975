package cmd

import (
	"io"
	"os"
	"time"

	"github.com/xolan/worktime/internal/cli"
	"github.com/xolan/worktime/internal/config"
	"github.com/xolan/worktime/internal/notify"
	"github.com/xolan/worktime/internal/reconcile"
)

// Deps holds external dependencies for CLI commands, enabling testability.
type Deps struct {
	Stdout     io.Writer
	Stderr     io.Writer
	Stdin      io.Reader
	Exit       func(code int)
	ConfigPath func() (string, error)
	Now        func() time.Time
	Styles     cli.Styles

	// Gateway and Notifier replace the configured collaborators when set.
	Gateway  reconcile.Gateway
	Notifier notify.Notifier
}

// DefaultDeps returns the default production dependencies.
func DefaultDeps() *Deps {
	return &Deps{
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		Stdin:      os.Stdin,
		Exit:       os.Exit,
		ConfigPath: config.GetConfigPath,
		Now:        time.Now,
		Styles:     cli.DefaultStyles(),
	}
}

// deps is the global dependencies instance used by commands.
// In production, this is DefaultDeps(). Tests can replace it.
var deps = DefaultDeps()

// SetDeps sets the global dependencies (for testing).
func SetDeps(d *Deps) {
	deps = d
}

// ResetDeps resets dependencies to defaults (for testing cleanup).
func ResetDeps() {
	deps = DefaultDeps()
}
