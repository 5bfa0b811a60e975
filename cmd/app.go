package cmd

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/xolan/worktime/internal/cli"
	"github.com/xolan/worktime/internal/config"
	"github.com/xolan/worktime/internal/logger"
	"github.com/xolan/worktime/internal/service"
	"github.com/xolan/worktime/internal/timeutil"
)

// verbose raises CLI logging to debug.
var verbose bool

// fail prints an error block to stderr and exits with status 1.
// Callers must return right after, since Exit is a no-op in tests.
func fail(msg string, err error, hint string) {
	_, _ = fmt.Fprintf(deps.Stderr, "Error: %s\n", msg)
	if err != nil {
		_, _ = fmt.Fprintf(deps.Stderr, "Details: %v\n", err)
	}
	if hint != "" {
		_, _ = fmt.Fprintf(deps.Stderr, "Hint: %s\n", hint)
	}
	deps.Exit(1)
}

// loadConfig resolves the config path and loads it with environment overrides.
func loadConfig() (string, config.Config, bool) {
	configPath, err := deps.ConfigPath()
	if err != nil {
		fail("Failed to determine config file location", err, "Check that your home directory is accessible")
		return "", config.Config{}, false
	}

	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		fail("Failed to load configuration", err, "Check that your config file is valid TOML format: "+configPath)
		return "", config.Config{}, false
	}
	return configPath, cfg, true
}

// commandLogger logs to stderr. One-shot commands stay quiet below warn
// unless --verbose is set.
func commandLogger(cfg config.Config, quiet bool) zerolog.Logger {
	level := cfg.LogLevel
	switch {
	case verbose:
		level = "debug"
	case quiet && (level == "debug" || level == "info"):
		level = "warn"
	}
	return logger.New(logger.Config{Level: level, Pretty: cfg.LogPretty || quiet, Out: deps.Stderr})
}

// openServices loads the config and opens the ledger. The caller closes the result.
func openServices() (*service.Services, *time.Location, bool) {
	configPath, cfg, ok := loadConfig()
	if !ok {
		return nil, nil, false
	}
	return openServicesWith(configPath, cfg, commandLogger(cfg, true))
}

func openServicesWith(configPath string, cfg config.Config, log zerolog.Logger) (*service.Services, *time.Location, bool) {
	loc, err := cfg.Location()
	if err != nil {
		fail("Invalid timezone", err, "Valid timezone examples: Local, UTC, Europe/Madrid, Asia/Shanghai")
		return nil, nil, false
	}

	svcs, err := service.NewServices(configPath, cfg, log, service.Options{
		Gateway:  deps.Gateway,
		Notifier: deps.Notifier,
		Now:      deps.Now,
	})
	if err != nil {
		fail("Failed to open the ledger", err, "Check that the data directory exists and is writable")
		return nil, nil, false
	}
	return svcs, loc, true
}

// resolveDay parses a day argument relative to now in loc.
func resolveDay(input string, loc *time.Location) (time.Time, bool) {
	day, err := timeutil.ParseDay(input, deps.Now().In(loc))
	if err != nil {
		fail(fmt.Sprintf("Invalid date '%s'", input), err, "Use YYYY-MM-DD, DD/MM/YYYY, 'today' or 'yesterday'")
		return time.Time{}, false
	}
	return day, true
}

func dayArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func printer() *cli.Printer {
	return cli.NewPrinter(deps.Stdout, deps.Styles)
}
