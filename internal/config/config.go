package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/xolan/worktime/internal/allocation"
	"github.com/xolan/worktime/internal/osutil"
	"github.com/xolan/worktime/internal/timeutil"
)

const (
	// ConfigFile is the name of the TOML configuration file
	ConfigFile = "config.toml"
	// EnvFile is loaded from the working directory when present
	EnvFile = ".env"
)

// cronParser accepts the six-field specs used by the scheduler.
var cronParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Config represents the application configuration
type Config struct {
	// Timezone is an IANA timezone name or "Local"
	Timezone string `toml:"timezone"`
	// DataDir holds the ledger, its backups and the run history.
	// Empty means the application config directory.
	DataDir string `toml:"data_dir"`
	// LogLevel is one of debug, info, warn, error
	LogLevel string `toml:"log_level"`
	// LogPretty switches to human readable console logs
	LogPretty bool `toml:"log_pretty"`

	Workday  WorkdayConfig  `toml:"workday"`
	Gateway  GatewayConfig  `toml:"gateway"`
	Notify   NotifyConfig   `toml:"notify"`
	Schedule ScheduleConfig `toml:"schedule"`
	Server   ServerConfig   `toml:"server"`
}

// WorkdayConfig shapes the working day used for allocation.
type WorkdayConfig struct {
	Start         string `toml:"start"`
	BlackoutStart string `toml:"blackout_start"`
	BlackoutEnd   string `toml:"blackout_end"`
	TaskOrder     string `toml:"task_order"`
}

// GatewayConfig points at the task-completion service.
type GatewayConfig struct {
	URL            string `toml:"url"`
	Token          string `toml:"token"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	Comment        string `toml:"comment"`
}

// NotifyConfig controls where run summaries and alerts go.
type NotifyConfig struct {
	WebhookURL string `toml:"webhook_url"`
}

// ScheduleConfig controls the in-process daily trigger used by serve.
type ScheduleConfig struct {
	Cron    string `toml:"cron"`
	Enabled bool   `toml:"enabled"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string   `toml:"addr"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// DefaultConfig returns a Config with the defaults used when no file exists.
func DefaultConfig() Config {
	return Config{
		Timezone: "Local",
		LogLevel: "info",
		Workday: WorkdayConfig{
			Start:         "08:30",
			BlackoutStart: "12:00",
			BlackoutEnd:   "13:00",
			TaskOrder:     string(allocation.OrderInsertion),
		},
		Gateway: GatewayConfig{
			TimeoutSeconds: 15,
			Comment:        "Logged automatically by worktime",
		},
		Schedule: ScheduleConfig{
			Cron:    "0 30 18 * * MON-FRI",
			Enabled: true,
		},
		Server: ServerConfig{
			Addr: ":8086",
		},
	}
}

// GetConfigPath returns the path to the config file, creating the config
// directory if it doesn't exist.
func GetConfigPath() (string, error) {
	appDir, err := osutil.AppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(appDir, ConfigFile), nil
}

// Load reads, normalizes and validates the config at path.
// Values absent from the file keep their defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadOrDefault behaves like Load but returns the defaults when the file
// does not exist.
func LoadOrDefault(path string) (Config, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			cfg.Normalize()
			return cfg, nil
		}
		return Config{}, err
	}
	return Load(path)
}

// LoadWithEnv loads path (or the defaults) and then applies environment
// overrides, reading a .env file from the working directory first.
func LoadWithEnv(path string) (Config, error) {
	_ = godotenv.Load(EnvFile)

	cfg, err := LoadOrDefault(path)
	if err != nil {
		return Config{}, err
	}

	cfg.ApplyEnv(os.Getenv)
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from WORKTIME_* variables. Empty values are ignored.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	set("WORKTIME_DATA_DIR", &c.DataDir)
	set("WORKTIME_TIMEZONE", &c.Timezone)
	set("WORKTIME_LOG_LEVEL", &c.LogLevel)
	set("WORKTIME_GATEWAY_URL", &c.Gateway.URL)
	set("WORKTIME_GATEWAY_TOKEN", &c.Gateway.Token)
	set("WORKTIME_WEBHOOK_URL", &c.Notify.WebhookURL)

	if v := getenv("WORKTIME_GATEWAY_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Gateway.TimeoutSeconds = n
		}
	}
}

// Normalize lowercases enumerations and trims whitespace.
func (c *Config) Normalize() {
	c.Timezone = strings.TrimSpace(c.Timezone)
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.Workday.TaskOrder = strings.ToLower(strings.TrimSpace(c.Workday.TaskOrder))
	c.Gateway.URL = strings.TrimRight(strings.TrimSpace(c.Gateway.URL), "/")
	c.DataDir = strings.TrimSpace(c.DataDir)
}

// Validate checks every field, returning all problems joined.
func (c Config) Validate() error {
	var errs []error

	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}

	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid log_level %q (use debug, info, warn or error)", c.LogLevel))
	}

	if _, err := timeutil.ParseClock(c.Workday.Start); err != nil {
		errs = append(errs, fmt.Errorf("invalid workday.start: %w", err))
	}
	if _, err := c.Blackout(); err != nil {
		errs = append(errs, err)
	}
	if _, err := allocation.ParseOrder(c.Workday.TaskOrder); err != nil {
		errs = append(errs, fmt.Errorf("invalid workday.task_order: %w", err))
	}

	if c.Gateway.URL != "" {
		if u, err := url.Parse(c.Gateway.URL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("invalid gateway.url %q", c.Gateway.URL))
		}
	}
	if c.Gateway.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("gateway.timeout_seconds cannot be negative"))
	}

	if c.Notify.WebhookURL != "" {
		if u, err := url.Parse(c.Notify.WebhookURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("invalid notify.webhook_url %q", c.Notify.WebhookURL))
		}
	}

	if c.Schedule.Enabled && strings.TrimSpace(c.Schedule.Cron) == "" {
		errs = append(errs, fmt.Errorf("schedule.cron is required when the schedule is enabled"))
	} else if c.Schedule.Cron != "" {
		if _, err := cronParser.Parse(c.Schedule.Cron); err != nil {
			errs = append(errs, fmt.Errorf("invalid schedule.cron %q: %w", c.Schedule.Cron, err))
		}
	}

	return errors.Join(errs...)
}

// Location resolves Timezone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// DayStart parses Workday.Start.
func (c Config) DayStart() (timeutil.Clock, error) {
	return timeutil.ParseClock(c.Workday.Start)
}

// Blackout parses the blackout window.
func (c Config) Blackout() (timeutil.Window, error) {
	start, err := timeutil.ParseClock(c.Workday.BlackoutStart)
	if err != nil {
		return timeutil.Window{}, fmt.Errorf("invalid workday.blackout_start: %w", err)
	}
	end, err := timeutil.ParseClock(c.Workday.BlackoutEnd)
	if err != nil {
		return timeutil.Window{}, fmt.Errorf("invalid workday.blackout_end: %w", err)
	}
	w := timeutil.Window{Start: start, End: end}
	if !w.Valid() {
		return timeutil.Window{}, fmt.Errorf("invalid blackout window %s: end must be after start", w)
	}
	return w, nil
}

// Order parses Workday.TaskOrder.
func (c Config) Order() (allocation.Order, error) {
	return allocation.ParseOrder(c.Workday.TaskOrder)
}

// GatewayTimeout returns the gateway timeout as a duration.
func (c Config) GatewayTimeout() time.Duration {
	return time.Duration(c.Gateway.TimeoutSeconds) * time.Second
}

// ResolveDataDir returns DataDir, falling back to the app config directory.
func (c Config) ResolveDataDir() (string, error) {
	if c.DataDir != "" {
		return osutil.EnsureDir(c.DataDir)
	}
	return osutil.AppDir()
}

// GenerateSampleConfig returns a commented sample configuration.
func GenerateSampleConfig() string {
	return `# worktime configuration file
# Every setting is optional; commented values are the defaults.

# Timezone: IANA timezone name (e.g., "America/New_York", "Europe/London", "Asia/Tokyo") or "Local"
# timezone = "Local"

# Directory holding ledger.db, its backups and runs.jsonl (defaults to the config directory)
# data_dir = ""

# Log level: debug, info, warn or error
# log_level = "info"
# log_pretty = false

[workday]
# Time allocation starts from
# start = "08:30"
# Blackout window skipped by allocation and subtracted from work hours
# blackout_start = "12:00"
# blackout_end = "13:00"
# Task order: "insertion" or "oldest_first"
# task_order = "insertion"

[gateway]
# Task-completion service; also settable via WORKTIME_GATEWAY_URL / WORKTIME_GATEWAY_TOKEN
# url = "https://tasks.example.com/api"
# token = ""
# timeout_seconds = 15
# comment = "Logged automatically by worktime"

[notify]
# Receives run summaries and alerts as JSON
# webhook_url = ""

[schedule]
# Six-field cron expression (with seconds) used by "worktime serve"
# cron = "0 30 18 * * MON-FRI"
# enabled = true

[server]
# addr = ":8086"
# allowed_origins = ["http://localhost:3000"]
`
}
