package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xolan/worktime/internal/config"
	"github.com/xolan/worktime/internal/service"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Display or manage configuration settings",
	Long: `Display the current effective configuration settings for worktime.

Shows the configuration file location, whether it exists, and all current
settings. Values are merged from defaults, the config file, a .env file in
the working directory and WORKTIME_* environment variables, in that order.

Examples:
  worktime config            Show all current settings
  worktime config init       Write a commented sample config.toml
  worktime config set gateway.url https://tracker.example.com

Configuration file location:
  ~/.config/worktime/config.toml     Linux
  %APPDATA%\worktime\config.toml     Windows`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		showConfig()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample config file",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		initConfig()
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting in the config file",
	Long: `Change one setting in the config file. The file is created when missing.
Environment overrides are not written back.

Keys: ` + strings.Join(settingKeys(), ", "),
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		setConfigValue(args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configSetCmd)
}

func setString(get func(*config.Config) *string) func(*config.Config, string) error {
	return func(c *config.Config, v string) error {
		*get(c) = v
		return nil
	}
}

// settings maps config set keys to their fields.
var settings = map[string]func(*config.Config, string) error{
	"timezone":                setString(func(c *config.Config) *string { return &c.Timezone }),
	"data_dir":                setString(func(c *config.Config) *string { return &c.DataDir }),
	"log_level":               setString(func(c *config.Config) *string { return &c.LogLevel }),
	"workday.start":           setString(func(c *config.Config) *string { return &c.Workday.Start }),
	"workday.blackout_start":  setString(func(c *config.Config) *string { return &c.Workday.BlackoutStart }),
	"workday.blackout_end":    setString(func(c *config.Config) *string { return &c.Workday.BlackoutEnd }),
	"workday.task_order":      setString(func(c *config.Config) *string { return &c.Workday.TaskOrder }),
	"gateway.url":             setString(func(c *config.Config) *string { return &c.Gateway.URL }),
	"gateway.comment":         setString(func(c *config.Config) *string { return &c.Gateway.Comment }),
	"notify.webhook_url":      setString(func(c *config.Config) *string { return &c.Notify.WebhookURL }),
	"schedule.cron":           setString(func(c *config.Config) *string { return &c.Schedule.Cron }),
	"server.addr":             setString(func(c *config.Config) *string { return &c.Server.Addr }),
	"gateway.timeout_seconds": setTimeout,
	"schedule.enabled":        setScheduleEnabled,
}

func setTimeout(c *config.Config, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("expected a number of seconds, got %q", v)
	}
	c.Gateway.TimeoutSeconds = n
	return nil
}

func setScheduleEnabled(c *config.Config, v string) error {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("expected true or false, got %q", v)
	}
	c.Schedule.Enabled = b
	return nil
}

func settingKeys() []string {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// showConfig displays the current effective configuration
func showConfig() {
	configPath, cfg, ok := loadConfig()
	if !ok {
		return
	}
	svc := service.NewConfigService(configPath, cfg)

	_, _ = fmt.Fprintln(deps.Stdout, "Configuration for worktime")
	_, _ = fmt.Fprintln(deps.Stdout, strings.Repeat("=", 60))
	_, _ = fmt.Fprintln(deps.Stdout)

	_, _ = fmt.Fprintf(deps.Stdout, "Config file:     %s\n", svc.GetPath())
	if svc.Exists() {
		_, _ = fmt.Fprintln(deps.Stdout, "Status:          File exists (using custom configuration)")
	} else {
		_, _ = fmt.Fprintln(deps.Stdout, "Status:          No config file (using defaults)")
	}
	_, _ = fmt.Fprintln(deps.Stdout)

	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "(config directory)"
	}
	gatewayURL := cfg.Gateway.URL
	if gatewayURL == "" {
		gatewayURL = "(not set, runs disabled)"
	}
	token := "(not set)"
	if cfg.Gateway.Token != "" {
		token = "(set)"
	}
	webhook := cfg.Notify.WebhookURL
	if webhook == "" {
		webhook = "(not set)"
	}
	schedule := cfg.Schedule.Cron
	if !cfg.Schedule.Enabled {
		schedule += " (disabled)"
	}

	_, _ = fmt.Fprintln(deps.Stdout, "Current Settings:")
	_, _ = fmt.Fprintln(deps.Stdout, strings.Repeat("-", 60))
	_, _ = fmt.Fprintf(deps.Stdout, "Timezone:        %s\n", cfg.Timezone)
	_, _ = fmt.Fprintf(deps.Stdout, "Data directory:  %s\n", dataDir)
	_, _ = fmt.Fprintf(deps.Stdout, "Log level:       %s\n", cfg.LogLevel)
	_, _ = fmt.Fprintf(deps.Stdout, "Day start:       %s\n", cfg.Workday.Start)
	_, _ = fmt.Fprintf(deps.Stdout, "Blackout:        %s-%s\n", cfg.Workday.BlackoutStart, cfg.Workday.BlackoutEnd)
	_, _ = fmt.Fprintf(deps.Stdout, "Task order:      %s\n", cfg.Workday.TaskOrder)
	_, _ = fmt.Fprintf(deps.Stdout, "Gateway URL:     %s\n", gatewayURL)
	_, _ = fmt.Fprintf(deps.Stdout, "Gateway token:   %s\n", token)
	_, _ = fmt.Fprintf(deps.Stdout, "Webhook URL:     %s\n", webhook)
	_, _ = fmt.Fprintf(deps.Stdout, "Schedule:        %s\n", schedule)
	_, _ = fmt.Fprintf(deps.Stdout, "Server address:  %s\n", cfg.Server.Addr)
	_, _ = fmt.Fprintln(deps.Stdout)

	if !svc.Exists() {
		_, _ = fmt.Fprintln(deps.Stdout, "Tip: Run 'worktime config init' to create a config.toml at the above location.")
		_, _ = fmt.Fprintln(deps.Stdout)
	}
}

// initConfig writes the sample configuration
func initConfig() {
	configPath, cfg, ok := loadConfig()
	if !ok {
		return
	}
	svc := service.NewConfigService(configPath, cfg)

	if err := svc.Init(); err != nil {
		fail("Failed to create config file", err, "Edit the existing file or remove it first")
		return
	}
	_, _ = fmt.Fprintf(deps.Stdout, "Created %s\n", configPath)
}

// setConfigValue updates one key in the config file
func setConfigValue(key, value string) {
	apply, ok := settings[key]
	if !ok {
		fail(fmt.Sprintf("Unknown setting '%s'", key), nil, "Valid keys: "+strings.Join(settingKeys(), ", "))
		return
	}

	configPath, err := deps.ConfigPath()
	if err != nil {
		fail("Failed to determine config file location", err, "Check that your home directory is accessible")
		return
	}
	// File values only, so environment overrides are not persisted.
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		fail("Failed to load configuration", err, "Check that your config file is valid TOML format: "+configPath)
		return
	}

	if err := apply(&cfg, value); err != nil {
		fail(fmt.Sprintf("Invalid value for %s", key), err, "")
		return
	}
	svc := service.NewConfigService(configPath, cfg)
	if err := svc.Update(cfg); err != nil {
		fail(fmt.Sprintf("Invalid value for %s", key), err, "")
		return
	}
	// The written file must load back cleanly.
	if err := svc.Reload(); err != nil {
		fail("Failed to reload configuration", err, "Check that your config file is valid TOML format: "+configPath)
		return
	}

	_, _ = fmt.Fprintf(deps.Stdout, "Set %s = %s\n", key, value)
}
