// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"hostguard/internal/alerting"
)

type Config struct {
	Host          HostConfig          `yaml:"host"`
	Thresholds    alerting.Thresholds `yaml:"thresholds"`
	Alerts        AlertsConfig        `yaml:"alerts"`
	Web           WebConfig           `yaml:"web"`
	Logging       LoggingConfig       `yaml:"logging"`
	Notifications NotificationConfig  `yaml:"notifications"`
	Maintenance   []ActionConfig      `yaml:"maintenance"`
}

type HostConfig struct {
	ID              string `yaml:"id"`
	MountPoint      string `yaml:"mount_point"`
	IntervalSeconds int    `yaml:"interval_seconds"`
	CPUWindowMillis int    `yaml:"cpu_window_ms"`
}

type AlertsConfig struct {
	LogPath        string        `yaml:"log_path"`
	DBPath         string        `yaml:"db_path"`
	Retention      time.Duration `yaml:"retention"`
	PruneInterval  time.Duration `yaml:"prune_interval"`
	SinkMaxRetries int           `yaml:"sink_max_retries"`
	SinkRetryDelay time.Duration `yaml:"sink_retry_delay"`
}

type WebConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Listen      string `yaml:"listen"`
	MetricsPath string `yaml:"metrics_path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ActionConfig declares one external maintenance command run on its own
// timer: log truncation, container pruning, kernel parameter tuning and
// the like. Failures are logged and never touch the alerting core.
type ActionConfig struct {
	Name     string        `yaml:"name"`
	Command  string        `yaml:"command"`
	Args     []string      `yaml:"args"`
	Interval time.Duration `yaml:"interval"`
	Timeout  time.Duration `yaml:"timeout"`
	Enabled  bool          `yaml:"enabled"`
}

// ConfigError marks a startup configuration problem. These are fatal: the
// process must not start with an invalid threshold or interval.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}

func Load(filename string) (*Config, error) {
	config, err := loadConfigFile(filename)
	if err != nil {
		return nil, err
	}

	if err := setDefaults(config); err != nil {
		return nil, err
	}

	if err := validate(config); err != nil {
		return nil, err
	}

	return config, nil
}

func loadConfigFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &config, nil
}

func setDefaults(cfg *Config) error {
	if cfg.Host.ID == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return &ConfigError{Field: "host.id", Reason: "empty and hostname lookup failed: " + err.Error()}
		}
		cfg.Host.ID = hostname
	}
	if cfg.Host.MountPoint == "" {
		cfg.Host.MountPoint = "/"
	}
	if cfg.Host.IntervalSeconds == 0 {
		cfg.Host.IntervalSeconds = 300 // the 5-minute cron cadence this replaces
	}
	if cfg.Host.CPUWindowMillis == 0 {
		cfg.Host.CPUWindowMillis = 1000
	}

	if cfg.Thresholds.Disk == 0 {
		cfg.Thresholds.Disk = 80
	}
	if cfg.Thresholds.Mem == 0 {
		cfg.Thresholds.Mem = 80
	}
	if cfg.Thresholds.CPU == 0 {
		cfg.Thresholds.CPU = 90
	}

	if cfg.Alerts.LogPath == "" {
		cfg.Alerts.LogPath = "./data/alerts.log"
	}
	if cfg.Alerts.DBPath == "" {
		cfg.Alerts.DBPath = "./data/alerts.db"
	}
	if cfg.Alerts.Retention == 0 {
		cfg.Alerts.Retention = 30 * 24 * time.Hour
	}
	if cfg.Alerts.PruneInterval == 0 {
		cfg.Alerts.PruneInterval = 6 * time.Hour
	}
	if cfg.Alerts.SinkMaxRetries == 0 {
		cfg.Alerts.SinkMaxRetries = 3
	}
	if cfg.Alerts.SinkRetryDelay == 0 {
		cfg.Alerts.SinkRetryDelay = 300 * time.Millisecond
	}

	if cfg.Web.Listen == "" {
		cfg.Web.Listen = ":8080"
	}
	if cfg.Web.MetricsPath == "" {
		cfg.Web.MetricsPath = "/metrics"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}

	setNotificationDefaults(&cfg.Notifications)

	for i := range cfg.Maintenance {
		if cfg.Maintenance[i].Timeout == 0 {
			cfg.Maintenance[i].Timeout = 60 * time.Second
		}
	}

	return nil
}

func validate(cfg *Config) error {
	if cfg.Host.IntervalSeconds < 1 {
		return &ConfigError{Field: "host.interval_seconds", Reason: "must be a positive integer"}
	}

	limits := []struct {
		field string
		value int
	}{
		{"thresholds.disk", cfg.Thresholds.Disk},
		{"thresholds.mem", cfg.Thresholds.Mem},
		{"thresholds.cpu", cfg.Thresholds.CPU},
	}
	for _, l := range limits {
		if l.value < 0 || l.value > 100 {
			return &ConfigError{Field: l.field, Reason: fmt.Sprintf("%d is outside 0-100", l.value)}
		}
	}

	seen := make(map[string]bool)
	for _, action := range cfg.Maintenance {
		if action.Name == "" {
			return &ConfigError{Field: "maintenance.name", Reason: "actions must be named"}
		}
		if seen[action.Name] {
			return &ConfigError{Field: "maintenance.name", Reason: "duplicate action: " + action.Name}
		}
		seen[action.Name] = true
		if action.Command == "" {
			return &ConfigError{Field: "maintenance.command", Reason: "action " + action.Name + " has no command"}
		}
		if action.Enabled && action.Interval <= 0 {
			return &ConfigError{Field: "maintenance.interval", Reason: "action " + action.Name + " must have a positive interval"}
		}
	}

	return validateNotifications(&cfg.Notifications)
}

// Interval returns the sampling interval as a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.Host.IntervalSeconds) * time.Second
}

// CPUWindow returns the fixed window the CPU idle delta is sampled over.
func (c *Config) CPUWindow() time.Duration {
	return time.Duration(c.Host.CPUWindowMillis) * time.Millisecond
}
