// internal/config/pushover.go - Pushover configuration structures
package config

import (
	"time"
)

// NotificationConfig controls optional push delivery of alert events, on
// top of the always-on durable sinks.
type NotificationConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Pushover PushoverConfig `yaml:"pushover"`
}

// PushoverConfig holds Pushover notification settings
type PushoverConfig struct {
	Enabled  bool           `yaml:"enabled"`
	UserKey  string         `yaml:"user_key"`
	APIToken string         `yaml:"api_token"`
	Device   string         `yaml:"device,omitempty"`
	Priority int            `yaml:"priority"`        // -2 to 2
	Sound    string         `yaml:"sound,omitempty"` // pushover sound name
	Throttle ThrottleConfig `yaml:"throttle"`
}

// ThrottleConfig rate-limits pushes so a host pinned above a threshold does
// not page every tick.
type ThrottleConfig struct {
	Window       time.Duration `yaml:"window"`
	MaxPerWindow int           `yaml:"max_per_window"`
}

func setNotificationDefaults(cfg *NotificationConfig) {
	if cfg.Pushover.Sound == "" {
		cfg.Pushover.Sound = "pushover"
	}
	if cfg.Pushover.Throttle.Window == 0 {
		cfg.Pushover.Throttle.Window = 15 * time.Minute
	}
	if cfg.Pushover.Throttle.MaxPerWindow == 0 {
		cfg.Pushover.Throttle.MaxPerWindow = 10
	}
}

func validateNotifications(cfg *NotificationConfig) error {
	if !cfg.Enabled || !cfg.Pushover.Enabled {
		return nil
	}
	if cfg.Pushover.APIToken == "" {
		return &ConfigError{Field: "notifications.pushover.api_token", Reason: "required when Pushover is enabled"}
	}
	if cfg.Pushover.UserKey == "" {
		return &ConfigError{Field: "notifications.pushover.user_key", Reason: "required when Pushover is enabled"}
	}
	if cfg.Pushover.Priority < -2 || cfg.Pushover.Priority > 2 {
		return &ConfigError{Field: "notifications.pushover.priority", Reason: "must be between -2 and 2"}
	}
	return nil
}
