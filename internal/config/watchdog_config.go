package config

import "time"

// WatchdogConfig defines configuration for the liveness watchdog
type WatchdogConfig struct {
	IntervalMs          int  `json:"interval_ms,omitempty" yaml:"interval_ms,omitempty" validate:"omitempty,min=100,max=60000"`
	SystemdNotify       bool `json:"systemd_notify" yaml:"systemd_notify"`
	HealthLogEveryTicks int  `json:"health_log_every_ticks,omitempty" yaml:"health_log_every_ticks,omitempty" validate:"omitempty,min=0"`
}

// NewDefaultWatchdogConfig creates default watchdog configuration
func NewDefaultWatchdogConfig() WatchdogConfig {
	return WatchdogConfig{
		IntervalMs:          DefaultWatchdogIntervalMs,
		SystemdNotify:       DefaultWatchdogSystemdNotify,
		HealthLogEveryTicks: DefaultWatchdogHealthLogEveryTicks,
	}
}

// Interval returns the watchdog cadence.
func (c WatchdogConfig) Interval() time.Duration {
	if c.IntervalMs <= 0 {
		return DefaultWatchdogIntervalMs * time.Millisecond
	}
	return time.Duration(c.IntervalMs) * time.Millisecond
}
