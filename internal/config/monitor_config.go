package config

import (
	"time"
)

// MonitorConfig defines configuration for the update monitor and its fetcher
type MonitorConfig struct {
	URL                   string `json:"url,omitempty" yaml:"url,omitempty" validate:"required,httpurl"`
	PollIntervalMs        int    `json:"poll_interval_ms,omitempty" yaml:"poll_interval_ms,omitempty"`
	Debug                 bool   `json:"debug" yaml:"debug"`
	FetchTimeoutSeconds   int    `json:"fetch_timeout_seconds,omitempty" yaml:"fetch_timeout_seconds,omitempty" validate:"omitempty,min=1,max=300"`
	StartupAttempts       int    `json:"startup_attempts,omitempty" yaml:"startup_attempts,omitempty" validate:"omitempty,min=1,max=10"`
	StartupBackoffSeconds int    `json:"startup_backoff_seconds,omitempty" yaml:"startup_backoff_seconds,omitempty" validate:"omitempty,min=0,max=300"`
	UserAgent             string `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
	Proxy                 string `json:"proxy,omitempty" yaml:"proxy,omitempty" validate:"omitempty,url"`
	InsecureSkipVerify    bool   `json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
	HTMLMetaFallback      bool   `json:"html_meta_fallback" yaml:"html_meta_fallback"`
}

// NewDefaultMonitorConfig creates default monitor configuration
func NewDefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		URL:                   DefaultMonitorURL,
		PollIntervalMs:        DefaultPollIntervalMs,
		Debug:                 false,
		FetchTimeoutSeconds:   DefaultFetchTimeoutSeconds,
		StartupAttempts:       DefaultStartupAttempts,
		StartupBackoffSeconds: DefaultStartupBackoffSeconds,
		UserAgent:             DefaultMonitorUserAgent,
		InsecureSkipVerify:    DefaultMonitorInsecureSkipVerify,
		HTMLMetaFallback:      DefaultMonitorHTMLMetaFallback,
	}
}

// PollInterval returns the clamped steady-state poll interval.
func (c MonitorConfig) PollInterval() time.Duration {
	return time.Duration(ClampPollInterval(c.PollIntervalMs)) * time.Millisecond
}

// FetchTimeout returns the wall-clock budget for a single fetch.
func (c MonitorConfig) FetchTimeout() time.Duration {
	if c.FetchTimeoutSeconds <= 0 {
		return DefaultFetchTimeoutSeconds * time.Second
	}
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// Attempts returns how many startup fetches are tried before giving up.
func (c MonitorConfig) Attempts() int {
	if c.StartupAttempts <= 0 {
		return DefaultStartupAttempts
	}
	return c.StartupAttempts
}

// StartupBackoff returns the fixed delay between startup attempts.
func (c MonitorConfig) StartupBackoff() time.Duration {
	if c.StartupBackoffSeconds < 0 {
		return DefaultStartupBackoffSeconds * time.Second
	}
	return time.Duration(c.StartupBackoffSeconds) * time.Second
}

// ClampPollInterval bounds ms to [MinPollIntervalMs, MaxPollIntervalMs].
// Non-positive values mean "not configured" and yield the default.
func ClampPollInterval(ms int) int {
	if ms <= 0 {
		return DefaultPollIntervalMs
	}
	return boundPollInterval(ms)
}

func boundPollInterval(ms int) int {
	if ms < MinPollIntervalMs {
		return MinPollIntervalMs
	}
	if ms > MaxPollIntervalMs {
		return MaxPollIntervalMs
	}
	return ms
}
