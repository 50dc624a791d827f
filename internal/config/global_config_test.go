package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aleister1102/sitewatch/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewDefaultGlobalConfig(t *testing.T) {
	cfg := NewDefaultGlobalConfig()

	require.NotNil(t, cfg)
	assert.False(t, cfg.HotReload)
	assert.Equal(t, DefaultMonitorURL, cfg.MonitorConfig.URL)
	assert.Equal(t, DefaultPollIntervalMs, cfg.MonitorConfig.PollIntervalMs)
	assert.Equal(t, DefaultStartupAttempts, cfg.MonitorConfig.StartupAttempts)
	assert.Equal(t, DefaultLogFile, cfg.LogConfig.LogFile)
	assert.False(t, cfg.LogConfig.LogToConsole)
	assert.True(t, cfg.NotificationConfig.Bell)
	assert.False(t, cfg.MetricsConfig.Enabled())
	assert.Equal(t, DefaultWatchdogIntervalMs, cfg.WatchdogConfig.IntervalMs)
	assert.NoError(t, ValidateConfig(cfg))
}

func TestLoadGlobalConfig_NoConfigFile(t *testing.T) {
	t.Setenv(ConfigPathEnv, "")

	cfg, err := LoadGlobalConfig("")

	require.NoError(t, err)
	assert.Equal(t, DefaultMonitorURL, cfg.MonitorConfig.URL)
}

func TestLoadGlobalConfig_NonExistentFile(t *testing.T) {
	cfg, err := LoadGlobalConfig(filepath.Join(t.TempDir(), "missing.yaml"))

	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config file does not exist")
	assert.True(t, errors.Is(err, common.ErrInvalidConfiguration))
}

func TestLoadGlobalConfig_Directory(t *testing.T) {
	_, err := LoadGlobalConfig(t.TempDir())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "directory")
}

func TestLoadGlobalConfig_TooLarge(t *testing.T) {
	path := writeConfigFile(t, "config.yaml", "# "+strings.Repeat("x", int(DefaultMaxConfigFileSizeBytes)))

	_, err := LoadGlobalConfig(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum size")
}

func TestLoadGlobalConfig_YAMLFile(t *testing.T) {
	path := writeConfigFile(t, "config.yaml", `
hot_reload: true
monitor_config:
  url: https://example.com/page.html
  poll_interval_ms: 2500
  debug: true
  startup_attempts: 5
log_config:
  log_level: debug
  log_format: json
notification_config:
  bell: false
  discord_webhook_url: https://discord.example/webhook
metrics_config:
  listen_addr: 127.0.0.1:9464
watchdog_config:
  interval_ms: 2000
  systemd_notify: false
`)

	cfg, err := LoadGlobalConfig(path)

	require.NoError(t, err)
	assert.True(t, cfg.HotReload)
	assert.Equal(t, "https://example.com/page.html", cfg.MonitorConfig.URL)
	assert.Equal(t, 2500, cfg.MonitorConfig.PollIntervalMs)
	assert.True(t, cfg.MonitorConfig.Debug)
	assert.Equal(t, 5, cfg.MonitorConfig.StartupAttempts)
	// Unset keys keep their defaults.
	assert.Equal(t, DefaultFetchTimeoutSeconds, cfg.MonitorConfig.FetchTimeoutSeconds)
	assert.Equal(t, "debug", cfg.LogConfig.LogLevel)
	assert.Equal(t, "json", cfg.LogConfig.LogFormat)
	assert.False(t, cfg.NotificationConfig.Bell)
	assert.Equal(t, "https://discord.example/webhook", cfg.NotificationConfig.DiscordWebhookURL)
	assert.True(t, cfg.MetricsConfig.Enabled())
	assert.Equal(t, DefaultMetricsPath, cfg.MetricsConfig.Path)
	assert.Equal(t, 2000, cfg.WatchdogConfig.IntervalMs)
	assert.False(t, cfg.WatchdogConfig.SystemdNotify)
	assert.NoError(t, ValidateConfig(cfg))
}

func TestLoadGlobalConfig_JSONFile(t *testing.T) {
	path := writeConfigFile(t, "config.json", `{
		"monitor_config": {"url": "http://localhost:8080/", "poll_interval_ms": 750},
		"log_config": {"log_level": "warn"}
	}`)

	cfg, err := LoadGlobalConfig(path)

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/", cfg.MonitorConfig.URL)
	assert.Equal(t, 750, cfg.MonitorConfig.PollIntervalMs)
	assert.Equal(t, "warn", cfg.LogConfig.LogLevel)
}

func TestLoadGlobalConfig_InvalidContent(t *testing.T) {
	yamlPath := writeConfigFile(t, "config.yml", "monitor_config: [unclosed")
	_, err := LoadGlobalConfig(yamlPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YAML")

	jsonPath := writeConfigFile(t, "config.json", "{not json")
	_, err = LoadGlobalConfig(jsonPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JSON")
}

func TestGetConfigPath(t *testing.T) {
	t.Run("explicit path wins even when missing", func(t *testing.T) {
		assert.Equal(t, "/nowhere/config.yaml", GetConfigPath("/nowhere/config.yaml"))
	})

	t.Run("environment variable", func(t *testing.T) {
		path := writeConfigFile(t, "env.yaml", "hot_reload: false\n")
		t.Setenv(ConfigPathEnv, path)
		assert.Equal(t, path, GetConfigPath(""))
	})

	t.Run("missing environment file is skipped", func(t *testing.T) {
		t.Setenv(ConfigPathEnv, filepath.Join(t.TempDir(), "missing.yaml"))
		assert.NotEqual(t, os.Getenv(ConfigPathEnv), GetConfigPath(""))
	})
}

func TestMonitorConfigDurations(t *testing.T) {
	cfg := NewDefaultMonitorConfig()
	assert.Equal(t, "1s", cfg.PollInterval().String())
	assert.Equal(t, "10s", cfg.FetchTimeout().String())
	assert.Equal(t, "5s", cfg.StartupBackoff().String())
	assert.Equal(t, 3, cfg.Attempts())

	cfg.PollIntervalMs = 10
	cfg.StartupAttempts = 0
	cfg.StartupBackoffSeconds = 0
	assert.Equal(t, "500ms", cfg.PollInterval().String())
	assert.Equal(t, 3, cfg.Attempts())
	assert.Equal(t, "0s", cfg.StartupBackoff().String())
}

func TestClampPollInterval(t *testing.T) {
	assert.Equal(t, DefaultPollIntervalMs, ClampPollInterval(0))
	assert.Equal(t, DefaultPollIntervalMs, ClampPollInterval(-5))
	assert.Equal(t, MinPollIntervalMs, ClampPollInterval(100))
	assert.Equal(t, MaxPollIntervalMs, ClampPollInterval(999999))
	assert.Equal(t, 1500, ClampPollInterval(1500))
}

func TestRuntimeSettings(t *testing.T) {
	cfg := NewDefaultGlobalConfig()
	cfg.MonitorConfig.PollIntervalMs = 70000
	cfg.MonitorConfig.Debug = true

	assert.Equal(t, RuntimeSettings{PollIntervalMs: MaxPollIntervalMs, Debug: true}, cfg.RuntimeSettings())
}
