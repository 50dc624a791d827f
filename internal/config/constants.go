package config

const (
	// Monitor Defaults
	DefaultMonitorURL                   = "https://www3.boj.or.jp/market/jp/menu_etf.htm"
	DefaultPollIntervalMs               = 1000
	MinPollIntervalMs                   = 500
	MaxPollIntervalMs                   = 60000
	DefaultFetchTimeoutSeconds          = 10
	DefaultStartupAttempts              = 3
	DefaultStartupBackoffSeconds        = 5
	DefaultMonitorUserAgent             = "sitewatch/1.0"
	DefaultMonitorInsecureSkipVerify    = false
	DefaultMonitorHTMLMetaFallback      = false
	DefaultNotificationTimeoutSeconds   = 20
	DefaultNotificationRatePerMinute    = 6
	DefaultNotificationBell             = true
	DefaultWatchdogIntervalMs           = 1000
	DefaultWatchdogSystemdNotify        = true
	DefaultWatchdogHealthLogEveryTicks  = 60
	DefaultMetricsPath                  = "/metrics"
	DefaultConfigReloadDelayMillis      = 500
	DefaultMaxConfigFileSizeBytes int64 = 1 << 20

	// Log Defaults
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultLogFile       = "sitewatch.log"
	DefaultMaxLogSizeMB  = 100
	DefaultMaxLogBackups = 3

	// ConfigPathEnv names the environment variable consulted by GetConfigPath.
	ConfigPathEnv = "SITEWATCH_CONFIG_PATH"
)
