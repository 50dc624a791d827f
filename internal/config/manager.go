package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// ConfigManager owns the loaded configuration and, when hot reload is
// enabled, pushes reloadable settings to subscribers as the file changes.
type ConfigManager struct {
	mu           sync.RWMutex
	config       *GlobalConfig
	configPath   string
	overrides    *Arguments
	logger       zerolog.Logger
	watcher      *fsnotify.Watcher
	updates      chan RuntimeSettings
	stopChan     chan struct{}
	stopOnce     sync.Once
	lastModified time.Time

	hotReloadEnabled bool
	reloadDelay      time.Duration
}

// ConfigManagerOptions holds options for creating a ConfigManager
type ConfigManagerOptions struct {
	Logger zerolog.Logger
	// Overrides are reapplied after every load so the command line keeps precedence.
	Overrides *Arguments
	// HotReloadEnabled forces hot reload on regardless of the file's hot_reload key.
	HotReloadEnabled bool
	ReloadDelay      time.Duration
}

// DefaultConfigManagerOptions returns default options for ConfigManager
func DefaultConfigManagerOptions() ConfigManagerOptions {
	return ConfigManagerOptions{
		Logger:      zerolog.Nop(),
		ReloadDelay: DefaultConfigReloadDelayMillis * time.Millisecond,
	}
}

// NewConfigManager loads, overrides and validates the configuration.
func NewConfigManager(configPath string, opts ConfigManagerOptions) (*ConfigManager, error) {
	if opts.ReloadDelay <= 0 {
		opts.ReloadDelay = DefaultConfigReloadDelayMillis * time.Millisecond
	}

	cm := &ConfigManager{
		configPath:  GetConfigPath(configPath),
		overrides:   opts.Overrides,
		logger:      opts.Logger.With().Str("component", "ConfigManager").Logger(),
		updates:     make(chan RuntimeSettings, 1),
		stopChan:    make(chan struct{}),
		reloadDelay: opts.ReloadDelay,
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, fmt.Errorf("failed to load initial configuration: %w", err)
	}
	cm.config = cfg

	cm.hotReloadEnabled = (opts.HotReloadEnabled || cfg.HotReload) && cm.configPath != ""
	if cm.hotReloadEnabled {
		if err := cm.setupFileWatcher(); err != nil {
			cm.logger.Warn().Err(err).Msg("Failed to setup file watcher, hot-reload disabled")
			cm.hotReloadEnabled = false
		}
	}

	return cm, nil
}

// GetConfig returns a copy of the current configuration
func (cm *ConfigManager) GetConfig() *GlobalConfig {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	dst := *cm.config
	return &dst
}

// GetConfigPath returns the resolved configuration file path, empty when defaults are in use
func (cm *ConfigManager) GetConfigPath() string {
	return cm.configPath
}

// IsHotReloadEnabled returns whether hot-reload is enabled
func (cm *ConfigManager) IsHotReloadEnabled() bool {
	return cm.hotReloadEnabled
}

// Updates delivers the latest reloadable settings after each successful reload.
// Only the most recent value is retained.
func (cm *ConfigManager) Updates() <-chan RuntimeSettings {
	return cm.updates
}

// ReloadConfig re-reads the file. The watched URL is fixed for the run, so a
// changed URL is ignored with a warning.
func (cm *ConfigManager) ReloadConfig() error {
	cfg, err := cm.load()
	if err != nil {
		return err
	}

	cm.mu.Lock()
	previous := cm.config
	if cfg.MonitorConfig.URL != previous.MonitorConfig.URL {
		cm.logger.Warn().
			Str("configured_url", cfg.MonitorConfig.URL).
			Str("active_url", previous.MonitorConfig.URL).
			Msg("URL change requires a restart, keeping active URL")
		cfg.MonitorConfig.URL = previous.MonitorConfig.URL
	}
	cm.config = cfg
	cm.mu.Unlock()

	settings := cfg.RuntimeSettings()
	if settings != previous.RuntimeSettings() {
		cm.publish(settings)
		cm.logger.Info().
			Int("poll_interval_ms", settings.PollIntervalMs).
			Bool("debug", settings.Debug).
			Msg("Runtime settings updated")
	}
	return nil
}

// Run watches the configuration file until ctx is cancelled or Close is called.
// It returns immediately when hot reload is disabled.
func (cm *ConfigManager) Run(ctx context.Context) {
	if !cm.hotReloadEnabled || cm.watcher == nil {
		return
	}

	reloadTimer := time.NewTimer(0)
	if !reloadTimer.Stop() {
		<-reloadTimer.C
	}
	defer reloadTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			cm.logger.Debug().Msg("Hot-reload loop stopped due to context cancellation")
			return

		case <-cm.stopChan:
			cm.logger.Debug().Msg("Hot-reload loop stopped")
			return

		case event, ok := <-cm.watcher.Events:
			if !ok {
				return
			}
			if !cm.isConfigEvent(event) {
				continue
			}
			cm.logger.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("Config file change detected")
			reloadTimer.Reset(cm.reloadDelay)

		case err, ok := <-cm.watcher.Errors:
			if !ok {
				return
			}
			cm.logger.Error().Err(err).Msg("File watcher error")

		case <-reloadTimer.C:
			if !cm.fileChanged() {
				continue
			}
			cm.logger.Info().Msg("Reloading configuration due to file change")
			if err := cm.ReloadConfig(); err != nil {
				cm.logger.Error().Err(err).Msg("Failed to reload configuration, keeping previous settings")
			}
		}
	}
}

// Close stops the hot-reload loop and releases the watcher
func (cm *ConfigManager) Close() error {
	var err error
	cm.stopOnce.Do(func() {
		close(cm.stopChan)
		if cm.watcher != nil {
			err = cm.watcher.Close()
		}
	})
	return err
}

func (cm *ConfigManager) load() (*GlobalConfig, error) {
	cfg, err := LoadGlobalConfig(cm.configPath)
	if err != nil {
		return nil, err
	}
	cm.overrides.ApplyTo(cfg)

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	if cm.configPath != "" {
		if stat, err := os.Stat(cm.configPath); err == nil {
			cm.mu.Lock()
			cm.lastModified = stat.ModTime()
			cm.mu.Unlock()
		}
	}

	cm.logger.Debug().Str("path", cm.configPath).Msg("Configuration loaded")
	return cfg, nil
}

func (cm *ConfigManager) publish(settings RuntimeSettings) {
	select {
	case <-cm.updates:
	default:
	}
	select {
	case cm.updates <- settings:
	default:
	}
}

func (cm *ConfigManager) setupFileWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Editors often replace the file, so watch the directory instead of the file.
	configDir := filepath.Dir(cm.configPath)
	if err := watcher.Add(configDir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch config directory '%s': %w", configDir, err)
	}

	cm.watcher = watcher
	cm.logger.Info().Str("directory", configDir).Msg("File watcher setup for hot-reload")
	return nil
}

func (cm *ConfigManager) isConfigEvent(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}
	return filepath.Clean(event.Name) == filepath.Clean(cm.configPath)
}

func (cm *ConfigManager) fileChanged() bool {
	stat, err := os.Stat(cm.configPath)
	if err != nil {
		return false
	}
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return stat.ModTime().After(cm.lastModified)
}
