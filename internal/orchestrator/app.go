package orchestrator

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/aleister1102/sitewatch/internal/common"
	"github.com/aleister1102/sitewatch/internal/config"
	"github.com/aleister1102/sitewatch/internal/httpclient"
	"github.com/aleister1102/sitewatch/internal/inputmode"
	"github.com/aleister1102/sitewatch/internal/metrics"
	"github.com/aleister1102/sitewatch/internal/monitor"
	"github.com/aleister1102/sitewatch/internal/notifier"
	"github.com/aleister1102/sitewatch/internal/progress"
	"github.com/aleister1102/sitewatch/internal/watchdog"
	"github.com/rs/zerolog"
)

// AppOptions holds what the entry point has already built
type AppOptions struct {
	Config        *config.GlobalConfig
	ConfigManager *config.ConfigManager
	Console       *progress.Console
	// Stdin is used for input mode control; ignored when Input is set
	Stdin   *os.File
	Input   inputmode.Controller
	// BellOut receives the bell byte directly. It must not be the Console:
	// the prompt holds the console lock and the bell would wait for the answer.
	BellOut io.Writer
	Logger  zerolog.Logger
}

// App wires the components of one monitoring run
type App struct {
	cfg      *config.GlobalConfig
	cm       *config.ConfigManager
	console  *progress.Console
	input    inputmode.Controller
	bellOut  io.Writer
	logger   zerolog.Logger
	recorder *metrics.Recorder
}

// NewApp validates opts and prepares the run
func NewApp(opts AppOptions) (*App, error) {
	if opts.Config == nil {
		return nil, common.NewValidationError("config", nil, "configuration is required")
	}
	if err := config.ValidateConfig(opts.Config); err != nil {
		return nil, err
	}

	app := &App{
		cfg:      opts.Config,
		cm:       opts.ConfigManager,
		console:  opts.Console,
		input:    opts.Input,
		bellOut:  opts.BellOut,
		logger:   opts.Logger,
		recorder: metrics.NewRecorder(opts.Config.MonitorConfig.URL),
	}
	if app.console == nil {
		app.console = progress.NewConsole(os.Stdout, os.Stdin, progress.DefaultStyles())
	}
	if app.input == nil {
		app.input = inputmode.New(opts.Stdin, opts.Logger)
	}
	return app, nil
}

// Recorder returns the run's metrics recorder
func (a *App) Recorder() *metrics.Recorder {
	return a.recorder
}

// Run monitors until the run ends and returns the process exit code. SIGINT
// and SIGTERM end the run as an interrupt.
func (a *App) Run(ctx context.Context) int {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	factory := httpclient.NewHTTPClientFactory(a.logger)
	client, err := factory.CreateMonitorClient(a.cfg.MonitorConfig)
	if err != nil {
		return a.fail(err, "Failed to create HTTP client")
	}
	fetcher := monitor.NewHTTPTimestampFetcher(client, a.cfg.MonitorConfig, a.logger)

	notify, err := notifier.New(a.cfg.NotificationConfig, factory, a.bellOut, a.logger)
	if err != nil {
		return a.fail(err, "Failed to set up notifications")
	}

	pinger := watchdog.Pinger(watchdog.NopPinger{})
	if a.cfg.WatchdogConfig.SystemdNotify {
		pinger = watchdog.NewSystemdPinger(a.logger)
	}

	coordinator := NewCoordinator(CoordinatorOptions{
		Services: a.services(),
		Pinger:   pinger,
		Input:    a.input,
		Console:  a.console,
		Logger:   a.logger,
	})

	var settings <-chan config.RuntimeSettings
	if a.cm != nil {
		settings = a.cm.Updates()
	}

	updateMonitor, err := monitor.NewUpdateMonitor(monitor.Options{
		Config:       a.cfg.MonitorConfig,
		Fetcher:      fetcher,
		Notifier:     notify,
		Input:        a.input,
		Console:      a.console,
		Recorder:     a.recorder,
		Shutdown:     coordinator.Shutdown,
		Settings:     settings,
		OnMonitoring: pinger.Ready,
		Logger:       a.logger,
	})
	if err != nil {
		return a.fail(err, "Failed to create update monitor")
	}

	newWatchdog := func(handles []watchdog.Supervised) Worker {
		return watchdog.NewLivenessWatchdog(watchdog.Options{
			Interval:       a.cfg.WatchdogConfig.Interval(),
			Handles:        handles,
			Console:        a.console,
			Pinger:         pinger,
			Recorder:       a.recorder,
			HealthLogEvery: a.cfg.WatchdogConfig.HealthLogEveryTicks,
			Logger:         a.logger,
		})
	}

	a.logger.Info().
		Str("url", a.cfg.MonitorConfig.URL).
		Dur("interval", a.cfg.MonitorConfig.PollInterval()).
		Strs("notifiers", notify.Channels()).
		Msg("Starting run")

	outcome := coordinator.Run(ctx, updateMonitor, newWatchdog)
	return ExitCode(outcome)
}

func (a *App) services() []Service {
	var services []Service

	if a.cfg.MetricsConfig.Enabled() {
		srv, err := metrics.NewServer(a.cfg.MetricsConfig, a.recorder, a.logger)
		if err != nil {
			a.logger.Warn().Err(err).Msg("Metrics disabled")
			a.console.Println(a.console.Styles().Warning.Render("Metrics are disabled: " + err.Error()))
		} else {
			services = append(services, Service{Name: "metrics", Worker: srv})
		}
	}

	if a.cm != nil && a.cm.IsHotReloadEnabled() {
		cm := a.cm
		services = append(services, Service{Name: "config-watcher", Worker: WorkerFunc(func(ctx context.Context) error {
			cm.Run(ctx)
			return nil
		})})
	}

	return services
}

func (a *App) fail(err error, msg string) int {
	a.logger.Error().Err(err).Msg(msg)
	a.console.Println(a.console.Styles().Advisory.Render(msg + ": " + err.Error()))
	return ExitInvalidArguments
}
