package monitor

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aleister1102/sitewatch/internal/common"
	"github.com/aleister1102/sitewatch/internal/config"
	"github.com/aleister1102/sitewatch/internal/models"
	"github.com/aleister1102/sitewatch/internal/progress"
	"github.com/rs/zerolog"
)

const retryAdvisory = "Retrying... If this does not recover after a while, please restart the app."

// Notifier delivers one notification event. Errors are reported to the
// operator but never stop monitoring.
type Notifier interface {
	Notify(ctx context.Context, event models.NotificationEvent) error
}

// InputController toggles the terminal's interactive selection mode.
type InputController interface {
	Suppress() error
	Restore() error
}

// Recorder receives poll outcomes for metrics
type Recorder interface {
	PollSucceeded(lastModified time.Time)
	PollFailed()
	UpdateDetected()
	Recovered()
}

// Sleeper waits for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

// Options holds the collaborators of an UpdateMonitor. Only Fetcher is required.
type Options struct {
	Config   config.MonitorConfig
	Fetcher  TimestampFetcher
	Notifier Notifier
	Input    InputController
	Console  *progress.Console
	Recorder Recorder
	// Shutdown is called with the run outcome before Run returns for a
	// startup failure or an operator stop.
	Shutdown func(models.Outcome)
	// Settings delivers runtime changes from a config reload
	Settings <-chan config.RuntimeSettings
	// OnMonitoring is called once the baseline is known
	OnMonitoring func()
	Sleep        Sleeper
	Now          func() time.Time
	Logger       zerolog.Logger
}

// UpdateMonitor polls one URL and reacts when its last-modified timestamp
// moves forward. All of its state is owned by the goroutine running Run.
type UpdateMonitor struct {
	target       models.MonitorTarget
	attempts     int
	backoff      time.Duration
	interval     time.Duration
	debug        bool
	fetcher      TimestampFetcher
	notifier     Notifier
	input        InputController
	console      *progress.Console
	recorder     Recorder
	shutdown     func(models.Outcome)
	settings     <-chan config.RuntimeSettings
	onMonitoring func()
	sleep        Sleeper
	now          func() time.Time
	logger       zerolog.Logger

	state models.PollState
}

// NewUpdateMonitor creates a monitor for opts.Config.URL
func NewUpdateMonitor(opts Options) (*UpdateMonitor, error) {
	if opts.Fetcher == nil {
		return nil, common.NewError("update monitor requires a timestamp fetcher")
	}
	if opts.Config.URL == "" {
		return nil, common.NewError("update monitor requires a URL")
	}

	m := &UpdateMonitor{
		target:       models.MonitorTarget{URL: opts.Config.URL},
		attempts:     opts.Config.Attempts(),
		backoff:      opts.Config.StartupBackoff(),
		interval:     opts.Config.PollInterval(),
		debug:        opts.Config.Debug,
		fetcher:      opts.Fetcher,
		notifier:     opts.Notifier,
		input:        opts.Input,
		console:      opts.Console,
		recorder:     opts.Recorder,
		shutdown:     opts.Shutdown,
		settings:     opts.Settings,
		onMonitoring: opts.OnMonitoring,
		sleep:        opts.Sleep,
		now:          opts.Now,
		logger:       opts.Logger.With().Str("component", "UpdateMonitor").Str("url", opts.Config.URL).Logger(),
		state:        models.NewPollState(),
	}

	if m.notifier == nil {
		m.notifier = nopNotifier{}
	}
	if m.input == nil {
		m.input = nopInput{}
	}
	if m.console == nil {
		m.console = progress.NewConsole(io.Discard, nil, progress.PlainStyles())
	}
	if m.recorder == nil {
		m.recorder = nopRecorder{}
	}
	if m.shutdown == nil {
		m.shutdown = func(models.Outcome) {}
	}
	if m.onMonitoring == nil {
		m.onMonitoring = func() {}
	}
	if m.sleep == nil {
		m.sleep = SleepContext
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m, nil
}

// Target returns the monitored resource
func (m *UpdateMonitor) Target() models.MonitorTarget {
	return m.target
}

// State returns a copy of the poll state. Only safe to call when Run is not running.
func (m *UpdateMonitor) State() models.PollState {
	return m.state
}

// Run establishes a baseline and then polls until ctx is cancelled or the
// operator chooses to stop. It returns nil on an operator stop,
// *common.StartupExhaustionError when no baseline could be fetched and the
// context error on cancellation.
func (m *UpdateMonitor) Run(ctx context.Context) error {
	m.suppressInput()

	if err := m.establishBaseline(ctx); err != nil {
		return err
	}

	for {
		m.applySettings()

		if err := m.sleep(ctx, m.interval); err != nil {
			return err
		}

		stop, err := m.tick(ctx)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
}

func (m *UpdateMonitor) establishBaseline(ctx context.Context) error {
	var lastErr error
	for attempt := 1; attempt <= m.attempts; attempt++ {
		if attempt > 1 {
			if err := m.sleep(ctx, m.backoff); err != nil {
				return err
			}
		}

		ts, err := m.fetch(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil {
			m.state.Observe(ts)
			m.recorder.PollSucceeded(ts.Time())
			m.announceStart(ts)
			return nil
		}

		lastErr = err
		m.recorder.PollFailed()
		m.logger.Warn().Err(err).Int("attempt", attempt).Int("max_attempts", m.attempts).Msg("Startup fetch failed")
		m.console.Println(m.console.Styles().Warning.Render(
			fmt.Sprintf("Could not read the update time (attempt %d/%d): %v", attempt, m.attempts, err)))
	}

	exhausted := &common.StartupExhaustionError{URL: m.target.URL, Attempts: m.attempts, Last: lastErr}
	m.logger.Error().Err(exhausted).Msg("Could not establish a baseline timestamp")
	m.console.Println(m.console.Styles().Advisory.Render(
		"A problem occurred while reading the site's update time. Check the URL and the network connection, then restart the app."))
	m.shutdown(models.OutcomeStartupExhausted)
	return exhausted
}

func (m *UpdateMonitor) announceStart(ts models.Timestamp) {
	m.logger.Info().Time("last_modified", ts.Time()).Dur("interval", m.interval).Msg("Monitoring started")

	info := m.console.Styles().Info
	m.console.Println(info.Render("Start!"))
	m.console.Println(info.Render("URL: " + m.target.URL))
	m.console.Println(info.Render(fmt.Sprintf("This site was last updated at %q.", ts.Format())))
	m.console.Println(info.Render("A sound will play when the site is updated."))
	m.onMonitoring()
}

// tick performs one steady-state poll. It reports stop=true when the operator
// asked to end the run.
func (m *UpdateMonitor) tick(ctx context.Context) (bool, error) {
	ts, err := m.fetch(ctx)
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		m.state.RecordFailure()
		m.recorder.PollFailed()
		m.logger.Warn().Err(err).Msg("Poll failed")
		warning := m.console.Styles().Warning
		m.console.Println(warning.Render(fmt.Sprintf("Error: %v", err)))
		m.console.Println(warning.Render(retryAdvisory))
		return false, nil
	}

	if m.debug {
		now := m.now()
		m.logger.Debug().Time("now", now).Time("last_modified", ts.Time()).Msg("Poll succeeded")
		m.console.Printf("Debug Mode: (%s) Update time = %s, URL = %s", now.Local().Format(models.DisplayLayout), ts.Format(), m.target.URL)
	}

	obs := m.state.Observe(ts)
	m.recorder.PollSucceeded(m.state.LastKnown.Time())

	if obs.Recovered {
		m.recorder.Recovered()
		m.logger.Info().Time("last_modified", m.state.LastKnown.Time()).Msg("Polling recovered")
		m.console.Println(m.console.Styles().Info.Render(
			fmt.Sprintf("The app is working normally. Last update time: %q", m.state.LastKnown.Format())))
	}

	if !obs.Updated {
		return false, nil
	}

	m.recorder.UpdateDetected()
	return m.handleUpdate(ctx, models.NotificationEvent{
		URL:          m.target.URL,
		NewTimestamp: ts,
		Previous:     obs.Previous,
	})
}

// fetch wraps the fetcher so an unset timestamp is reported as a failure
func (m *UpdateMonitor) fetch(ctx context.Context) (models.Timestamp, error) {
	ts, err := m.fetcher.Fetch(ctx, m.target.URL)
	if err != nil {
		return models.UnsetTimestamp, err
	}
	if !ts.IsSet() {
		return models.UnsetTimestamp, common.NewFetchError(m.target.URL, "no modification time reported", common.ErrMissingLastModified)
	}
	return ts, nil
}

// handleUpdate notifies the operator and asks whether to keep going. The
// console is held for the whole exchange so indicator frames stay off the prompt.
func (m *UpdateMonitor) handleUpdate(ctx context.Context, event models.NotificationEvent) (bool, error) {
	m.logger.Info().
		Time("previous", event.Previous.Time()).
		Time("last_modified", event.NewTimestamp.Time()).
		Msg("Site update detected")

	stop := false
	err := m.console.Exclusive(func(s *progress.Session) error {
		s.Println(s.Styles().Update.Render("The site was updated. Update time: " + event.NewTimestamp.Format()))

		if err := m.notifier.Notify(ctx, event); err != nil {
			m.logger.Error().Err(err).Msg("Notification failed")
			s.Println(s.Styles().Warning.Render(fmt.Sprintf("Notification failed: %v", err)))
		}

		if err := m.input.Restore(); err != nil {
			m.logger.Warn().Err(err).Msg("Failed to restore interactive input mode")
			s.Println(s.Styles().Warning.Render(inputModeWarning("restore", err)))
		}

		answer, err := askStop(ctx, s)
		if err != nil {
			return err
		}
		stop = answer
		if stop {
			s.Println("Exiting the app.")
		} else {
			s.Println("Continuing to monitor.")
		}
		return nil
	})
	if err != nil {
		m.logger.Warn().Err(err).Msg("Prompt ended without an answer")
		return false, err
	}

	if stop {
		m.logger.Info().Msg("Operator stopped monitoring")
		m.shutdown(models.OutcomeOperatorStop)
		return true, nil
	}

	m.suppressInput()
	return false, nil
}

func (m *UpdateMonitor) suppressInput() {
	if err := m.input.Suppress(); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to suppress interactive input mode")
		m.console.Println(m.console.Styles().Warning.Render(inputModeWarning("suppress", err)))
	}
}

func inputModeWarning(action string, err error) string {
	return fmt.Sprintf("Could not %s the terminal input mode: %v", action, err)
}

func (m *UpdateMonitor) applySettings() {
	select {
	case settings, ok := <-m.settings:
		if !ok {
			m.settings = nil
			return
		}
		interval := time.Duration(config.ClampPollInterval(settings.PollIntervalMs)) * time.Millisecond
		if interval != m.interval || settings.Debug != m.debug {
			m.logger.Info().Dur("interval", interval).Bool("debug", settings.Debug).Msg("Applied new runtime settings")
		}
		m.interval = interval
		m.debug = settings.Debug
	default:
	}
}

// SleepContext waits for d or until ctx is done, returning ctx.Err() in the latter case
func SleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, models.NotificationEvent) error { return nil }

type nopInput struct{}

func (nopInput) Suppress() error { return nil }
func (nopInput) Restore() error  { return nil }

type nopRecorder struct{}

func (nopRecorder) PollSucceeded(time.Time) {}
func (nopRecorder) PollFailed()             {}
func (nopRecorder) UpdateDetected()         {}
func (nopRecorder) Recovered()              {}
