// Package watchdog supervises worker tasks and draws the activity indicator
// while they are healthy.
package watchdog

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aleister1102/sitewatch/internal/common"
	"github.com/aleister1102/sitewatch/internal/progress"
	"github.com/rs/zerolog"
)

const (
	stoppedAdvisory = "The program has stopped. Please restart it."
	missingAdvisory = "An error occurred. Please restart the program."
	indicatorLabel  = "Monitoring"
)

// Supervised is the read-only view of a task the watchdog needs
type Supervised interface {
	Name() string
	IsRunning() bool
	Failed() bool
	Cancelled() bool
}

// StallRecorder counts stalls for metrics
type StallRecorder interface {
	WatchdogStalled()
}

// Options configures a LivenessWatchdog
type Options struct {
	Interval time.Duration
	Handles  []Supervised
	Console  *progress.Console
	Pinger   Pinger
	Recorder StallRecorder
	// HealthLogEvery logs a resource snapshot every N healthy ticks; 0 disables it
	HealthLogEvery int
	Snapshot       func() ResourceSnapshot
	Logger         zerolog.Logger
}

// LivenessWatchdog checks its handles on a fixed cadence. It never stops the
// tasks it watches; on a stall it reports and ends its own loop.
type LivenessWatchdog struct {
	interval       time.Duration
	handles        []Supervised
	console        *progress.Console
	indicator      *progress.Indicator
	pinger         Pinger
	recorder       StallRecorder
	healthLogEvery int
	snapshot       func() ResourceSnapshot
	logger         zerolog.Logger
	ticks          int
}

// NewLivenessWatchdog creates a watchdog for opts.Handles
func NewLivenessWatchdog(opts Options) *LivenessWatchdog {
	w := &LivenessWatchdog{
		interval:       opts.Interval,
		handles:        opts.Handles,
		console:        opts.Console,
		indicator:      progress.NewIndicator(indicatorLabel),
		pinger:         opts.Pinger,
		recorder:       opts.Recorder,
		healthLogEvery: opts.HealthLogEvery,
		snapshot:       opts.Snapshot,
		logger:         opts.Logger.With().Str("component", "LivenessWatchdog").Logger(),
	}
	if w.interval <= 0 {
		w.interval = time.Second
	}
	if w.console == nil {
		w.console = progress.NewConsole(io.Discard, nil, progress.PlainStyles())
	}
	if w.pinger == nil {
		w.pinger = NopPinger{}
	}
	if w.recorder == nil {
		w.recorder = nopStallRecorder{}
	}
	if w.snapshot == nil {
		w.snapshot = TakeSnapshot
	}
	return w
}

// Run checks the handles every interval until ctx is done or a stall is found.
// It returns nil on cancellation and an error wrapping common.ErrStalled on a stall.
func (w *LivenessWatchdog) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Debug().Dur("interval", w.interval).Int("handles", len(w.handles)).Msg("Watchdog started")
	for {
		select {
		case <-ctx.Done():
			w.logger.Debug().Msg("Watchdog stopped")
			return nil
		case <-ticker.C:
		}

		if err := w.Check(ctx); err != nil {
			return err
		}
	}
}

// Check performs one liveness check. On a healthy tick it draws the next
// indicator frame and pings the service manager.
func (w *LivenessWatchdog) Check(ctx context.Context) error {
	if len(w.handles) == 0 {
		return w.stall(ctx, missingAdvisory, "no task to supervise")
	}

	for _, h := range w.handles {
		if h == nil {
			return w.stall(ctx, missingAdvisory, "task handle is missing")
		}
		if !h.IsRunning() {
			return w.stall(ctx, stoppedAdvisory, fmt.Sprintf("task %s is %s", h.Name(), describe(h)))
		}
	}

	w.ticks++
	w.console.Frame(w.indicator.Next())
	w.pinger.Watchdog()

	if w.healthLogEvery > 0 && w.ticks%w.healthLogEvery == 0 {
		if e := w.logger.Debug(); e.Enabled() {
			e.EmbedObject(w.snapshot()).Int("ticks", w.ticks).Msg("Watchdog health")
		}
	}
	return nil
}

func (w *LivenessWatchdog) stall(ctx context.Context, advisory, reason string) error {
	// A task that ends after shutdown was requested is not a stall.
	if ctx.Err() != nil {
		return nil
	}

	w.recorder.WatchdogStalled()
	w.logger.Error().EmbedObject(w.snapshot()).Str("reason", reason).Msg("Supervised task stalled")
	w.console.Println(w.console.Styles().Advisory.Render(advisory))
	return common.WrapError(common.ErrStalled, reason)
}

func describe(h Supervised) string {
	switch {
	case h.Failed():
		return "failed"
	case h.Cancelled():
		return "cancelled"
	default:
		return "completed"
	}
}

type nopStallRecorder struct{}

func (nopStallRecorder) WatchdogStalled() {}
