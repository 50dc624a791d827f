// Package orchestrator starts the monitor and its watchdog, waits for one of
// them to ask for termination and turns the run outcome into an exit code.
package orchestrator

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/aleister1102/sitewatch/internal/common"
	"github.com/aleister1102/sitewatch/internal/inputmode"
	"github.com/aleister1102/sitewatch/internal/models"
	"github.com/aleister1102/sitewatch/internal/progress"
	"github.com/aleister1102/sitewatch/internal/task"
	"github.com/aleister1102/sitewatch/internal/watchdog"
	"github.com/rs/zerolog"
)

// Process exit codes
const (
	ExitOK               = 0
	ExitStartupExhausted = 3
	ExitStalled          = 4
	ExitInvalidArguments = 0xA0
)

const defaultShutdownGrace = 5 * time.Second

// Worker is a long-running unit started by the coordinator
type Worker interface {
	Run(ctx context.Context) error
}

// WorkerFunc adapts a function to Worker
type WorkerFunc func(ctx context.Context) error

func (f WorkerFunc) Run(ctx context.Context) error { return f(ctx) }

// Service is a background worker that is not watched for liveness, such as
// the metrics listener or the config watcher
type Service struct {
	Name   string
	Worker Worker
}

// WatchdogFactory builds the watchdog once the monitor handle exists
type WatchdogFactory func(handles []watchdog.Supervised) Worker

// CoordinatorOptions configures a Coordinator
type CoordinatorOptions struct {
	Services      []Service
	Pinger        watchdog.Pinger
	Input         inputmode.Controller
	Console       *progress.Console
	ShutdownGrace time.Duration
	Logger        zerolog.Logger
}

// Coordinator owns the run's shutdown signal. Children request termination
// through Shutdown; the coordinator itself holds no business logic.
type Coordinator struct {
	services []Service
	pinger   watchdog.Pinger
	input    inputmode.Controller
	console  *progress.Console
	grace    time.Duration
	logger   zerolog.Logger

	mu         sync.Mutex
	cancel     context.CancelFunc
	outcome    models.Outcome
	requested  bool
	cancelOnce sync.Once
}

// NewCoordinator creates a coordinator
func NewCoordinator(opts CoordinatorOptions) *Coordinator {
	c := &Coordinator{
		services: opts.Services,
		pinger:   opts.Pinger,
		input:    opts.Input,
		console:  opts.Console,
		grace:    opts.ShutdownGrace,
		logger:   opts.Logger.With().Str("component", "Coordinator").Logger(),
	}
	if c.pinger == nil {
		c.pinger = watchdog.NopPinger{}
	}
	if c.input == nil {
		c.input = inputmode.Nop{}
	}
	if c.console == nil {
		c.console = progress.NewConsole(io.Discard, nil, progress.PlainStyles())
	}
	if c.grace <= 0 {
		c.grace = defaultShutdownGrace
	}
	return c
}

// Shutdown records outcome and cancels the run. Only the first request counts.
func (c *Coordinator) Shutdown(outcome models.Outcome) {
	c.mu.Lock()
	if !c.requested {
		c.requested = true
		c.outcome = outcome
		c.logger.Info().Str("outcome", outcome.String()).Msg("Shutdown requested")
	}
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		c.cancelOnce.Do(cancel)
	}
}

// Run starts monitor, the watchdog built by newWatchdog and every service, then
// blocks until a shutdown is requested, the watchdog reports a stall or ctx
// is cancelled. Cancellation of ctx without a request is an interrupt.
func (c *Coordinator) Run(ctx context.Context, monitor Worker, newWatchdog WatchdogFactory) models.Outcome {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	c.cancel = cancel
	requested := c.requested
	c.mu.Unlock()
	if requested {
		cancel()
	}

	monitorHandle := task.Go(runCtx, "monitor", c.logger, monitor.Run)
	watchdogHandle := task.Go(runCtx, "watchdog", c.logger, newWatchdog([]watchdog.Supervised{monitorHandle}).Run)

	handles := []*task.Handle{monitorHandle, watchdogHandle}
	for _, svc := range c.services {
		handles = append(handles, c.startService(runCtx, svc))
	}

	select {
	case <-runCtx.Done():
	case <-watchdogHandle.Done():
		err := watchdogHandle.Err()
		if errors.Is(err, common.ErrStalled) || watchdogHandle.Failed() {
			c.logger.Error().Err(err).Msg("Watchdog ended the run")
			c.Shutdown(models.OutcomeStalled)
		}
	}

	outcome := c.resolveOutcome()
	cancel()
	c.pinger.Stopping()
	c.awaitAll(handles)

	if err := c.input.Restore(); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to restore input mode")
	}
	c.console.Finish()

	c.logger.Info().
		Str("outcome", outcome.String()).
		Dur("monitor_runtime", monitorHandle.Runtime()).
		Msg("Run finished")
	return outcome
}

func (c *Coordinator) startService(ctx context.Context, svc Service) *task.Handle {
	return task.Go(ctx, svc.Name, c.logger, func(ctx context.Context) error {
		err := svc.Worker.Run(ctx)
		if err != nil && ctx.Err() == nil {
			c.logger.Warn().Err(err).Str("service", svc.Name).Msg("Background service stopped")
		}
		return err
	})
}

func (c *Coordinator) resolveOutcome() models.Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.requested {
		c.requested = true
		c.outcome = models.OutcomeInterrupted
		c.logger.Info().Msg("Interrupted")
	}
	return c.outcome
}

// awaitAll waits up to the grace period for every task to return
func (c *Coordinator) awaitAll(handles []*task.Handle) {
	deadline, cancel := context.WithTimeout(context.Background(), c.grace)
	defer cancel()

	for _, h := range handles {
		if err := h.Wait(deadline); errors.Is(err, context.DeadlineExceeded) && deadline.Err() != nil {
			c.logger.Warn().Str("task", h.Name()).Msg("Task did not stop within the shutdown grace period")
			return
		}
	}
}

// ExitCode maps a run outcome to the process exit code
func ExitCode(outcome models.Outcome) int {
	switch outcome {
	case models.OutcomeOperatorStop, models.OutcomeInterrupted:
		return ExitOK
	case models.OutcomeStartupExhausted:
		return ExitStartupExhausted
	case models.OutcomeStalled:
		return ExitStalled
	default:
		return ExitStalled
	}
}
