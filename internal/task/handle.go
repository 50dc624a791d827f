// Package task runs named goroutines and exposes their lifecycle through a
// read-only Handle, in the way a supervisor tracks its workers.
package task

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// State is the lifecycle position of a task
type State int32

const (
	StateRunning State = iota
	StateCompleted
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// PanicError is the failure recorded when a task panics
type PanicError struct {
	Task  string
	Value any
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Task, e.Value)
}

// Handle is an opaque reference to a running task. Observers may only ask
// whether it is running, failed or was cancelled; they cannot stop it.
type Handle struct {
	name      string
	state     atomic.Int32
	err       error
	done      chan struct{}
	startedAt time.Time
	stoppedAt atomic.Int64
}

// Go starts fn on its own goroutine. A panic in fn is recovered and recorded
// as a failure. Returning an error wrapping context.Canceled, or returning
// after ctx is cancelled with an error, counts as cancellation.
func Go(ctx context.Context, name string, logger zerolog.Logger, fn func(ctx context.Context) error) *Handle {
	h := &Handle{
		name:      name,
		done:      make(chan struct{}),
		startedAt: time.Now(),
	}
	h.state.Store(int32(StateRunning))
	log := logger.With().Str("component", "Task").Str("task", name).Logger()

	go func() {
		var err error
		defer func() {
			if r := recover(); r != nil {
				err = &PanicError{Task: name, Value: r, Stack: string(debug.Stack())}
				log.Error().Interface("panic", r).Str("stack", string(debug.Stack())).Msg("Task panicked")
			}
			h.finish(ctx, err)
			log.Debug().Str("state", h.State().String()).Err(err).Msg("Task stopped")
			close(h.done)
		}()

		log.Debug().Msg("Task started")
		err = fn(ctx)
	}()

	return h
}

func (h *Handle) finish(ctx context.Context, err error) {
	h.err = err
	h.stoppedAt.Store(time.Now().UnixNano())

	var panicErr *PanicError
	switch {
	case err == nil:
		h.state.Store(int32(StateCompleted))
	case errors.As(err, &panicErr):
		h.state.Store(int32(StateFailed))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil:
		h.state.Store(int32(StateCancelled))
	default:
		h.state.Store(int32(StateFailed))
	}
}

// Name returns the task name
func (h *Handle) Name() string {
	if h == nil {
		return "<nil>"
	}
	return h.name
}

// State returns the current lifecycle state. A nil handle reports failed.
func (h *Handle) State() State {
	if h == nil {
		return StateFailed
	}
	return State(h.state.Load())
}

// IsRunning reports whether the task has not returned yet
func (h *Handle) IsRunning() bool {
	return h.State() == StateRunning
}

// Failed reports whether the task returned an error or panicked
func (h *Handle) Failed() bool {
	return h.State() == StateFailed
}

// Cancelled reports whether the task stopped because its context was cancelled
func (h *Handle) Cancelled() bool {
	return h.State() == StateCancelled
}

// Completed reports whether the task returned without error
func (h *Handle) Completed() bool {
	return h.State() == StateCompleted
}

// Done is closed once the task has returned and its state is final
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Err returns the task's error. It is only meaningful after Done is closed.
func (h *Handle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}

// Runtime returns how long the task ran, or has been running so far
func (h *Handle) Runtime() time.Duration {
	if stopped := h.stoppedAt.Load(); stopped != 0 {
		return time.Unix(0, stopped).Sub(h.startedAt)
	}
	return time.Since(h.startedAt)
}

// Wait blocks until the task returns or ctx is done
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return h.err
	}
}
