// Package inputmode toggles the terminal features that let stray operator
// input disturb a running monitor: quick-edit selection on Windows consoles
// and echo on POSIX terminals.
package inputmode

import (
	"os"

	"github.com/rs/zerolog"
)

// Controller suppresses interactive input while monitoring and restores the
// original mode before the operator is asked a question.
type Controller interface {
	Suppress() error
	Restore() error
}

// Nop is used when the input is not a terminal
type Nop struct{}

func (Nop) Suppress() error { return nil }
func (Nop) Restore() error  { return nil }

// New returns a controller for f, or Nop when f is not an interactive terminal.
func New(f *os.File, logger zerolog.Logger) Controller {
	log := logger.With().Str("component", "InputMode").Logger()
	if f == nil {
		return Nop{}
	}

	ctrl, err := newPlatformController(f)
	if err != nil {
		log.Debug().Err(err).Msg("Input mode control unavailable")
		return Nop{}
	}
	log.Debug().Msg("Input mode control enabled")
	return ctrl
}
