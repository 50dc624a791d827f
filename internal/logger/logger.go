package logger

import (
	"io"

	"github.com/aleister1102/sitewatch/internal/common"
	"github.com/aleister1102/sitewatch/internal/config"
	"github.com/rs/zerolog"
)

// Logger represents the main logger with configuration
type Logger struct {
	zerolog zerolog.Logger
	config  LoggerConfig
	closers []io.Closer
}

// GetZerolog returns the underlying zerolog instance
func (l *Logger) GetZerolog() *zerolog.Logger {
	return &l.zerolog
}

// Config returns the effective logger configuration
func (l *Logger) Config() LoggerConfig {
	return l.config
}

// Close flushes and closes file outputs
func (l *Logger) Close() error {
	var errs []error
	for _, c := range l.closers {
		errs = append(errs, c.Close())
	}
	return common.CombineErrors(errs)
}

// New creates a logger from the application config. console receives console
// output when log_to_console is enabled; nil means stderr.
func New(cfg config.LogConfig, console io.Writer) (*Logger, error) {
	return NewLoggerBuilder().WithConfig(cfg).WithConsole(console).Build()
}
