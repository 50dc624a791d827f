package common

import (
	"errors"
	"fmt"
)

// Common error values used across the application
var (
	// ErrMissingLastModified indicates the server answered but reported no modification time
	ErrMissingLastModified = errors.New("response has no last-modified timestamp")
	// ErrTimeout indicates a fetch did not complete within its wall-clock budget
	ErrTimeout = errors.New("operation timed out")
	// ErrStalled is reported by the watchdog when a supervised task is no longer running
	ErrStalled = errors.New("supervised task is not running")
	// ErrInputClosed indicates the operator input stream ended while a prompt was pending
	ErrInputClosed = errors.New("operator input closed")
	// ErrInvalidConfiguration indicates configuration issues
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// WrapError wraps an error with additional context information
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// WrapErrorf wraps an error with formatted context information
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// NewError creates a new error with a formatted message
func NewError(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

// FetchError is returned by the timestamp fetcher for every kind of failure:
// transport errors, timeouts, bad status codes and missing timestamps.
// It is always recoverable by retrying.
type FetchError struct {
	URL        string
	Reason     string
	StatusCode int
	Wrapped    error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("fetch '%s': %s", e.URL, e.Reason)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.StatusCode)
	}
	if e.Wrapped != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Wrapped)
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Wrapped
}

// NewFetchError creates a new fetch error
func NewFetchError(url, reason string, wrapped error) *FetchError {
	return &FetchError{
		URL:     url,
		Reason:  reason,
		Wrapped: wrapped,
	}
}

// StartupExhaustionError means no baseline timestamp could be established.
type StartupExhaustionError struct {
	URL      string
	Attempts int
	Last     error
}

func (e *StartupExhaustionError) Error() string {
	return fmt.Sprintf("could not establish a baseline for '%s' after %d attempts: %v", e.URL, e.Attempts, e.Last)
}

func (e *StartupExhaustionError) Unwrap() error {
	return e.Last
}

// ArgumentError represents invalid command line input. It is fatal before any worker starts.
type ArgumentError struct {
	Argument string
	Reason   string
}

func (e *ArgumentError) Error() string {
	if e.Argument == "" {
		return fmt.Sprintf("invalid arguments: %s", e.Reason)
	}
	return fmt.Sprintf("invalid argument '%s': %s", e.Argument, e.Reason)
}

// NewArgumentError creates a new argument error
func NewArgumentError(argument, reason string) *ArgumentError {
	return &ArgumentError{Argument: argument, Reason: reason}
}

// NotifierError wraps a failure of one notification channel. It never affects monitoring.
type NotifierError struct {
	Channel string
	Wrapped error
}

func (e *NotifierError) Error() string {
	return fmt.Sprintf("notifier '%s' failed: %v", e.Channel, e.Wrapped)
}

func (e *NotifierError) Unwrap() error {
	return e.Wrapped
}

// NewNotifierError creates a new notifier error
func NewNotifierError(channel string, wrapped error) *NotifierError {
	return &NotifierError{Channel: channel, Wrapped: wrapped}
}

// ValidationError represents validation errors with field-specific information
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfiguration
}

// NewValidationError creates a new validation error
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// IsFetchError reports whether err carries a *FetchError anywhere in its chain.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// CombineErrors joins the non-nil errors; it returns nil when there are none.
func CombineErrors(errs []error) error {
	var kept []error
	for _, err := range errs {
		if err != nil {
			kept = append(kept, err)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	default:
		return errors.Join(kept...)
	}
}
