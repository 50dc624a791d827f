package common

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapError(t *testing.T) {
	tests := []struct {
		name            string
		originalError   error
		message         string
		expectedMessage string
	}{
		{
			name:            "wrap simple error",
			originalError:   errors.New("original error"),
			message:         "wrapper message",
			expectedMessage: "wrapper message: original error",
		},
		{
			name:            "empty wrapper message",
			originalError:   errors.New("original error"),
			message:         "",
			expectedMessage: ": original error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrappedError := WrapError(tt.originalError, tt.message)
			assert.Error(t, wrappedError)
			assert.Equal(t, tt.expectedMessage, wrappedError.Error())
			assert.ErrorIs(t, wrappedError, tt.originalError)
		})
	}

	t.Run("wrap nil error", func(t *testing.T) {
		assert.NoError(t, WrapError(nil, "wrapper message"))
		assert.NoError(t, WrapErrorf(nil, "wrapper %d", 1))
	})
}

func TestFetchError(t *testing.T) {
	err := NewFetchError("https://example.com", "request failed", context.DeadlineExceeded)

	assert.Equal(t, "fetch 'https://example.com': request failed: context deadline exceeded", err.Error())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, IsFetchError(WrapError(err, "tick")))
	assert.False(t, IsFetchError(errors.New("plain")))

	withStatus := &FetchError{URL: "u", Reason: "unexpected status", StatusCode: 503}
	assert.Equal(t, "fetch 'u': unexpected status (HTTP 503)", withStatus.Error())
}

func TestStartupExhaustionError(t *testing.T) {
	last := NewFetchError("u", "missing header", ErrMissingLastModified)
	err := &StartupExhaustionError{URL: "u", Attempts: 3, Last: last}

	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.ErrorIs(t, err, ErrMissingLastModified)

	var se *StartupExhaustionError
	require.True(t, errors.As(WrapError(err, "monitor"), &se))
	assert.Equal(t, 3, se.Attempts)
}

func TestArgumentAndNotifierErrors(t *testing.T) {
	assert.Equal(t, "invalid arguments: url is empty", NewArgumentError("", "url is empty").Error())
	assert.Equal(t, "invalid argument 'ftp://x': scheme must be http or https", NewArgumentError("ftp://x", "scheme must be http or https").Error())

	cause := errors.New("webhook down")
	nerr := NewNotifierError("discord", cause)
	assert.ErrorIs(t, nerr, cause)
	assert.Equal(t, "notifier 'discord' failed: webhook down", nerr.Error())
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("poll_interval_ms", 10, "out of range")
	assert.Equal(t, "validation failed for field 'poll_interval_ms': out of range (value: 10)", err.Error())
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestCombineErrors(t *testing.T) {
	assert.NoError(t, CombineErrors(nil))
	assert.NoError(t, CombineErrors([]error{nil, nil}))

	single := errors.New("one")
	assert.Equal(t, single, CombineErrors([]error{nil, single}))

	two := CombineErrors([]error{errors.New("a"), errors.New("b")})
	require.Error(t, two)
	assert.Contains(t, two.Error(), "a")
	assert.Contains(t, two.Error(), "b")
}
