package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(s string) Timestamp {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return NewTimestamp(t)
}

func TestTimestamp_UnsetNeverCompares(t *testing.T) {
	t0 := ts("2024-01-01T00:00:00Z")

	assert.False(t, UnsetTimestamp.IsSet())
	assert.False(t, NewTimestamp(time.Time{}).IsSet())
	assert.False(t, UnsetTimestamp.Before(t0))
	assert.False(t, t0.Before(UnsetTimestamp))
	assert.False(t, t0.Before(t0), "equal timestamps are not ordered")
	assert.Equal(t, "unset", UnsetTimestamp.Format())
}

func TestTimestamp_Later(t *testing.T) {
	t0 := ts("2024-01-01T00:00:00Z")
	t1 := ts("2024-01-01T00:05:00Z")

	assert.Equal(t, t1, Later(t0, t1))
	assert.Equal(t, t1, Later(t1, t0))
	assert.Equal(t, t0, Later(UnsetTimestamp, t0))
	assert.Equal(t, t0, Later(t0, UnsetTimestamp))
}

func TestTimestamp_FormatUsesDisplayLayout(t *testing.T) {
	at := time.Date(2024, 1, 1, 9, 30, 0, 0, time.Local)
	assert.Equal(t, "2024/01/01 09:30:00", NewTimestamp(at).Format())
}

func TestPollState_NeverRegresses(t *testing.T) {
	seq := []Timestamp{
		ts("2024-01-01T00:00:00Z"),
		ts("2024-01-01T00:05:00Z"),
		ts("2023-12-31T23:00:00Z"),
		UnsetTimestamp,
		ts("2024-01-01T00:04:00Z"),
		ts("2024-01-01T00:06:00Z"),
	}

	state := NewPollState()
	prev := state.LastKnown
	for _, s := range seq {
		state.Observe(s)
		if prev.IsSet() {
			assert.False(t, state.LastKnown.Before(prev), "last known regressed from %s to %s", prev, state.LastKnown)
		}
		prev = state.LastKnown
	}
	assert.Equal(t, ts("2024-01-01T00:06:00Z"), state.LastKnown)
}

func TestPollState_UpdateOnlyWhenStrictlyNewer(t *testing.T) {
	t0 := ts("2024-01-01T00:00:00Z")
	state := PollState{LastKnown: t0}

	assert.False(t, state.Observe(t0).Updated, "equal is not an update")
	assert.False(t, state.Observe(ts("2023-01-01T00:00:00Z")).Updated, "older is not an update")

	obs := state.Observe(ts("2024-01-01T00:00:01Z"))
	assert.True(t, obs.Updated)
	assert.Equal(t, t0, obs.Previous)
}

func TestPollState_FirstObservationIsBaseline(t *testing.T) {
	state := NewPollState()
	obs := state.Observe(ts("2024-01-01T00:00:00Z"))

	assert.False(t, obs.Updated, "establishing a baseline is never an update")
	assert.True(t, state.LastKnown.IsSet())
}

func TestPollState_RecoveryOncePerFailureRun(t *testing.T) {
	t0 := ts("2024-01-01T00:00:00Z")
	state := PollState{LastKnown: t0}

	assert.True(t, state.RecordFailure())
	assert.False(t, state.RecordFailure(), "second failure in the same run")
	assert.True(t, state.HasPriorFailure)

	recoveries := 0
	for i := 0; i < 3; i++ {
		if state.Observe(t0).Recovered {
			recoveries++
		}
	}
	assert.Equal(t, 1, recoveries)
	assert.False(t, state.HasPriorFailure)

	require.True(t, state.RecordFailure())
	assert.True(t, state.Observe(t0).Recovered)
}

func TestPollState_UnsetObservationCountsAsFailure(t *testing.T) {
	t0 := ts("2024-01-01T00:00:00Z")
	state := PollState{LastKnown: t0}

	obs := state.Observe(UnsetTimestamp)

	assert.Equal(t, Observation{}, obs)
	assert.True(t, state.HasPriorFailure)
	assert.Equal(t, t0, state.LastKnown)
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "operator_stop", OutcomeOperatorStop.String())
	assert.Equal(t, "startup_exhausted", OutcomeStartupExhausted.String())
	assert.Equal(t, "stalled", OutcomeStalled.String())
	assert.Equal(t, "interrupted", OutcomeInterrupted.String())
	assert.Equal(t, "unknown", Outcome(42).String())
}
