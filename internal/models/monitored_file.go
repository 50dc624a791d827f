package models

// MonitorTarget is the single resource observed during a run. Immutable once built.
type MonitorTarget struct {
	URL string `json:"url" yaml:"url"`
}

// NotificationEvent is produced once per detected change.
type NotificationEvent struct {
	URL          string
	NewTimestamp Timestamp
	Previous     Timestamp
}

// PollState is owned by the update monitor and mutated only inside its poll loop.
type PollState struct {
	LastKnown       Timestamp
	HasPriorFailure bool
}

// Observation describes what a successful poll did to the state.
type Observation struct {
	// Recovered is true when this success ended a run of failures.
	Recovered bool
	// Updated is true when the observed timestamp is strictly newer than the last known one.
	Updated  bool
	Previous Timestamp
}

// NewPollState returns the state a monitor starts with: unset timestamp, no failure.
func NewPollState() PollState {
	return PollState{LastKnown: UnsetTimestamp}
}

// RecordFailure marks the current poll as failed.
// It returns true when this failure starts a new run of failures.
func (s *PollState) RecordFailure() bool {
	first := !s.HasPriorFailure
	s.HasPriorFailure = true
	return first
}

// Observe applies a successful poll result. An unset ts is handled as a failure
// and produces a zero Observation.
func (s *PollState) Observe(ts Timestamp) Observation {
	if !ts.IsSet() {
		s.RecordFailure()
		return Observation{}
	}

	obs := Observation{Previous: s.LastKnown}
	if s.HasPriorFailure {
		s.HasPriorFailure = false
		obs.Recovered = true
	}
	if s.LastKnown.Before(ts) {
		obs.Updated = true
	}
	s.LastKnown = Later(s.LastKnown, ts)
	return obs
}
