package models

import "time"

// DisplayLayout is the layout used for every timestamp shown to the operator.
const DisplayLayout = "2006/01/02 15:04:05"

// Timestamp is a server-reported last-modified instant.
// The zero value is the "unset" sentinel; it never compares as newer or older
// than anything, so it can never trigger an update.
type Timestamp struct {
	t time.Time
}

// UnsetTimestamp is the sentinel for "no valid timestamp known".
var UnsetTimestamp = Timestamp{}

// NewTimestamp wraps t. A zero time yields the unset sentinel.
func NewTimestamp(t time.Time) Timestamp {
	if t.IsZero() {
		return UnsetTimestamp
	}
	return Timestamp{t: t}
}

// IsSet reports whether ts holds a valid server timestamp.
func (ts Timestamp) IsSet() bool {
	return !ts.t.IsZero()
}

// Time returns the underlying instant (zero time when unset).
func (ts Timestamp) Time() time.Time {
	return ts.t
}

// Before reports ts < other. It is false whenever either side is unset.
func (ts Timestamp) Before(other Timestamp) bool {
	if !ts.IsSet() || !other.IsSet() {
		return false
	}
	return ts.t.Before(other.t)
}

// Equal reports whether both timestamps denote the same instant.
func (ts Timestamp) Equal(other Timestamp) bool {
	return ts.t.Equal(other.t)
}

// Format renders ts in local time using DisplayLayout.
func (ts Timestamp) Format() string {
	if !ts.IsSet() {
		return "unset"
	}
	return ts.t.Local().Format(DisplayLayout)
}

func (ts Timestamp) String() string {
	return ts.Format()
}

// Later returns the later of a and b, preferring any set value over the sentinel.
func Later(a, b Timestamp) Timestamp {
	if !a.IsSet() {
		return b
	}
	if a.Before(b) {
		return b
	}
	return a
}
