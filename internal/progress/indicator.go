package progress

import "math"

var indicatorFrames = [4]string{"/", "-", `\`, "|"}

// Indicator is the four-phase rotating activity marker drawn by the watchdog.
// It is not safe for concurrent use; the watchdog owns it.
type Indicator struct {
	label   string
	counter int
}

// NewIndicator creates an indicator that prefixes every frame with label
func NewIndicator(label string) *Indicator {
	return &Indicator{label: label}
}

// Next returns the frame for the current phase and advances the counter.
// The counter wraps to zero before it can overflow; the wrap carries no meaning.
func (ind *Indicator) Next() string {
	frame := indicatorFrames[ind.counter%len(indicatorFrames)]
	if ind.counter == math.MaxInt {
		ind.counter = 0
	} else {
		ind.counter++
	}
	if ind.label == "" {
		return frame
	}
	return ind.label + " " + frame
}

// Phase returns the index of the frame Next will return
func (ind *Indicator) Phase() int {
	return ind.counter % len(indicatorFrames)
}
