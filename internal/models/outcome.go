package models

// Outcome is the reason a run ends.
type Outcome int

const (
	// OutcomeOperatorStop means the operator answered "stop" at the prompt.
	OutcomeOperatorStop Outcome = iota
	// OutcomeInterrupted means the process received an OS interrupt.
	OutcomeInterrupted
	// OutcomeStartupExhausted means no baseline timestamp could be fetched.
	OutcomeStartupExhausted
	// OutcomeStalled means the watchdog saw the monitor task end without a shutdown request.
	OutcomeStalled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOperatorStop:
		return "operator_stop"
	case OutcomeInterrupted:
		return "interrupted"
	case OutcomeStartupExhausted:
		return "startup_exhausted"
	case OutcomeStalled:
		return "stalled"
	default:
		return "unknown"
	}
}
