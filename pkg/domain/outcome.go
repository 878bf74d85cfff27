package domain

// OutcomeCode is the three-valued result of one execution call.
type OutcomeCode string

const (
	OutcomeSuccess OutcomeCode = "success"
	OutcomeFailure OutcomeCode = "failure"
	OutcomePaused  OutcomeCode = "paused"
)

// Outcome is what every execution call returns. Control flow is carried
// in the value itself: a failure carries its reason, a pause signals
// cooperative interruption (not an error), and nothing is communicated
// through panics or sentinel returns.
type Outcome struct {
	Code OutcomeCode
	Err  error // reason, set when Code == OutcomeFailure
}

// Succeed returns a successful outcome.
func Succeed() Outcome {
	return Outcome{Code: OutcomeSuccess}
}

// Fail returns a failure outcome carrying the reason.
func Fail(err error) Outcome {
	return Outcome{Code: OutcomeFailure, Err: err}
}

// Pause returns an outcome reporting cooperative interruption.
func Pause() Outcome {
	return Outcome{Code: OutcomePaused}
}

// Success reports whether the call finished successfully.
func (o Outcome) Success() bool { return o.Code == OutcomeSuccess }

// Failed reports whether the call finished with a fault.
func (o Outcome) Failed() bool { return o.Code == OutcomeFailure }

// Paused reports whether the call was interrupted cooperatively.
func (o Outcome) Paused() bool { return o.Code == OutcomePaused }

// Status maps the outcome to the lifecycle status a container should
// adopt after the call.
func (o Outcome) Status() Status {
	switch o.Code {
	case OutcomeFailure:
		return StatusFailed
	case OutcomePaused:
		return StatusPaused
	default:
		return StatusCompleted
	}
}

func (o Outcome) String() string {
	if o.Failed() && o.Err != nil {
		return string(o.Code) + ": " + o.Err.Error()
	}
	if o.Code == "" {
		return string(OutcomeSuccess)
	}
	return string(o.Code)
}
