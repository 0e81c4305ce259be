package fsmsim

// StepResult reports the outcome of a single Step call: the (possibly
// unchanged) current state and the log lines accumulated since the previous
// drain. A step with no eligible transition is a normal outcome, not an
// error, so it is reported here rather than through an error value.
type StepResult struct {
	// CurrentState is the state name after the step
	CurrentState string
	// PreviousState is the state name before the step
	PreviousState string
	// Event is the event the step was invoked with ("" for internal steps)
	Event string
	// Transitioned is true when an eligible transition fired
	Transitioned bool
	// Log holds the trace lines drained by this step
	Log []string
}

// StateChanged reports whether the step left the engine in a different
// state than it started in. Self-transitions fire exit and entry actions
// but leave this false.
func (r *StepResult) StateChanged() bool {
	return r.CurrentState != r.PreviousState
}
