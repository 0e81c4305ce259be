package fsmsim

import "fmt"

// ErrorCode represents specific error conditions in the engine
type ErrorCode int

const (
	// No error occurred
	ErrCodeNone ErrorCode = iota
	// FSM description is unusable (e.g. no states defined)
	ErrCodeInvalidConfig
	// A user snippet failed to compile or evaluate
	ErrCodeEvaluationFailed
	// A transition references a state that does not exist
	ErrCodeDanglingTransition
	// Definition payload could not be decoded
	ErrCodeDecodeFailed
	// Engine halted after an action failure and needs a reset
	ErrCodeHalted
)

// ConfigError is the only error that crosses the engine boundary during
// construction and reset. Everything else is absorbed into the action log.
type ConfigError struct {
	Code    ErrorCode
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("FSM configuration error: %s", e.Message)
}

// NewConfigError creates a new configuration error
func NewConfigError(message string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeInvalidConfig,
		Message: message,
	}
}

// NewNoStatesError reports a definition with an empty state list
func NewNoStatesError() *ConfigError {
	return &ConfigError{
		Code:    ErrCodeInvalidConfig,
		Message: "No states defined in the FSM",
	}
}

// NewDecodeError reports a definition payload that could not be decoded
func NewDecodeError(format string, err error) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeDecodeFailed,
		Message: fmt.Sprintf("cannot decode %s definition: %v", format, err),
	}
}

// EvaluationKind distinguishes which evaluator produced an EvaluationError
type EvaluationKind string

const (
	EvalCondition EvaluationKind = "condition"
	EvalAction    EvaluationKind = "action"
)

// EvaluationError wraps a failure inside a user-authored snippet. It is
// contained by default: conditions degrade to false and actions abort the
// remainder of their statement list. It only escapes Step and Reset when the
// engine runs with HaltOnActionError.
type EvaluationError struct {
	Kind        EvaluationKind
	Snippet     string
	State       string
	OriginalErr error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("%s evaluation failed in state '%s' (snippet %q): %v",
		e.Kind, e.State, e.Snippet, e.OriginalErr)
}

func (e *EvaluationError) Unwrap() error {
	return e.OriginalErr
}

// NewEvaluationError creates a new evaluation error
func NewEvaluationError(kind EvaluationKind, snippet, state string, err error) *EvaluationError {
	return &EvaluationError{
		Kind:        kind,
		Snippet:     snippet,
		State:       state,
		OriginalErr: err,
	}
}

// LinkError reports a transition whose source or target state is missing
// from the definition. It is recoverable: the transition is dropped and the
// rest of the FSM still loads.
type LinkError struct {
	Source  string
	Target  string
	Event   string
	Missing string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("transition '%s'->'%s' on '%s' references unknown state '%s'",
		e.Source, e.Target, e.Event, e.Missing)
}

// NewLinkError creates a new dangling-transition error
func NewLinkError(source, target, event, missing string) *LinkError {
	return &LinkError{
		Source:  source,
		Target:  target,
		Event:   event,
		Missing: missing,
	}
}

// HaltedError reports a Step attempted after the engine halted on an
// action failure in halt mode. Only Reset clears the halt.
type HaltedError struct {
	Cause *EvaluationError
}

func (e *HaltedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("simulation halted after %v; reset required", e.Cause)
	}
	return "simulation halted; reset required"
}

func (e *HaltedError) Unwrap() error {
	if e.Cause == nil {
		return nil
	}
	return e.Cause
}

// NewHaltedError creates a new halted error
func NewHaltedError(cause *EvaluationError) *HaltedError {
	return &HaltedError{Cause: cause}
}

// IsConfigError checks if an error is a ConfigError
func IsConfigError(err error) bool {
	_, ok := err.(*ConfigError)
	return ok
}

// IsEvaluationError checks if an error is an EvaluationError
func IsEvaluationError(err error) bool {
	_, ok := err.(*EvaluationError)
	return ok
}

// IsLinkError checks if an error is a LinkError
func IsLinkError(err error) bool {
	_, ok := err.(*LinkError)
	return ok
}

// IsHaltedError checks if an error is a HaltedError
func IsHaltedError(err error) bool {
	_, ok := err.(*HaltedError)
	return ok
}

// GetErrorCode returns the error code for known error types
func GetErrorCode(err error) ErrorCode {
	switch e := err.(type) {
	case *ConfigError:
		return e.Code
	case *EvaluationError:
		return ErrCodeEvaluationFailed
	case *LinkError:
		return ErrCodeDanglingTransition
	case *HaltedError:
		return ErrCodeHalted
	default:
		return ErrCodeNone
	}
}
