package fsmsim

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorMessages(t *testing.T) {
	configErr := NewNoStatesError()
	if configErr.Error() != "FSM configuration error: No states defined in the FSM" {
		t.Errorf("Unexpected message: %s", configErr.Error())
	}

	linkErr := NewLinkError("A", "Ghost", "go", "Ghost")
	if linkErr.Error() != "transition 'A'->'Ghost' on 'go' references unknown state 'Ghost'" {
		t.Errorf("Unexpected message: %s", linkErr.Error())
	}

	evalErr := NewEvaluationError(EvalCondition, "1/0", "A", fmt.Errorf("division by zero"))
	if evalErr.Error() != `condition evaluation failed in state 'A' (snippet "1/0"): division by zero` {
		t.Errorf("Unexpected message: %s", evalErr.Error())
	}
}

func TestErrorPredicates(t *testing.T) {
	configErr := NewConfigError("broken")
	evalErr := NewEvaluationError(EvalAction, "x", "A", fmt.Errorf("bad"))
	linkErr := NewLinkError("A", "B", "e", "B")

	if !IsConfigError(configErr) || IsConfigError(evalErr) {
		t.Error("IsConfigError misclassified")
	}
	if !IsEvaluationError(evalErr) || IsEvaluationError(linkErr) {
		t.Error("IsEvaluationError misclassified")
	}
	if !IsLinkError(linkErr) || IsLinkError(configErr) {
		t.Error("IsLinkError misclassified")
	}
}

func TestErrorCodes(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorCode
	}{
		{NewConfigError("x"), ErrCodeInvalidConfig},
		{NewDecodeError("JSON", fmt.Errorf("bad")), ErrCodeDecodeFailed},
		{NewEvaluationError(EvalAction, "x", "A", nil), ErrCodeEvaluationFailed},
		{NewLinkError("A", "B", "e", "B"), ErrCodeDanglingTransition},
		{NewHaltedError(nil), ErrCodeHalted},
		{fmt.Errorf("plain"), ErrCodeNone},
	}
	for _, tc := range cases {
		if got := GetErrorCode(tc.err); got != tc.want {
			t.Errorf("GetErrorCode(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestHaltedError(t *testing.T) {
	cause := NewEvaluationError(EvalAction, "x = 1/0", "A", fmt.Errorf("division by zero"))
	haltErr := NewHaltedError(cause)

	if !IsHaltedError(haltErr) || IsHaltedError(cause) {
		t.Error("IsHaltedError misclassified")
	}
	if !errors.Is(haltErr, cause) {
		t.Error("Expected the halting cause to be reachable through Unwrap")
	}

	bare := NewHaltedError(nil)
	if bare.Error() != "simulation halted; reset required" {
		t.Errorf("Unexpected message: %s", bare.Error())
	}
}

func TestEvaluationErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("division by zero")
	evalErr := NewEvaluationError(EvalCondition, "1/0", "A", cause)

	if !errors.Is(evalErr, cause) {
		t.Error("Expected the original error to be reachable through Unwrap")
	}
}
