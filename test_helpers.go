package fsmsim

import (
	"strings"
	"sync"
	"testing"
)

// TestObserver captures every observer callback for assertions
type TestObserver struct {
	mutex       sync.RWMutex
	Transitions []TransitionRecord
	StateEnters []string
	StateExits  []string
	Steps       []StepRecord
	Guards      []GuardRecord
	NoMatches   []StepRecord
	EvalErrors  []*EvaluationError
	Resets      []string
}

type TransitionRecord struct {
	From  string
	To    string
	Event string
}

type StepRecord struct {
	State string
	Event string
}

type GuardRecord struct {
	From   string
	To     string
	Event  string
	Result bool
}

// NewTestObserver creates a new test observer
func NewTestObserver() *TestObserver {
	return &TestObserver{}
}

func (o *TestObserver) OnTransition(from string, to string, event string) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Transitions = append(o.Transitions, TransitionRecord{From: from, To: to, Event: event})
}

func (o *TestObserver) OnStateEnter(state string) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.StateEnters = append(o.StateEnters, state)
}

func (o *TestObserver) OnStateExit(state string) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.StateExits = append(o.StateExits, state)
}

func (o *TestObserver) OnStep(state string, event string) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Steps = append(o.Steps, StepRecord{State: state, Event: event})
}

func (o *TestObserver) OnGuardEvaluation(from string, to string, event string, result bool) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Guards = append(o.Guards, GuardRecord{From: from, To: to, Event: event, Result: result})
}

func (o *TestObserver) OnNoTransition(state string, event string) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.NoMatches = append(o.NoMatches, StepRecord{State: state, Event: event})
}

func (o *TestObserver) OnEvaluationError(err *EvaluationError) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.EvalErrors = append(o.EvalErrors, err)
}

func (o *TestObserver) OnReset(initial string) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Resets = append(o.Resets, initial)
}

func (o *TestObserver) TransitionCount() int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return len(o.Transitions)
}

func (o *TestObserver) LastTransition() *TransitionRecord {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	if len(o.Transitions) == 0 {
		return nil
	}
	return &o.Transitions[len(o.Transitions)-1]
}

// Canned definitions used across the test files

// CreateLoaderDefinition builds the Idle/Loading/Done machine: the during
// action on Loading increments the counter the finish guard checks
func CreateLoaderDefinition() *Definition {
	return NewDefinition().
		State("Idle").Initial().
		To("Loading").On("start").
		State("Loading").Entry("count = 0").During("count = count + 1").
		To("Done").On("finish").When("count > 0").
		State("Done").Final().
		Build()
}

// CreateTrafficDefinition builds a simple cyclic traffic light machine
func CreateTrafficDefinition() *Definition {
	return NewDefinition().
		State("Red").Initial().
		To("Green").On("go").
		State("Green").
		To("Yellow").On("caution").
		State("Yellow").
		To("Red").On("stop").
		Build()
}

// CreateLoaderEngine builds a ready engine from the loader definition
func CreateLoaderEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(CreateLoaderDefinition())
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return engine
}

// AssertState checks that the engine is in the expected state
func AssertState(t *testing.T, engine *Engine, expected string) {
	t.Helper()
	if current := engine.CurrentStateName(); current != expected {
		t.Errorf("Expected state %s, got %s", expected, current)
	}
}

// AssertVariable checks that a variable holds the expected value
func AssertVariable(t *testing.T, engine *Engine, name string, expected any) {
	t.Helper()
	value, ok := engine.Variables()[name]
	if !ok {
		t.Errorf("Expected variable %q to exist", name)
		return
	}
	if value != expected {
		t.Errorf("Expected variable %q to be %v (%T), got %v (%T)", name, expected, expected, value, value)
	}
}

// AssertLogContains checks that at least one drained line contains the
// given substring
func AssertLogContains(t *testing.T, lines []string, substring string) {
	t.Helper()
	for _, line := range lines {
		if strings.Contains(line, substring) {
			return
		}
	}
	t.Errorf("Expected log to contain %q, got %d lines:\n%s", substring, len(lines), strings.Join(lines, "\n"))
}
