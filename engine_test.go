package fsmsim

import (
	"reflect"
	"testing"
)

func TestEngineInitialState(t *testing.T) {
	engine := CreateLoaderEngine(t)
	AssertState(t, engine, "Idle")

	lines := engine.DrainLog()
	AssertLogContains(t, lines, "FSM Reset. Current state: Idle")
}

func TestEngineRequiresStates(t *testing.T) {
	_, err := NewEngine(&Definition{})
	if err == nil {
		t.Fatal("Expected a configuration error")
	}
	if !IsConfigError(err) {
		t.Fatalf("Expected ConfigError, got %T", err)
	}
	if err.Error() != "FSM configuration error: No states defined in the FSM" {
		t.Errorf("Unexpected message: %s", err.Error())
	}
}

func TestEngineLoaderScenario(t *testing.T) {
	engine := CreateLoaderEngine(t)
	engine.DrainLog()

	result, err := engine.Step("start")
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if result.CurrentState != "Loading" {
		t.Errorf("Expected Loading, got %s", result.CurrentState)
	}
	AssertVariable(t, engine, "count", 0)

	// The during action increments count before the transition search, so
	// the finish guard sees count == 1 within the same step.
	result, err = engine.Step("finish")
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if result.CurrentState != "Done" {
		t.Errorf("Expected Done, got %s", result.CurrentState)
	}
	AssertVariable(t, engine, "count", 1)
	if !engine.IsInFinalState() {
		t.Error("Expected Done to be final")
	}
}

func TestEngineDeterminism(t *testing.T) {
	run := func() ([]string, []string) {
		engine := CreateLoaderEngine(t)
		var states []string
		var lines []string
		lines = append(lines, engine.DrainLog()...)
		for _, event := range []string{"start", "finish", "finish", ""} {
			result, err := engine.Step(event)
			if err != nil {
				t.Fatalf("Step failed: %v", err)
			}
			states = append(states, result.CurrentState)
			lines = append(lines, result.Log...)
		}
		return states, lines
	}

	states1, lines1 := run()
	states2, lines2 := run()
	if !reflect.DeepEqual(states1, states2) {
		t.Errorf("State sequences differ:\n%v\n%v", states1, states2)
	}
	if !reflect.DeepEqual(lines1, lines2) {
		t.Errorf("Log sequences differ:\n%v\n%v", lines1, lines2)
	}
}

func TestEngineFirstMatchShortCircuit(t *testing.T) {
	// Conditions carry side effects so the test can observe which of them
	// were evaluated: only candidates up to the first eligible one.
	def := NewDefinition().
		State("A").Initial().
		To("B").On("go").When("print('guard1') && false").
		To("C").On("go").When("print('guard2')").
		To("D").On("go").When("print('guard3')").
		State("B").
		State("C").
		State("D").
		Build()

	engine, err := NewEngine(def)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	engine.DrainLog()

	result, err := engine.Step("go")
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if result.CurrentState != "C" {
		t.Errorf("Expected first eligible transition to win (C), got %s", result.CurrentState)
	}

	AssertLogContains(t, result.Log, "[print] guard1")
	AssertLogContains(t, result.Log, "[print] guard2")
	for _, line := range result.Log {
		if line == "[print] guard3" {
			t.Error("Expected the third guard to never be evaluated")
		}
	}
}

func TestEngineDeclarationOrderTieBreak(t *testing.T) {
	def := NewDefinition().
		State("A").Initial().
		To("B").On("go").
		To("C").On("go").
		State("B").
		State("C").
		Build()

	engine, err := NewEngine(def)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	result, _ := engine.Step("go")
	if result.CurrentState != "B" {
		t.Errorf("Expected the first declared transition to win, got %s", result.CurrentState)
	}
}

func TestEngineEntryExitPairing(t *testing.T) {
	def := NewDefinition().
		State("A").Initial().Entry("entries_a = 1").Exit("exits_a = 1").
		To("B").On("go").Do("hops = 1").
		State("B").Entry("entries_b = 1").
		Build()

	observer := NewTestObserver()
	engine, err := NewEngine(def, WithObserver(observer))
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	engine.DrainLog()

	result, err := engine.Step("go")
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if !result.Transitioned {
		t.Fatal("Expected a transition")
	}

	if got := observer.StateExits; !reflect.DeepEqual(got, []string{"A"}) {
		t.Errorf("Expected exactly one exit of A, got %v", got)
	}
	// A entered once at reset, B entered once by the transition
	if got := observer.StateEnters; !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("Expected enters [A B], got %v", got)
	}

	// Ordering within the step: exit action, transition action, entry action
	var order []string
	for _, line := range result.Log {
		switch {
		case line == "[Action] Exit action for state 'A'.":
			order = append(order, "exit")
		case line == "[Action] Transition action on 'A' -> 'B'.":
			order = append(order, "action")
		case line == "[Action] Entry action for state 'B'.":
			order = append(order, "entry")
		}
	}
	if !reflect.DeepEqual(order, []string{"exit", "action", "entry"}) {
		t.Errorf("Expected firing order exit/action/entry, got %v", order)
	}
}

func TestEngineErrorContainment(t *testing.T) {
	def := NewDefinition().
		State("A").Initial().During("this is not valid $$").
		To("B").On("go").When("1/0").
		To("B").On("go").
		State("B").Entry("x = = broken").
		Build()

	engine, err := NewEngine(def)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	engine.DrainLog()

	// Broken during action, broken first guard and broken entry action all
	// get contained; the step still lands in B via the second transition.
	result, err := engine.Step("go")
	if err != nil {
		t.Fatalf("Expected contained errors, got %v", err)
	}
	if result.CurrentState != "B" {
		t.Errorf("Expected B, got %s", result.CurrentState)
	}
	AssertLogContains(t, result.Log, "Eval Error")
	AssertLogContains(t, result.Log, "Condition Blocked")
}

func TestEngineHaltOnActionError(t *testing.T) {
	def := NewDefinition().
		State("A").Initial().
		To("B").On("go").Do("boom = 1/0").
		State("B").
		Build()

	engine, err := NewEngine(def, WithHaltOnActionError())
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	result, err := engine.Step("go")
	if err == nil {
		t.Fatal("Expected the action error to surface in halt mode")
	}
	if !IsEvaluationError(err) {
		t.Fatalf("Expected EvaluationError, got %T", err)
	}
	// The firing sequence still completed before the error was reported
	if result.CurrentState != "B" {
		t.Errorf("Expected B, got %s", result.CurrentState)
	}
	AssertLogContains(t, result.Log, "Simulation HALTED")

	// The halt latches: further steps are refused until a reset
	result, err = engine.Step("go")
	if err == nil {
		t.Fatal("Expected the halted engine to refuse the step")
	}
	if !IsHaltedError(err) {
		t.Fatalf("Expected HaltedError, got %T", err)
	}
	if result.Transitioned {
		t.Error("Expected no transition while halted")
	}
	AssertLogContains(t, result.Log, "Reset required")

	if err := engine.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if _, err := engine.Step("missing"); err != nil {
		t.Errorf("Expected stepping to resume after reset, got %v", err)
	}
}

func TestEngineVariablePersistenceAndReset(t *testing.T) {
	def := NewDefinition().
		State("A").Initial().
		To("A").On("bump").Do("x = 1").
		To("A").On("bump2").Do("x = x + 1").
		Build()

	engine, err := NewEngine(def)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	engine.Step("bump")
	engine.Step("bump2")
	AssertVariable(t, engine, "x", 2)

	if err := engine.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if _, ok := engine.Variables()["x"]; ok {
		t.Error("Expected reset to clear variables")
	}
	AssertState(t, engine, "A")
}

func TestEngineNoInitialFallback(t *testing.T) {
	def := &Definition{
		States: []StateDef{
			{Name: "First"},
			{Name: "Second"},
			{Name: "Third"},
		},
	}

	engine, err := NewEngine(def)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	AssertState(t, engine, "First")
	AssertLogContains(t, engine.DrainLog(),
		"Warning: No initial state explicitly defined. Using first state 'First' as initial.")
}

func TestEnginePossibleEvents(t *testing.T) {
	def := NewDefinition().
		State("A").Initial().
		To("B").On("zulu").
		To("B").On("alpha").When("false").
		To("B").On("zulu").
		To("B").
		State("B").
		To("A").On("back").
		Build()

	engine, err := NewEngine(def)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	// Distinct, sorted, guard truth ignored, event-agnostic excluded
	want := []string{"alpha", "zulu"}
	if got := engine.PossibleEvents(); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	engine.Step("zulu")
	want = []string{"back"}
	if got := engine.PossibleEvents(); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestEngineNoEligibleTransition(t *testing.T) {
	observer := NewTestObserver()
	engine := CreateLoaderEngine(t)
	engine.AddObserver(observer)
	engine.DrainLog()

	result, err := engine.Step("finish")
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if result.Transitioned {
		t.Error("Expected no transition")
	}
	if result.CurrentState != "Idle" {
		t.Errorf("Expected state unchanged, got %s", result.CurrentState)
	}
	AssertLogContains(t, result.Log, "No eligible transition from state 'Idle' for event 'finish'.")
	if len(observer.NoMatches) != 1 {
		t.Errorf("Expected one no-transition notification, got %d", len(observer.NoMatches))
	}
}

func TestEngineWildcardAndInternalEvents(t *testing.T) {
	def := NewDefinition().
		State("A").Initial().
		To("B").On("exact").
		To("C").On("*").
		State("B").
		State("C").
		To("A").
		Build()

	engine, err := NewEngine(def)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	// Wildcard matches any non-empty event that nothing exact claimed
	result, _ := engine.Step("anything")
	if result.CurrentState != "C" {
		t.Errorf("Expected wildcard to match, got %s", result.CurrentState)
	}

	// Event-agnostic transition fires on an internal step
	result, _ = engine.Step("")
	if result.CurrentState != "A" {
		t.Errorf("Expected internal step to fire the event-agnostic transition, got %s", result.CurrentState)
	}

	// Wildcard does not match an internal step
	engine2, _ := NewEngine(NewDefinition().
		State("A").Initial().
		To("B").On("*").
		State("B").
		Build())
	result, _ = engine2.Step("")
	if result.CurrentState != "A" {
		t.Errorf("Expected wildcard to ignore internal steps, got %s", result.CurrentState)
	}

	// Exact match is case-sensitive
	engine3, _ := NewEngine(NewDefinition().
		State("A").Initial().
		To("B").On("Go").
		State("B").
		Build())
	result, _ = engine3.Step("go")
	if result.Transitioned {
		t.Error("Expected case-sensitive matching")
	}
}

func TestEngineFinalStateDoesNotHalt(t *testing.T) {
	def := NewDefinition().
		State("A").Initial().
		To("End").On("finish").
		State("End").Final().
		To("A").On("again").
		Build()

	engine, err := NewEngine(def)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	engine.Step("finish")
	AssertState(t, engine, "End")
	if !engine.IsInFinalState() {
		t.Error("Expected End to be final")
	}

	// Stepping continues past a final state
	result, _ := engine.Step("again")
	if result.CurrentState != "A" {
		t.Errorf("Expected stepping past the final state, got %s", result.CurrentState)
	}
}

func TestEngineSelfTransition(t *testing.T) {
	def := NewDefinition().
		State("A").Initial().Entry("enters = 1").Exit("exits = 1").
		To("A").On("loop").
		Build()

	observer := NewTestObserver()
	engine, err := NewEngine(def, WithObserver(observer))
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	result, _ := engine.Step("loop")
	if !result.Transitioned {
		t.Error("Expected the self transition to fire")
	}
	if result.StateChanged() {
		t.Error("Expected StateChanged to be false for a self transition")
	}
	if len(observer.StateExits) != 1 || len(observer.StateEnters) != 2 {
		t.Errorf("Expected exit and re-entry, got exits=%v enters=%v", observer.StateExits, observer.StateEnters)
	}
}

func TestEngineDrainSemantics(t *testing.T) {
	engine := CreateLoaderEngine(t)

	first := engine.DrainLog()
	if len(first) == 0 {
		t.Fatal("Expected construction to produce log lines")
	}
	if second := engine.DrainLog(); len(second) != 0 {
		t.Errorf("Expected an empty drain after draining, got %v", second)
	}

	result, _ := engine.Step("start")
	if len(result.Log) == 0 {
		t.Error("Expected the step to produce log lines")
	}
	if leftover := engine.DrainLog(); len(leftover) != 0 {
		t.Errorf("Expected Step to have drained the log, got %v", leftover)
	}
}

func TestEngineVariablesSnapshotIsolated(t *testing.T) {
	engine := CreateLoaderEngine(t)
	engine.Step("start")

	snapshot := engine.Variables()
	snapshot["count"] = 999

	AssertVariable(t, engine, "count", 0)
}

func TestEngineSeedVariables(t *testing.T) {
	def := NewDefinition().
		State("A").Initial().
		To("B").On("go").When("threshold > 5").
		State("B").
		Build()

	engine, err := NewEngine(def)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	result, _ := engine.Step("go")
	if result.Transitioned {
		t.Error("Expected the guard to block without the seeded variable")
	}

	engine.SetVariable("threshold", 10)
	result, _ = engine.Step("go")
	if result.CurrentState != "B" {
		t.Errorf("Expected the seeded variable to satisfy the guard, got %s", result.CurrentState)
	}
}
