package fsmsim

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Option configures an Engine at construction time
type Option func(*Engine)

// WithHaltOnActionError makes action evaluation failures fatal: Step and
// Reset return the EvaluationError instead of absorbing it. Condition
// failures still degrade to false. The default is the forgiving mode, where
// a single bad snippet never interrupts a running simulation.
func WithHaltOnActionError() Option {
	return func(e *Engine) {
		e.haltOnError = true
	}
}

// WithObserver attaches an observer before the initial reset, so it also
// sees the construction-time entry into the initial state
func WithObserver(observer Observer) Option {
	return func(e *Engine) {
		e.observers.AddObserver(observer)
	}
}

// withLogPrefix marks every trace line of this engine. Used for the
// sub-machines of superstates.
func withLogPrefix(prefix string) Option {
	return func(e *Engine) {
		e.prefix = prefix
	}
}

// Engine executes one FSM instance: it owns the state table, the variable
// store and the action log, and advances strictly one Step at a time.
// Calls on a single instance are serialized by an internal mutex; separate
// instances share no state and may run concurrently.
type Engine struct {
	mutex     sync.Mutex
	id        string
	prefix    string
	table     *StateTable
	vars      *VariableStore
	log       *ActionLog
	eval      *Evaluator
	observers *ObserverManager

	current     string
	haltOnError bool
	halted      bool
	haltCause   *EvaluationError

	// child engine while the current state is a superstate
	sub          *Engine
	subCompleted bool
}

// NewEngine builds an engine from a definition and resets it to its initial
// state, running the initial state's entry action. The only fatal
// construction error is an empty state list; dangling transitions are
// dropped with a logged warning. With WithHaltOnActionError, a failing
// initial entry action is also returned as an error.
func NewEngine(def *Definition, opts ...Option) (*Engine, error) {
	table, err := NewStateTable(def)
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		id:        uuid.New().String(),
		table:     table,
		observers: NewObserverManager(),
	}
	for _, opt := range opts {
		opt(engine)
	}
	engine.vars = NewVariableStore()
	engine.log = NewActionLog(engine.prefix)
	engine.eval = NewEvaluator(engine.vars, engine.log)

	for _, warning := range table.Warnings() {
		engine.log.Appendf("[Warning] Dropped %v", warning)
	}

	if err := engine.resetLocked(); err != nil {
		return nil, err
	}
	return engine, nil
}

// ID returns the unique identifier of this engine instance
func (e *Engine) ID() string {
	return e.id
}

// AddObserver attaches an observer
func (e *Engine) AddObserver(observer Observer) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.observers.AddObserver(observer)
}

// RemoveObserver detaches an observer
func (e *Engine) RemoveObserver(observer Observer) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.observers.RemoveObserver(observer)
}

// Reset clears all variables, re-resolves the initial state and runs its
// entry action. The engine returns to the same state a freshly constructed
// engine would be in.
func (e *Engine) Reset() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.resetLocked()
}

func (e *Engine) resetLocked() error {
	e.vars.Clear()
	e.sub = nil
	e.subCompleted = false
	e.halted = false
	e.haltCause = nil
	e.current = ""

	initial, fallback := e.table.ResolveInitial()
	if fallback {
		e.log.Appendf("Warning: No initial state explicitly defined. Using first state '%s' as initial.", initial)
	}

	entryErr := e.enterState(initial)
	e.log.Appendf("FSM Reset. Current state: %s", e.current)
	e.observers.NotifyReset(e.current)

	if entryErr != nil && e.haltOnError {
		return entryErr
	}
	return nil
}

// Step advances the FSM by one step. The empty event means an internal
// step: only event-agnostic transitions are candidates. The canonical order
// is fixed: during-action first, then the transition search, then
// exit/transition/entry actions of the fired transition. The returned
// result carries the state after the step and the log lines drained since
// the previous drain. The error is non-nil only with WithHaltOnActionError.
func (e *Engine) Step(event string) (*StepResult, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.halted {
		e.log.Append("Simulation HALTED. Reset required before further steps.")
		return &StepResult{
			CurrentState:  e.current,
			PreviousState: e.current,
			Event:         event,
			Log:           e.log.Drain(),
		}, NewHaltedError(e.haltCause)
	}

	previous := e.current
	e.log.Appendf("--- Step. State: %s. Event: %s ---", e.current, displayEvent(event))
	e.observers.NotifyStep(e.current, event)

	finish := func(transitioned bool, err *EvaluationError) (*StepResult, error) {
		if err != nil && e.haltOnError {
			e.halted = true
			e.haltCause = err
			e.log.Appendf("Simulation HALTED: %v. Reset required to continue.", err)
		}
		result := &StepResult{
			CurrentState:  e.current,
			PreviousState: previous,
			Event:         event,
			Transitioned:  transitioned,
			Log:           e.log.Drain(),
		}
		if err != nil && e.haltOnError {
			return result, err
		}
		return result, nil
	}

	state := e.table.State(e.current)

	// During-action runs before the transition search, so its variable
	// mutations are visible to the conditions evaluated in this same step.
	if state.DuringAction != "" {
		e.log.Appendf("[Action] During action in state '%s'.", e.current)
		if err := e.runAction(state.DuringAction, e.current); err != nil {
			if e.haltOnError {
				return finish(false, err)
			}
		}
	}

	if state.IsSuperstate && e.sub != nil {
		if err := e.stepSub(event); err != nil && e.haltOnError {
			return finish(false, err)
		}
	}

	for _, tr := range e.table.TransitionsFrom(e.current) {
		if !eventMatches(tr.Event, event) {
			continue
		}
		conditionMet := e.eval.EvalCondition(tr.Condition, e.current)
		e.observers.NotifyGuardEvaluation(tr.Source, tr.Target, tr.Event, conditionMet)
		if !conditionMet {
			e.log.Appendf("[Condition Blocked] Transition '%s'->'%s' on '%s': condition '%s' evaluated as False.",
				tr.Source, tr.Target, displayEvent(tr.Event), tr.Condition)
			continue
		}

		err := e.fireTransition(state, tr, event)
		return finish(true, err)
	}

	e.log.Appendf("No eligible transition from state '%s' for event '%s'. State unchanged.",
		e.current, displayEvent(event))
	e.observers.NotifyNoTransition(e.current, event)
	return finish(false, nil)
}

// fireTransition runs the fixed firing sequence: exit action, transition
// action, state update, entry action. Each phase's failure is contained
// individually; later phases still run. The first failure is returned for
// the halt mode.
func (e *Engine) fireTransition(source *StateDef, tr TransitionDef, event string) *EvaluationError {
	e.log.Appendf("[Transition] %s -> %s on event '%s'.", tr.Source, tr.Target, displayEvent(event))

	var firstErr *EvaluationError
	keep := func(err *EvaluationError) {
		if firstErr == nil {
			firstErr = err
		}
	}

	if source.ExitAction != "" {
		e.log.Appendf("[Action] Exit action for state '%s'.", source.Name)
		if err := e.runAction(source.ExitAction, source.Name); err != nil {
			keep(err)
		}
	}
	e.observers.NotifyStateExit(source.Name)
	if source.IsSuperstate {
		e.sub = nil
		e.subCompleted = false
	}

	if tr.Action != "" {
		e.log.Appendf("[Action] Transition action on '%s' -> '%s'.", tr.Source, tr.Target)
		if err := e.runAction(tr.Action, tr.Source); err != nil {
			keep(err)
		}
	}

	if err := e.enterState(tr.Target); err != nil {
		keep(err)
	}
	e.observers.NotifyTransition(tr.Source, tr.Target, event)

	return firstErr
}

// enterState updates the current state, runs its entry action and, for a
// superstate, constructs and resets the child engine.
func (e *Engine) enterState(name string) *EvaluationError {
	e.current = name
	state := e.table.State(name)

	var entryErr *EvaluationError
	if state.EntryAction != "" {
		e.log.Appendf("[Action] Entry action for state '%s'.", name)
		entryErr = e.runAction(state.EntryAction, name)
	}

	if state.IsSuperstate && state.SubFSM != nil {
		e.startSub(state)
	}

	e.observers.NotifyStateEnter(name)
	return entryErr
}

func (e *Engine) startSub(state *StateDef) {
	opts := []Option{withLogPrefix(e.prefix + "[SUB] ")}
	if e.haltOnError {
		opts = append(opts, WithHaltOnActionError())
	}
	sub, err := NewEngine(state.SubFSM, opts...)
	if err != nil {
		e.log.Appendf("[Warning] Sub-machine of superstate '%s' failed to initialize: %v", state.Name, err)
		return
	}
	e.sub = sub
	e.subCompleted = false
	for _, line := range sub.DrainLog() {
		e.log.AppendRaw(line)
	}
}

// stepSub forwards the event to the child engine of the current superstate
// and merges its trace into the parent log. When the child reaches a final
// state, the parent variable <superstate>_sub_completed is set so guard
// conditions on outgoing transitions can observe it.
func (e *Engine) stepSub(event string) *EvaluationError {
	result, err := e.sub.Step(event)
	for _, line := range result.Log {
		e.log.AppendRaw(line)
	}

	subState := e.sub.table.State(result.CurrentState)
	if subState != nil && subState.IsFinal && !e.subCompleted {
		e.subCompleted = true
		e.vars.Set(e.current+"_sub_completed", true)
		e.log.Appendf("Sub-machine of superstate '%s' reached final state '%s'.", e.current, result.CurrentState)
	}

	if evalErr, ok := err.(*EvaluationError); ok {
		return evalErr
	}
	return nil
}

// runAction executes an action snippet and routes any failure to the
// observers; containment itself happens inside the evaluator
func (e *Engine) runAction(snippet, state string) *EvaluationError {
	err := e.eval.RunAction(snippet, state)
	if err != nil {
		e.observers.NotifyEvaluationError(err)
	}
	return err
}

// CurrentStateName returns the name of the current state. While a
// superstate is active the child's state is reported in the composite form
// "Working (Prepare)".
func (e *Engine) CurrentStateName() string {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if e.sub != nil {
		return fmt.Sprintf("%s (%s)", e.current, e.sub.CurrentStateName())
	}
	return e.current
}

// CurrentLeafStateName returns the innermost active state name, descending
// through any active sub-machines
func (e *Engine) CurrentLeafStateName() string {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if e.sub != nil {
		return e.sub.CurrentLeafStateName()
	}
	return e.current
}

// Variables returns a snapshot copy of the variable store. Mutating the
// returned map does not affect the engine.
func (e *Engine) Variables() map[string]any {
	return e.vars.Snapshot()
}

// SetVariable seeds a variable from the host, e.g. before a simulation run
func (e *Engine) SetVariable(name string, value any) {
	e.vars.Set(name, value)
}

// PossibleEvents returns the sorted, distinct, non-empty event names of
// transitions declared from the current state, regardless of guard truth.
// While a superstate is active the child machine's events are merged in,
// since a step forwards the event to the child. UIs use this to populate
// an event picker.
func (e *Engine) PossibleEvents() []string {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	events := e.table.PossibleEvents(e.current)
	if e.sub == nil {
		return events
	}
	seen := make(map[string]struct{}, len(events))
	for _, event := range events {
		seen[event] = struct{}{}
	}
	for _, event := range e.sub.PossibleEvents() {
		if _, ok := seen[event]; !ok {
			seen[event] = struct{}{}
			events = append(events, event)
		}
	}
	sort.Strings(events)
	return events
}

// DrainLog returns the trace lines accumulated since the last drain and
// clears the buffer
func (e *Engine) DrainLog() []string {
	return e.log.Drain()
}

// IsInFinalState reports whether the current state is marked final. Final
// states are informational: stepping continues past them.
func (e *Engine) IsInFinalState() bool {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.table.State(e.current).IsFinal
}

// eventMatches implements the matching rule: an event-agnostic transition
// is always a candidate, an exact (case-sensitive) match is a candidate,
// and "*" matches any non-empty event.
func eventMatches(transitionEvent, stepEvent string) bool {
	if transitionEvent == "" {
		return true
	}
	if transitionEvent == stepEvent {
		return true
	}
	return transitionEvent == "*" && stepEvent != ""
}

func displayEvent(event string) string {
	if event == "" {
		return "None (internal)"
	}
	return event
}
