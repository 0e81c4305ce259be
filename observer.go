package fsmsim

import "fmt"

// Observer receives engine lifecycle callbacks. Observers are optional
// attachments; the engine's own trace always goes to its ActionLog.
type Observer interface {
	// OnTransition is called after a transition fired
	OnTransition(from string, to string, event string)

	// OnStateEnter is called when a state is entered
	OnStateEnter(state string)
}

// ExtendedObserver provides additional optional observation methods
type ExtendedObserver interface {
	Observer

	// OnStateExit is called when a state is exited
	OnStateExit(state string)

	// OnStep is called at the start of every step with the incoming event
	OnStep(state string, event string)

	// OnGuardEvaluation is called after a transition condition is evaluated
	OnGuardEvaluation(from string, to string, event string, result bool)

	// OnNoTransition is called when a step finds no eligible transition
	OnNoTransition(state string, event string)

	// OnEvaluationError is called for every contained snippet failure
	OnEvaluationError(err *EvaluationError)

	// OnReset is called after the engine resets to its initial state
	OnReset(initial string)
}

// BaseObserver provides a default implementation with no-op methods
type BaseObserver struct{}

// OnTransition implements the required Observer method
func (o *BaseObserver) OnTransition(from string, to string, event string) {
	// Default implementation - no operation
}

// OnStateEnter implements the required Observer method
func (o *BaseObserver) OnStateEnter(state string) {
	// Default implementation - no operation
}

// OnStateExit implements the optional ExtendedObserver method
func (o *BaseObserver) OnStateExit(state string) {
	// Default implementation - no operation
}

// OnStep implements the optional ExtendedObserver method
func (o *BaseObserver) OnStep(state string, event string) {
	// Default implementation - no operation
}

// OnGuardEvaluation implements the optional ExtendedObserver method
func (o *BaseObserver) OnGuardEvaluation(from string, to string, event string, result bool) {
	// Default implementation - no operation
}

// OnNoTransition implements the optional ExtendedObserver method
func (o *BaseObserver) OnNoTransition(state string, event string) {
	// Default implementation - no operation
}

// OnEvaluationError implements the optional ExtendedObserver method
func (o *BaseObserver) OnEvaluationError(err *EvaluationError) {
	// Default implementation - no operation
}

// OnReset implements the optional ExtendedObserver method
func (o *BaseObserver) OnReset(initial string) {
	// Default implementation - no operation
}

// ObserverManager manages a collection of observers
type ObserverManager struct {
	observers []Observer
}

// NewObserverManager creates a new observer manager
func NewObserverManager() *ObserverManager {
	return &ObserverManager{
		observers: make([]Observer, 0),
	}
}

// AddObserver adds an observer to the manager
func (om *ObserverManager) AddObserver(observer Observer) {
	om.observers = append(om.observers, observer)
}

// RemoveObserver removes an observer from the manager
func (om *ObserverManager) RemoveObserver(observer Observer) {
	for i, obs := range om.observers {
		if obs == observer {
			om.observers = append(om.observers[:i], om.observers[i+1:]...)
			break
		}
	}
}

func (om *ObserverManager) snapshot() []Observer {
	observers := make([]Observer, len(om.observers))
	copy(observers, om.observers)
	return observers
}

// NotifyTransition notifies all observers of a fired transition
func (om *ObserverManager) NotifyTransition(from string, to string, event string) {
	for _, observer := range om.snapshot() {
		func() {
			defer func() {
				if r := recover(); r != nil {
					// Observer panicked - surface it through the error hook
					// if there is one, but never crash the engine
					if extObs, ok := observer.(ExtendedObserver); ok {
						func() {
							defer func() { recover() }()
							extObs.OnEvaluationError(NewEvaluationError(EvalAction, "", from,
								fmt.Errorf("observer panic in OnTransition: %v", r)))
						}()
					}
				}
			}()
			observer.OnTransition(from, to, event)
		}()
	}
}

// NotifyStateEnter notifies all observers of state entry
func (om *ObserverManager) NotifyStateEnter(state string) {
	for _, observer := range om.snapshot() {
		func() {
			defer func() { recover() }()
			observer.OnStateEnter(state)
		}()
	}
}

// NotifyStateExit notifies all observers of state exit
func (om *ObserverManager) NotifyStateExit(state string) {
	for _, observer := range om.snapshot() {
		if extObs, ok := observer.(ExtendedObserver); ok {
			func() {
				defer func() { recover() }()
				extObs.OnStateExit(state)
			}()
		}
	}
}

// NotifyStep notifies all observers of a step starting
func (om *ObserverManager) NotifyStep(state string, event string) {
	for _, observer := range om.snapshot() {
		if extObs, ok := observer.(ExtendedObserver); ok {
			extObs.OnStep(state, event)
		}
	}
}

// NotifyGuardEvaluation notifies all observers of a condition result
func (om *ObserverManager) NotifyGuardEvaluation(from string, to string, event string, result bool) {
	for _, observer := range om.snapshot() {
		if extObs, ok := observer.(ExtendedObserver); ok {
			extObs.OnGuardEvaluation(from, to, event, result)
		}
	}
}

// NotifyNoTransition notifies all observers that no transition was eligible
func (om *ObserverManager) NotifyNoTransition(state string, event string) {
	for _, observer := range om.snapshot() {
		if extObs, ok := observer.(ExtendedObserver); ok {
			extObs.OnNoTransition(state, event)
		}
	}
}

// NotifyEvaluationError notifies all observers of a contained snippet failure
func (om *ObserverManager) NotifyEvaluationError(err *EvaluationError) {
	for _, observer := range om.snapshot() {
		if extObs, ok := observer.(ExtendedObserver); ok {
			extObs.OnEvaluationError(err)
		}
	}
}

// NotifyReset notifies all observers of an engine reset
func (om *ObserverManager) NotifyReset(initial string) {
	for _, observer := range om.snapshot() {
		if extObs, ok := observer.(ExtendedObserver); ok {
			extObs.OnReset(initial)
		}
	}
}
