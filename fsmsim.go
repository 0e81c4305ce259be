// Package fsmsim executes declarative finite state machines step by step.
//
// A Definition (states with entry/during/exit actions, transitions with
// events, guard conditions and transition actions) is compiled into an
// Engine that advances one Step at a time, evaluating user-authored
// snippets against a shared variable store and producing a drainable trace
// of every action performed and decision made.
//
// The engine is deliberately forgiving: a malformed snippet is logged and
// contained, never crashing an in-progress simulation. Transition selection
// is deterministic first-match in declaration order. Observers can be
// attached for structured logging and metrics without the engine ever
// writing to a process-wide sink itself.
package fsmsim

// NewEngineFromJSON decodes a JSON definition and builds an engine from it
func NewEngineFromJSON(data []byte, opts ...Option) (*Engine, error) {
	def, err := LoadDefinition(data)
	if err != nil {
		return nil, err
	}
	return NewEngine(def, opts...)
}

// NewEngineFromFile loads a definition file (.json, .yaml or .yml) and
// builds an engine from it
func NewEngineFromFile(path string, opts ...Option) (*Engine, error) {
	def, err := LoadDefinitionFile(path)
	if err != nil {
		return nil, err
	}
	return NewEngine(def, opts...)
}
