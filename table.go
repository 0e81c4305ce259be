package fsmsim

import "sort"

// StateTable is the static, validated form of a Definition: states indexed
// by name, transitions kept in declaration order, dangling transitions
// dropped. Built once per engine and never mutated afterwards.
type StateTable struct {
	states      map[string]*StateDef
	order       []string
	transitions []TransitionDef
	warnings    []*LinkError
}

// NewStateTable validates a definition and builds the lookup table. An
// empty state list is the only fatal condition; a transition referencing an
// unknown state is dropped and recorded as a LinkError warning.
func NewStateTable(def *Definition) (*StateTable, error) {
	if def == nil || len(def.States) == 0 {
		return nil, NewNoStatesError()
	}

	// The table owns a deep copy; mutating the caller's definition after
	// construction does not reach it.
	def = def.clone()

	table := &StateTable{
		states: make(map[string]*StateDef, len(def.States)),
	}
	for i := range def.States {
		state := &def.States[i]
		if _, exists := table.states[state.Name]; exists {
			continue
		}
		table.states[state.Name] = state
		table.order = append(table.order, state.Name)
	}

	for _, tr := range def.Transitions {
		if _, ok := table.states[tr.Source]; !ok {
			table.warnings = append(table.warnings, NewLinkError(tr.Source, tr.Target, tr.Event, tr.Source))
			continue
		}
		if _, ok := table.states[tr.Target]; !ok {
			table.warnings = append(table.warnings, NewLinkError(tr.Source, tr.Target, tr.Event, tr.Target))
			continue
		}
		table.transitions = append(table.transitions, tr)
	}

	return table, nil
}

// State returns the state with the given name, or nil
func (t *StateTable) State(name string) *StateDef {
	return t.states[name]
}

// StateNames returns the state names in declaration order
func (t *StateTable) StateNames() []string {
	names := make([]string, len(t.order))
	copy(names, t.order)
	return names
}

// TransitionsFrom returns the transitions whose source is the given state,
// preserving declaration order. Order is the tie-break rule for eligible
// transitions.
func (t *StateTable) TransitionsFrom(name string) []TransitionDef {
	var out []TransitionDef
	for _, tr := range t.transitions {
		if tr.Source == name {
			out = append(out, tr)
		}
	}
	return out
}

// ResolveInitial picks the state marked is_initial. When none is marked it
// falls back to the first declared state; the second return value reports
// that fallback so the engine can log it.
func (t *StateTable) ResolveInitial() (string, bool) {
	for _, name := range t.order {
		if t.states[name].IsInitial {
			return name, false
		}
	}
	return t.order[0], true
}

// PossibleEvents returns the sorted, distinct, non-empty event names of
// transitions declared from the given state, regardless of guard truth.
func (t *StateTable) PossibleEvents(name string) []string {
	seen := make(map[string]struct{})
	for _, tr := range t.TransitionsFrom(name) {
		if tr.Event == "" {
			continue
		}
		seen[tr.Event] = struct{}{}
	}
	events := make([]string, 0, len(seen))
	for event := range seen {
		events = append(events, event)
	}
	sort.Strings(events)
	return events
}

// Warnings returns the LinkErrors recorded while building the table
func (t *StateTable) Warnings() []*LinkError {
	return t.warnings
}
