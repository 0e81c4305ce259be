package fsmsim

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// StateDef describes one state of an FSM. Action fields hold user-authored
// snippets and may be empty.
type StateDef struct {
	Name         string `json:"name" yaml:"name"`
	IsInitial    bool   `json:"is_initial,omitempty" yaml:"is_initial,omitempty"`
	IsFinal      bool   `json:"is_final,omitempty" yaml:"is_final,omitempty"`
	EntryAction  string `json:"entry_action,omitempty" yaml:"entry_action,omitempty"`
	DuringAction string `json:"during_action,omitempty" yaml:"during_action,omitempty"`
	ExitAction   string `json:"exit_action,omitempty" yaml:"exit_action,omitempty"`

	// Hierarchical machines: a superstate embeds a nested definition that
	// runs in a child engine while the parent remains in this state.
	IsSuperstate bool        `json:"is_superstate,omitempty" yaml:"is_superstate,omitempty"`
	SubFSM       *Definition `json:"sub_fsm_data,omitempty" yaml:"sub_fsm_data,omitempty"`
}

// TransitionDef describes one transition. An empty Event means the
// transition is event-agnostic; the event "*" matches any non-empty event.
// An empty Condition means "always true".
type TransitionDef struct {
	Source    string `json:"source" yaml:"source"`
	Target    string `json:"target" yaml:"target"`
	Event     string `json:"event,omitempty" yaml:"event,omitempty"`
	Condition string `json:"condition,omitempty" yaml:"condition,omitempty"`
	Action    string `json:"action,omitempty" yaml:"action,omitempty"`
}

// Definition is the declarative FSM description the engine executes. The
// order of Transitions is significant: among transitions sharing a source,
// declaration order decides which eligible transition fires.
type Definition struct {
	States      []StateDef      `json:"states" yaml:"states"`
	Transitions []TransitionDef `json:"transitions,omitempty" yaml:"transitions,omitempty"`
}

// LoadDefinition decodes a JSON definition, the shape produced by the
// diagram editor and the AI generation collaborator.
func LoadDefinition(data []byte) (*Definition, error) {
	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, NewDecodeError("JSON", err)
	}
	return &def, nil
}

// LoadDefinitionYAML decodes a YAML definition
func LoadDefinitionYAML(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, NewDecodeError("YAML", err)
	}
	return &def, nil
}

// LoadDefinitionFile reads a definition from disk, dispatching on the file
// extension (.json, .yaml, .yml)
func LoadDefinitionFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definition file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadDefinitionYAML(data)
	case ".json":
		return LoadDefinition(data)
	default:
		return nil, NewDecodeError("definition", fmt.Errorf("unsupported file extension %q", filepath.Ext(path)))
	}
}

// Encode re-serializes a definition in the editor's JSON shape
func (d *Definition) Encode() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// clone deep-copies a definition, including nested sub-machine
// definitions, so a StateTable can own its description outright
func (d *Definition) clone() *Definition {
	out := &Definition{}
	if len(d.States) > 0 {
		out.States = make([]StateDef, len(d.States))
		copy(out.States, d.States)
		for i := range out.States {
			if out.States[i].SubFSM != nil {
				out.States[i].SubFSM = out.States[i].SubFSM.clone()
			}
		}
	}
	if len(d.Transitions) > 0 {
		out.Transitions = make([]TransitionDef, len(d.Transitions))
		copy(out.Transitions, d.Transitions)
	}
	return out
}

// State returns the state definition with the given name, or nil
func (d *Definition) State(name string) *StateDef {
	for i := range d.States {
		if d.States[i].Name == name {
			return &d.States[i]
		}
	}
	return nil
}
