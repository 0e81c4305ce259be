package fsmsim

// DefinitionBuilder assembles a Definition with a fluent API, as an
// alternative to decoding one from JSON or YAML. States and transitions
// are recorded in call order, which is the order the engine uses for
// first-match transition selection.
//
//	def := NewDefinition().
//		State("Idle").Initial().
//		To("Loading").On("start").
//		State("Loading").Entry("count = 0").During("count = count + 1").
//		To("Done").On("finish").When("count > 0").
//		State("Done").Final().
//		Build()
type DefinitionBuilder struct {
	def      Definition
	stateIdx int
	transIdx int
	hasState bool
}

// NewDefinition creates an empty builder
func NewDefinition() *DefinitionBuilder {
	return &DefinitionBuilder{stateIdx: -1, transIdx: -1}
}

// State declares a new state and makes it the target of the following
// state-scoped calls (Initial, Final, Entry, During, Exit, To)
func (b *DefinitionBuilder) State(name string) *DefinitionBuilder {
	b.def.States = append(b.def.States, StateDef{Name: name})
	b.stateIdx = len(b.def.States) - 1
	b.transIdx = -1
	b.hasState = true
	return b
}

func (b *DefinitionBuilder) currentState() *StateDef {
	if !b.hasState {
		panic("fsmsim: builder call requires a preceding State()")
	}
	return &b.def.States[b.stateIdx]
}

// Initial marks the current state as the initial state
func (b *DefinitionBuilder) Initial() *DefinitionBuilder {
	b.currentState().IsInitial = true
	return b
}

// Final marks the current state as final
func (b *DefinitionBuilder) Final() *DefinitionBuilder {
	b.currentState().IsFinal = true
	return b
}

// Entry sets the current state's entry action snippet
func (b *DefinitionBuilder) Entry(snippet string) *DefinitionBuilder {
	b.currentState().EntryAction = snippet
	return b
}

// During sets the current state's during action snippet
func (b *DefinitionBuilder) During(snippet string) *DefinitionBuilder {
	b.currentState().DuringAction = snippet
	return b
}

// Exit sets the current state's exit action snippet
func (b *DefinitionBuilder) Exit(snippet string) *DefinitionBuilder {
	b.currentState().ExitAction = snippet
	return b
}

// Superstate embeds a nested definition, making the current state a
// superstate that runs the nested machine while active
func (b *DefinitionBuilder) Superstate(sub *Definition) *DefinitionBuilder {
	state := b.currentState()
	state.IsSuperstate = true
	state.SubFSM = sub
	return b
}

// To declares a transition from the current state and makes it the target
// of the following transition-scoped calls (On, When, Do)
func (b *DefinitionBuilder) To(target string) *DefinitionBuilder {
	source := b.currentState().Name
	b.def.Transitions = append(b.def.Transitions, TransitionDef{Source: source, Target: target})
	b.transIdx = len(b.def.Transitions) - 1
	return b
}

func (b *DefinitionBuilder) currentTransition() *TransitionDef {
	if b.transIdx < 0 {
		panic("fsmsim: builder call requires a preceding To()")
	}
	return &b.def.Transitions[b.transIdx]
}

// On sets the event name of the current transition. Without On the
// transition is event-agnostic.
func (b *DefinitionBuilder) On(event string) *DefinitionBuilder {
	b.currentTransition().Event = event
	return b
}

// When sets the guard condition snippet of the current transition
func (b *DefinitionBuilder) When(condition string) *DefinitionBuilder {
	b.currentTransition().Condition = condition
	return b
}

// Do sets the action snippet of the current transition
func (b *DefinitionBuilder) Do(action string) *DefinitionBuilder {
	b.currentTransition().Action = action
	return b
}

// Build returns the assembled definition. Validation happens in NewEngine.
func (b *DefinitionBuilder) Build() *Definition {
	def := b.def
	return &def
}
