package fsmsim

import (
	"sort"
	"sync"
)

// VariableStore is the mutable namespace shared by every action and
// condition evaluation of one engine instance. Keys are created implicitly
// by assignment inside action snippets; values are dynamically typed.
type VariableStore struct {
	mutex sync.RWMutex
	vars  map[string]any
}

// NewVariableStore creates an empty store
func NewVariableStore() *VariableStore {
	return &VariableStore{vars: make(map[string]any)}
}

// Get retrieves a value by name
func (s *VariableStore) Get(name string) (any, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	value, ok := s.vars[name]
	return value, ok
}

// Set stores a value under a name, creating it if absent
func (s *VariableStore) Set(name string, value any) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.vars[name] = value
}

// Delete removes a name from the store
func (s *VariableStore) Delete(name string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.vars, name)
}

// Clear removes every variable. Called on engine reset.
func (s *VariableStore) Clear() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.vars = make(map[string]any)
}

// Len returns the number of stored variables
func (s *VariableStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.vars)
}

// Snapshot returns a copy of the store. Mutating the returned map does not
// affect engine state.
func (s *VariableStore) Snapshot() map[string]any {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	snapshot := make(map[string]any, len(s.vars))
	for name, value := range s.vars {
		snapshot[name] = value
	}
	return snapshot
}

// Names returns the sorted variable names, used for stable trace output
func (s *VariableStore) Names() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	names := make([]string, 0, len(s.vars))
	for name := range s.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
