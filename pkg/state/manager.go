// Package state manages a process instance's variables map: the only
// mutable, handler-visible state the core engine owns. All reads and
// writes go through structural deep copies so that a task handler's
// mutations of a snapshot it was handed can never alias engine-owned
// state (spec §9, "deep variable copying").
package state

import (
	"sync"
)

// Manager owns one instance's variables map.
type Manager struct {
	mu        sync.RWMutex
	variables map[string]interface{}
}

// New creates an empty variable manager.
func New() *Manager {
	return &Manager{variables: make(map[string]interface{})}
}

// NewFrom seeds a manager with a deep copy of the given variables, used
// when restoring an instance from a persisted document.
func NewFrom(vars map[string]interface{}) *Manager {
	m := New()
	m.Replace(vars)
	return m
}

// Get retrieves a deep copy of a single variable.
func (m *Manager) Get(name string) (interface{}, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	val, ok := m.variables[name]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return DeepCopy(val), nil
}

// Set stores a deep copy of value under name.
func (m *Manager) Set(name string, value interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.variables[name] = DeepCopy(value)
}

// Replace atomically swaps the entire variables map for a deep copy of
// vars. Used by Node.Complete step 2 ("replace the instance's variables")
// and by instance restore.
func (m *Manager) Replace(vars map[string]interface{}) {
	copied := make(map[string]interface{}, len(vars))
	for k, v := range vars {
		copied[k] = DeepCopy(v)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.variables = copied
}

// Snapshot returns a deep copy of the full variables map, safe for a
// handler or a decision predicate to read or mutate freely.
func (m *Manager) Snapshot() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]interface{}, len(m.variables))
	for k, v := range m.variables {
		result[k] = DeepCopy(v)
	}
	return result
}

// DeepCopy structurally copies JSON-shaped values (maps, slices, and
// scalars, the shapes a task handler or a persisted document can produce).
// Non-JSON values (functions, channels, cyclic structures) are returned
// as-is; they are out of contract per spec §9.
func DeepCopy(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		copied := make(map[string]interface{}, len(val))
		for k, item := range val {
			copied[k] = DeepCopy(item)
		}
		return copied
	case []interface{}:
		copied := make([]interface{}, len(val))
		for i, item := range val {
			copied[i] = DeepCopy(item)
		}
		return copied
	default:
		// Scalars (string, float64, bool, nil) are copied by value already.
		return val
	}
}
