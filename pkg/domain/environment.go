package domain

import "sort"

// Environment is the variable store shared by one flow run: a mapping
// from variable name to a typed value (int, float64, bool, string, or
// any opaque value a leaf produced).
//
// It is deliberately not synchronized. Execution is strictly
// sequential, so there is never more than one in-flight reader or
// writer; hosts that want to inspect a live run should do so through
// lifecycle events or snapshots instead of touching the store
// concurrently.
type Environment struct {
	values map[string]any
}

// NewEnvironment returns an empty environment.
func NewEnvironment() *Environment {
	return &Environment{values: make(map[string]any)}
}

// EnvironmentFrom returns an environment seeded with the given values.
func EnvironmentFrom(values map[string]any) *Environment {
	env := NewEnvironment()
	for k, v := range values {
		env.values[k] = v
	}
	return env
}

// Set stores value under name, replacing any previous value.
func (e *Environment) Set(name string, value any) {
	if e.values == nil {
		e.values = make(map[string]any)
	}
	e.values[name] = value
}

// Get returns the value stored under name.
func (e *Environment) Get(name string) (any, bool) {
	v, ok := e.values[name]
	return v, ok
}

// Has reports whether a variable with the given name exists.
func (e *Environment) Has(name string) bool {
	_, ok := e.values[name]
	return ok
}

// Delete removes the variable. Deleting an absent name is a no-op.
func (e *Environment) Delete(name string) {
	delete(e.values, name)
}

// Len returns the number of variables.
func (e *Environment) Len() int { return len(e.values) }

// Names returns the variable names in lexical order.
func (e *Environment) Names() []string {
	names := make([]string, 0, len(e.values))
	for k := range e.values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns a shallow copy of the store, safe to hand to
// expression evaluation or to persist.
func (e *Environment) Snapshot() map[string]any {
	out := make(map[string]any, len(e.values))
	for k, v := range e.values {
		out[k] = v
	}
	return out
}

// String returns the variable as a string.
func (e *Environment) String(name string) (string, bool) {
	v, ok := e.values[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Bool returns the variable as a bool.
func (e *Environment) Bool(name string) (bool, bool) {
	v, ok := e.values[name]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Int returns the variable as an int, accepting the integral numeric
// kinds deserialization commonly produces.
func (e *Environment) Int(name string) (int, bool) {
	v, ok := e.values[name]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
	}
	return 0, false
}

// Float64 returns the variable as a float64, widening integers.
func (e *Environment) Float64(name string) (float64, bool) {
	v, ok := e.values[name]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
