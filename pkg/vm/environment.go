package vm

import "sort"

// Environment is the variable mapping of a program run.
//
// Gamelang has a single global scope: there is no parent chain and user
// functions bind their parameters in this same mapping, saving and restoring
// any previous values around the call.
type Environment struct {
	variables map[string]Value
}

// NewEnvironment creates an empty environment.
func NewEnvironment() *Environment {
	return &Environment{variables: make(map[string]Value)}
}

// Get retrieves a variable value by name.
func (e *Environment) Get(name string) (Value, bool) {
	v, ok := e.variables[name]
	return v, ok
}

// Set creates or replaces a variable.
func (e *Environment) Set(name string, value Value) {
	e.variables[name] = value
}

// Delete removes a variable. It reports whether the variable existed.
func (e *Environment) Delete(name string) bool {
	if _, ok := e.variables[name]; ok {
		delete(e.variables, name)
		return true
	}
	return false
}

// Has reports whether the variable exists.
func (e *Environment) Has(name string) bool {
	_, ok := e.variables[name]
	return ok
}

// Len returns the number of variables.
func (e *Environment) Len() int {
	return len(e.variables)
}

// Keys returns the variable names in sorted order.
func (e *Environment) Keys() []string {
	keys := make([]string, 0, len(e.variables))
	for k := range e.variables {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Copy returns a shallow copy of the mapping.
func (e *Environment) Copy() map[string]Value {
	m := make(map[string]Value, len(e.variables))
	for k, v := range e.variables {
		m[k] = v
	}
	return m
}
