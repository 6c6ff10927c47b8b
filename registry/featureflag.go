// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import "sync"

// FlagRegistry holds boolean feature flags the controller can list
// and toggle at runtime.
type FlagRegistry struct {
	mutex sync.RWMutex
	flags map[string]bool
	order []string
}

// NewFlagRegistry creates an empty flag registry.
func NewFlagRegistry() *FlagRegistry {
	return &FlagRegistry{flags: make(map[string]bool)}
}

// Register binds name to value, replacing any prior binding.
func (r *FlagRegistry) Register(name string, value bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.setLocked(name, value)
}

// RegisterAll registers every flag in the map. Existing flags keep
// their registration order; new flags are appended in map iteration
// order, so callers that care about listing order should Register
// individually.
func (r *FlagRegistry) RegisterAll(flags map[string]bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	for name, value := range flags {
		r.setLocked(name, value)
	}
}

// Unregister removes name if present.
func (r *FlagRegistry) Unregister(name string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, exists := r.flags[name]; !exists {
		return
	}
	delete(r.flags, name)
	for i, existing := range r.order {
		if existing == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Get returns the flag's current value. The second return is false
// when name is not registered.
func (r *FlagRegistry) Get(name string) (bool, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	value, ok := r.flags[name]
	return value, ok
}

// Toggle sets the flag to value, or inverts the current value when
// value is nil. Returns the new value; ok is false (and the flag is
// untouched) when name is not registered.
func (r *FlagRegistry) Toggle(name string, value *bool) (newValue bool, ok bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	current, exists := r.flags[name]
	if !exists {
		return false, false
	}
	if value != nil {
		current = *value
	} else {
		current = !current
	}
	r.flags[name] = current
	return current, true
}

// All returns every flag by name.
func (r *FlagRegistry) All() map[string]bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	values := make(map[string]bool, len(r.flags))
	for name, value := range r.flags {
		values[name] = value
	}
	return values
}

// Names returns the flag names in registration order.
func (r *FlagRegistry) Names() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return append([]string(nil), r.order...)
}

func (r *FlagRegistry) setLocked(name string, value bool) {
	if _, exists := r.flags[name]; !exists {
		r.order = append(r.order, name)
	}
	r.flags[name] = value
}
