// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package registry

// StateAccessor produces the current value of one piece of exposed
// application state. It is evaluated on every read — state is pulled
// lazily, never cached — and may run on whichever goroutine delivered
// the controller's command, so it must be safe to call off the UI
// thread.
type StateAccessor func() any

// StateRegistry exposes named application state to the controller.
type StateRegistry struct {
	store *store[StateAccessor]
}

// NewStateRegistry creates an empty state registry.
func NewStateRegistry() *StateRegistry {
	return &StateRegistry{store: newStore[StateAccessor]()}
}

// Register binds name to accessor, replacing any prior binding.
func (r *StateRegistry) Register(name string, accessor StateAccessor) {
	r.store.register(name, accessor)
}

// Unregister removes name if present.
func (r *StateRegistry) Unregister(name string) {
	r.store.unregister(name)
}

// Get evaluates the accessor registered under name. The second
// return is false when name is not registered.
func (r *StateRegistry) Get(name string) (any, bool) {
	accessor, ok := r.store.get(name)
	if !ok {
		return nil, false
	}
	return accessor(), true
}

// All evaluates every registered accessor and returns the values by
// name. Accessors run outside the registry lock, so a slow getter
// does not block concurrent registration.
func (r *StateRegistry) All() map[string]any {
	names, accessors := r.store.snapshot()
	values := make(map[string]any, len(names))
	for i, name := range names {
		values[name] = accessors[i]()
	}
	return values
}

// Names returns the registered state names in registration order.
func (r *StateRegistry) Names() []string { return r.store.names() }
