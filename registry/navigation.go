// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import "sync"

// NavigationRegistry tracks where the application currently is. It
// combines a route stack maintained by the application's navigation
// hooks (Push/Pop on every transition) with lazily-evaluated named
// accessors for any extra navigation state the app wants to expose
// (active tab, deep link parameters).
type NavigationRegistry struct {
	mutex sync.RWMutex
	stack []string

	accessors *store[StateAccessor]
}

// NewNavigationRegistry creates an empty navigation registry.
func NewNavigationRegistry() *NavigationRegistry {
	return &NavigationRegistry{accessors: newStore[StateAccessor]()}
}

// Push records entering a route.
func (r *NavigationRegistry) Push(route string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.stack = append(r.stack, route)
}

// Pop records leaving the current route. Returns the route left, or
// false if the stack was empty.
func (r *NavigationRegistry) Pop() (string, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if len(r.stack) == 0 {
		return "", false
	}
	route := r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
	return route, true
}

// Reset replaces the whole stack, for apps that reset navigation on
// deep links or auth changes.
func (r *NavigationRegistry) Reset(routes ...string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.stack = append([]string(nil), routes...)
}

// Current returns the top of the route stack, or "" when empty.
func (r *NavigationRegistry) Current() string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if len(r.stack) == 0 {
		return ""
	}
	return r.stack[len(r.stack)-1]
}

// Stack returns a copy of the route stack, oldest first.
func (r *NavigationRegistry) Stack() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return append([]string(nil), r.stack...)
}

// Register binds a named accessor for supplementary navigation state.
func (r *NavigationRegistry) Register(name string, accessor StateAccessor) {
	r.accessors.register(name, accessor)
}

// Unregister removes a named accessor if present.
func (r *NavigationRegistry) Unregister(name string) {
	r.accessors.unregister(name)
}

// State assembles the full navigation snapshot sent to the
// controller: the current route, the stack, and every registered
// accessor's value.
func (r *NavigationRegistry) State() map[string]any {
	state := map[string]any{
		"current": r.Current(),
		"stack":   r.Stack(),
	}
	names, accessors := r.accessors.snapshot()
	if len(names) > 0 {
		extra := make(map[string]any, len(names))
		for i, name := range names {
			extra[name] = accessors[i]()
		}
		state["extra"] = extra
	}
	return state
}
