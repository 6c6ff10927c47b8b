// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import "sync"

// store is the generic name→value map underlying the registries. It
// tracks registration order so registries that promise ordered
// iteration (network mocks) get it for free; the others expose sorted
// or unordered views on top.
//
// Values are swapped atomically under the write lock, so no reader
// ever observes a partial update. Accessor evaluation happens outside
// the lock in the calling registry: a slow getter never blocks
// operations on other entries.
type store[V any] struct {
	mutex   sync.RWMutex
	entries map[string]V
	order   []string
}

func newStore[V any]() *store[V] {
	return &store[V]{entries: make(map[string]V)}
}

// register binds name to value, replacing any prior binding. A
// replaced entry keeps its original position in registration order.
func (s *store[V]) register(name string, value V) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, exists := s.entries[name]; !exists {
		s.order = append(s.order, name)
	}
	s.entries[name] = value
}

// unregister removes name if present; no-op otherwise.
func (s *store[V]) unregister(name string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, exists := s.entries[name]; !exists {
		return
	}
	delete(s.entries, name)
	for i, existing := range s.order {
		if existing == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// get returns the current binding for name.
func (s *store[V]) get(name string) (V, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	value, ok := s.entries[name]
	return value, ok
}

// names returns all registered names in registration order.
func (s *store[V]) names() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	names := make([]string, len(s.order))
	copy(names, s.order)
	return names
}

// snapshot returns the names and values in registration order, taken
// under one lock acquisition so the two slices are consistent.
func (s *store[V]) snapshot() ([]string, []V) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	names := make([]string, len(s.order))
	values := make([]V, len(s.order))
	for i, name := range s.order {
		names[i] = name
		values[i] = s.entries[name]
	}
	return names, values
}
