// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package registry

// ComponentNode is one node of the UI component tree as reported to
// the controller. Children are embedded, so a registered root
// describes its whole subtree.
type ComponentNode struct {
	ID       string          `json:"id"`
	Kind     string          `json:"kind"`
	Label    string          `json:"label,omitempty"`
	Props    map[string]any  `json:"props,omitempty"`
	Children []ComponentNode `json:"children,omitempty"`
}

// ComponentEntry pairs a static descriptor with an optional snapshot
// callback. When Snapshot is non-nil it is evaluated on every read so
// the controller sees live component state; otherwise the descriptor
// is returned as registered.
type ComponentEntry struct {
	Descriptor ComponentNode
	Snapshot   func() ComponentNode
}

// ComponentRegistry exposes the application's UI component roots.
type ComponentRegistry struct {
	store *store[ComponentEntry]
}

// NewComponentRegistry creates an empty component registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{store: newStore[ComponentEntry]()}
}

// Register binds name to entry, replacing any prior binding.
func (r *ComponentRegistry) Register(name string, entry ComponentEntry) {
	r.store.register(name, entry)
}

// Unregister removes name if present.
func (r *ComponentRegistry) Unregister(name string) {
	r.store.unregister(name)
}

// Get resolves the current node for name, evaluating the snapshot
// callback if one is registered.
func (r *ComponentRegistry) Get(name string) (ComponentNode, bool) {
	entry, ok := r.store.get(name)
	if !ok {
		return ComponentNode{}, false
	}
	return entry.resolve(), true
}

// Tree resolves every registered root in registration order.
// Snapshot callbacks run outside the registry lock.
func (r *ComponentRegistry) Tree() []ComponentNode {
	_, entries := r.store.snapshot()
	nodes := make([]ComponentNode, len(entries))
	for i, entry := range entries {
		nodes[i] = entry.resolve()
	}
	return nodes
}

// Names returns the registered root names in registration order.
func (r *ComponentRegistry) Names() []string { return r.store.names() }

func (entry ComponentEntry) resolve() ComponentNode {
	if entry.Snapshot != nil {
		return entry.Snapshot()
	}
	return entry.Descriptor
}
