// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"fmt"

	"github.com/gantry-dev/gantry/dispatch"
)

// ActionHandler executes one registered action. Handlers run
// synchronously relative to Invoke, on whichever goroutine delivered
// the command frame.
type ActionHandler func(params map[string]any) (any, error)

// ActionRegistry exposes invocable application behavior to the
// controller. execute_action has at-most-once semantics: the
// controller never retries on its own, so a handler is invoked at
// most once per command.
type ActionRegistry struct {
	store *store[ActionHandler]
}

// NewActionRegistry creates an empty action registry.
func NewActionRegistry() *ActionRegistry {
	return &ActionRegistry{store: newStore[ActionHandler]()}
}

// Register binds name to handler, replacing any prior binding.
func (r *ActionRegistry) Register(name string, handler ActionHandler) {
	r.store.register(name, handler)
}

// Unregister removes name if present.
func (r *ActionRegistry) Unregister(name string) {
	r.store.unregister(name)
}

// Names returns the registered action names in registration order.
func (r *ActionRegistry) Names() []string { return r.store.names() }

// Invoke looks up and runs the handler registered under name.
// Reports UnknownAction when nothing is registered, and ActionFailed
// when the handler returns an error or panics. The handler runs
// outside the registry lock.
func (r *ActionRegistry) Invoke(name string, params map[string]any) (result any, err error) {
	handler, ok := r.store.get(name)
	if !ok {
		return nil, dispatch.UnknownAction(name, r.Names())
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			result = nil
			err = dispatch.ActionFailed(fmt.Errorf("action %q panicked: %v", name, recovered))
		}
	}()

	value, handlerErr := handler(params)
	if handlerErr != nil {
		return nil, dispatch.ActionFailed(fmt.Errorf("action %q: %w", name, handlerErr))
	}
	return value, nil
}
