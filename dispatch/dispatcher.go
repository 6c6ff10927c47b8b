// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package dispatch routes inbound bridge commands to typed handlers
// and defines the error taxonomy shared by both sides of the
// protocol.
//
// A Dispatcher is a string-keyed method table built once at startup.
// Dispatch itself takes no global lock across methods: concurrent
// in-flight commands run in parallel, and linearizability for racing
// operations on the same registry entry is the registries' job, not
// the dispatcher's.
package dispatch

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Handler executes one method. Params is the decoded parameter map
// from the command frame; the returned value becomes the JSON-RPC
// result. A returned *Error keeps its taxonomy kind; any other error
// is wrapped as ActionFailed.
type Handler func(params map[string]any) (any, error)

// Dispatcher maps method names to handlers. Registration normally
// happens once during runtime construction, but Register is safe to
// call at any time.
type Dispatcher struct {
	// Logger receives handler panics and dispatch failures. If nil,
	// slog.Default() is used.
	Logger *slog.Logger

	mutex    sync.RWMutex
	handlers map[string]Handler
}

// New creates an empty dispatcher.
func New() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler)}
}

func (d *Dispatcher) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// Register binds a method name to its handler, replacing any prior
// binding.
func (d *Dispatcher) Register(method string, handler Handler) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.handlers[method] = handler
}

// Methods returns the registered method names, sorted.
func (d *Dispatcher) Methods() []string {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	methods := make([]string, 0, len(d.handlers))
	for method := range d.handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return methods
}

// Dispatch resolves method against the table and runs its handler.
// Exactly one of result and dispatchErr is set. A handler panic is
// caught here and reported as ActionFailed so one bad handler never
// terminates the session.
func (d *Dispatcher) Dispatch(method string, params map[string]any) (result any, dispatchErr *Error) {
	d.mutex.RLock()
	handler, ok := d.handlers[method]
	d.mutex.RUnlock()

	if !ok {
		return nil, UnknownMethod(method, d.Methods())
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			d.logger().Error("handler panicked",
				"method", method,
				"panic", fmt.Sprint(recovered),
			)
			result = nil
			dispatchErr = ActionFailed(fmt.Errorf("handler for %q panicked: %v", method, recovered))
		}
	}()

	value, err := handler(params)
	if err != nil {
		if tagged, ok := err.(*Error); ok {
			return nil, tagged
		}
		return nil, ActionFailed(err)
	}
	return value, nil
}
