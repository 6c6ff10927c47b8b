// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package bridge is the runtime an application embeds to expose
// itself to a gantry coordinator: registries for state, actions,
// components, navigation, feature flags, and network mocks; a tracing
// engine; a captured log buffer; and the connection manager that
// keeps a session to the coordinator alive across transient
// disconnects.
//
// A Runtime is an explicitly constructed object with injected
// dependencies (dialer, clock, logger), so tests and multi-app hosts
// can run several independent instances in one process. All public
// operations are safe to call from arbitrary application goroutines.
package bridge
