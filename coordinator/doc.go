// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package coordinator implements the gantry coordinator: the daemon
// that admits application sessions, assigns device IDs, and routes
// controller commands to the right session.
//
// The coordinator listens on two endpoints. The device endpoint
// accepts application connections, which open with a handshake and
// then answer JSON-RPC commands. The control endpoint accepts
// controller connections (CLI, TUI, editor integrations), which issue
// commands addressed to a device ID; the coordinator forwards each
// command to the matching session and relays the response.
package coordinator
