// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package wire defines the bridge protocol frames and their codec.
//
// The protocol runs over any persistent byte stream as
// newline-delimited JSON objects. Four frame shapes exist:
//
//   - handshake (app → coordinator): announces platform, app identity,
//     protocol version, and capabilities.
//   - handshake_ack (coordinator → app): assigns the device ID. Only
//     the first ack on a connection is meaningful.
//   - command (coordinator → app): {id, method, params}. The id is
//     opaque to the application and echoed back verbatim.
//   - result / error (app → coordinator): JSON-RPC 2.0 response
//     objects correlated by id.
//
// A frame matching none of these shapes is dropped and logged by the
// reader's caller; it is never fatal to the connection.
package wire
