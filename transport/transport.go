// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package transport abstracts how bridge frames travel between an
// application and the coordinator. The protocol itself only needs a
// persistent byte stream; TCP is the development and same-LAN
// transport, and an in-process memory network backs the tests.
package transport

import (
	"context"
	"net"
	"time"
)

// Dialer opens connections from an application to the coordinator.
// The address format matches what the coordinator's listener
// advertises (e.g. "192.168.1.10:7455" for TCP).
type Dialer interface {
	DialContext(ctx context.Context, address string) (net.Conn, error)
}

// TCPDialer dials the coordinator over TCP.
type TCPDialer struct {
	// Timeout bounds connection establishment. Zero means only the
	// context deadline applies.
	Timeout time.Duration
}

// DialContext opens a TCP connection to address (host:port).
func (d *TCPDialer) DialContext(ctx context.Context, address string) (net.Conn, error) {
	return (&net.Dialer{Timeout: d.Timeout}).DialContext(ctx, "tcp", address)
}

// ListenTCP binds a TCP listener for the coordinator. Use ":0" for a
// random available port; the chosen address is available from
// Listener.Addr.
func ListenTCP(address string) (net.Listener, error) {
	return net.Listen("tcp", address)
}

// Compile-time interface check.
var _ Dialer = (*TCPDialer)(nil)
