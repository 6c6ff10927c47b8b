// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"fmt"
	"net"
	"sync"
)

// MemoryNetwork is an in-process transport for tests: listeners and
// dialers exchange net.Pipe connections through a shared address
// table, bypassing the OS network stack entirely. One MemoryNetwork
// models one reachable network.
type MemoryNetwork struct {
	mutex     sync.Mutex
	listeners map[string]*memoryListener
}

// NewMemoryNetwork creates an empty in-process network.
func NewMemoryNetwork() *MemoryNetwork {
	return &MemoryNetwork{listeners: make(map[string]*memoryListener)}
}

// Listen binds a listener at the given address. Addresses are opaque
// strings; tests typically use names like "coordinator".
func (network *MemoryNetwork) Listen(address string) (net.Listener, error) {
	network.mutex.Lock()
	defer network.mutex.Unlock()

	if _, taken := network.listeners[address]; taken {
		return nil, fmt.Errorf("memory transport: address %q already bound", address)
	}
	listener := &memoryListener{
		network: network,
		address: address,
		backlog: make(chan net.Conn, 16),
		closed:  make(chan struct{}),
	}
	network.listeners[address] = listener
	return listener, nil
}

// DialContext connects to the listener bound at address.
func (network *MemoryNetwork) DialContext(ctx context.Context, address string) (net.Conn, error) {
	network.mutex.Lock()
	listener, ok := network.listeners[address]
	network.mutex.Unlock()
	if !ok {
		return nil, fmt.Errorf("memory transport: no listener at %q", address)
	}

	client, server := net.Pipe()
	select {
	case listener.backlog <- server:
		return client, nil
	case <-listener.closed:
		client.Close()
		server.Close()
		return nil, fmt.Errorf("memory transport: listener at %q closed", address)
	case <-ctx.Done():
		client.Close()
		server.Close()
		return nil, ctx.Err()
	}
}

// Compile-time interface check.
var _ Dialer = (*MemoryNetwork)(nil)

type memoryListener struct {
	network   *MemoryNetwork
	address   string
	backlog   chan net.Conn
	closeOnce sync.Once
	closed    chan struct{}
}

func (l *memoryListener) Accept() (net.Conn, error) {
	select {
	case conn := <-l.backlog:
		return conn, nil
	case <-l.closed:
		return nil, net.ErrClosed
	}
}

func (l *memoryListener) Close() error {
	l.closeOnce.Do(func() {
		close(l.closed)
		l.network.mutex.Lock()
		delete(l.network.listeners, l.address)
		l.network.mutex.Unlock()
	})
	return nil
}

func (l *memoryListener) Addr() net.Addr { return memoryAddr(l.address) }

type memoryAddr string

func (a memoryAddr) Network() string { return "memory" }
func (a memoryAddr) String() string  { return string(a) }
