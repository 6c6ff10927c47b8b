// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/gantry-dev/gantry/lib/testutil"
)

func TestMemoryNetworkDialAndAccept(t *testing.T) {
	network := NewMemoryNetwork()
	listener, err := network.Listen("coordinator")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer listener.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		accepted <- conn
	}()

	client, err := network.DialContext(context.Background(), "coordinator")
	if err != nil {
		t.Fatalf("DialContext: %v", err)
	}
	defer client.Close()

	server := testutil.RequireReceive(t, accepted, 5*time.Second, "waiting for accept")
	defer server.Close()

	go client.Write([]byte("hello"))
	buf := make([]byte, 5)
	if _, err := server.Read(buf); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(buf) != "hello" {
		t.Fatalf("read %q", buf)
	}
}

func TestMemoryNetworkDialUnknownAddress(t *testing.T) {
	network := NewMemoryNetwork()
	if _, err := network.DialContext(context.Background(), "nowhere"); err == nil {
		t.Fatal("dial to unbound address succeeded")
	}
}

func TestMemoryNetworkDoubleBind(t *testing.T) {
	network := NewMemoryNetwork()
	listener, err := network.Listen("coordinator")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer listener.Close()

	if _, err := network.Listen("coordinator"); err == nil {
		t.Fatal("second bind of same address succeeded")
	}
}

func TestMemoryNetworkCloseUnblocksAccept(t *testing.T) {
	network := NewMemoryNetwork()
	listener, err := network.Listen("coordinator")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := listener.Accept(); err != net.ErrClosed {
			t.Errorf("Accept after Close = %v, want net.ErrClosed", err)
		}
	}()

	listener.Close()
	testutil.RequireClosed(t, done, 5*time.Second, "accept did not unblock")

	// The address is reusable after close.
	if _, err := network.Listen("coordinator"); err != nil {
		t.Fatalf("rebind after close: %v", err)
	}
}

func TestMemoryNetworkDialCancelled(t *testing.T) {
	network := NewMemoryNetwork()
	listener, err := network.Listen("coordinator")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer listener.Close()

	// Fill the backlog so the dial blocks, then cancel.
	for i := 0; i < 16; i++ {
		if _, err := network.DialContext(context.Background(), "coordinator"); err != nil {
			t.Fatalf("backlog dial %d: %v", i, err)
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := network.DialContext(ctx, "coordinator"); err == nil {
		t.Fatal("cancelled dial succeeded")
	}
}
