// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"log/slog"
	"time"

	"github.com/gantry-dev/gantry/dispatch"
	"github.com/gantry-dev/gantry/lib/clock"
	"github.com/gantry-dev/gantry/lib/logbuffer"
	"github.com/gantry-dev/gantry/registry"
	"github.com/gantry-dev/gantry/trace"
	"github.com/gantry-dev/gantry/transport"
	"github.com/gantry-dev/gantry/wire"
)

// Identity describes the application to the coordinator during the
// handshake.
type Identity struct {
	Platform     string
	OSVersion    string
	AppName      string
	AppVersion   string
	Capabilities []string
}

// Config assembles a Runtime. Address, Dialer, and Identity are
// required; everything else has working defaults.
type Config struct {
	// Address is the coordinator's transport address.
	Address string

	// Dialer opens the transport (transport.TCPDialer in production,
	// a MemoryNetwork in tests).
	Dialer transport.Dialer

	// Identity is announced in the handshake.
	Identity Identity

	// ReconnectDelay overrides the 3s default backoff.
	ReconnectDelay time.Duration

	// TraceCapacity bounds the completed-trace history; defaults to
	// trace.DefaultHistoryCapacity.
	TraceCapacity int

	// LogCapacity bounds the captured log ring; defaults to
	// logbuffer.DefaultCapacity.
	LogCapacity int

	// Screenshot captures the current screen, PNG-encoded. UI capture
	// is platform work outside the bridge; when nil,
	// capture_screenshot reports NotInitialized.
	Screenshot func() ([]byte, error)

	// LayoutTree walks the platform view hierarchy. When nil,
	// get_layout_tree falls back to the component registry.
	LayoutTree func() (any, error)

	// Clock defaults to the real clock.
	Clock clock.Clock

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Runtime is one embeddable bridge instance. The registries and the
// trace engine are exported: application code registers its state,
// actions, and instrumentation against them directly.
type Runtime struct {
	State        *registry.StateRegistry
	Actions      *registry.ActionRegistry
	Components   *registry.ComponentRegistry
	Navigation   *registry.NavigationRegistry
	Flags        *registry.FlagRegistry
	NetworkMocks *registry.NetworkMockRegistry
	Traces       *trace.Engine
	Logs         *logbuffer.Buffer

	config     Config
	dispatcher *dispatch.Dispatcher
	conn       *ConnectionManager
}

// New constructs a Runtime with its full method table registered.
// Registrations survive reconnects: they live here, not in the
// connection.
func New(config Config) *Runtime {
	runtime := &Runtime{
		State:        registry.NewStateRegistry(),
		Actions:      registry.NewActionRegistry(),
		Components:   registry.NewComponentRegistry(),
		Navigation:   registry.NewNavigationRegistry(),
		Flags:        registry.NewFlagRegistry(),
		NetworkMocks: registry.NewNetworkMockRegistry(),
		Traces:       trace.NewEngine(config.Clock, config.TraceCapacity),
		Logs:         logbuffer.New(config.LogCapacity),
		config:       config,
	}

	runtime.dispatcher = dispatch.New()
	runtime.dispatcher.Logger = config.Logger
	runtime.registerHandlers()

	runtime.conn = &ConnectionManager{
		Address: config.Address,
		Dialer:  config.Dialer,
		Handshake: wire.Handshake{
			Type:            wire.TypeHandshake,
			Platform:        config.Identity.Platform,
			OSVersion:       config.Identity.OSVersion,
			AppName:         config.Identity.AppName,
			AppVersion:      config.Identity.AppVersion,
			ProtocolVersion: wire.ProtocolVersion,
			Capabilities:    config.Identity.Capabilities,
		},
		Dispatcher:     runtime.dispatcher,
		ReconnectDelay: config.ReconnectDelay,
		Clock:          config.Clock,
		Logger:         config.Logger,
	}
	return runtime
}

// Connect starts the session. Registrations may happen before or
// after; the registries are independent of connection state.
func (r *Runtime) Connect(ctx context.Context) { r.conn.Connect(ctx) }

// Disconnect closes the session permanently.
func (r *Runtime) Disconnect() { r.conn.Disconnect() }

// ConnectionState returns the session lifecycle state.
func (r *Runtime) ConnectionState() ConnState { return r.conn.State() }

// DeviceID returns the coordinator-assigned device ID, or "" before
// the first handshake ack.
func (r *Runtime) DeviceID() string { return r.conn.DeviceID() }

// SubscribeConnection returns a channel of state transitions.
func (r *Runtime) SubscribeConnection() <-chan ConnState { return r.conn.Subscribe() }

// Dispatcher exposes the method table so hosts can register
// app-specific methods beyond the standard set.
func (r *Runtime) Dispatcher() *dispatch.Dispatcher { return r.dispatcher }
