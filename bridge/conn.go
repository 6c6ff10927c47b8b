// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gantry-dev/gantry/dispatch"
	"github.com/gantry-dev/gantry/lib/clock"
	"github.com/gantry-dev/gantry/transport"
	"github.com/gantry-dev/gantry/wire"
)

// DefaultReconnectDelay is the fixed backoff between a transport
// drop and the single scheduled reconnect attempt.
const DefaultReconnectDelay = 3 * time.Second

// ConnState is the connection manager's lifecycle state.
type ConnState int

const (
	// StateDisconnected: no transport. Either never connected, or a
	// reconnect is pending.
	StateDisconnected ConnState = iota

	// StateConnecting: transport dialing or handshake in flight. The
	// session is not usable until the coordinator acks.
	StateConnecting

	// StateConnected: handshake acknowledged; commands flow.
	StateConnected

	// StateClosing: explicit Disconnect. Terminal — no automatic
	// reconnection ever follows.
	StateClosing
)

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// ConnectionManager owns one session from the application to the
// coordinator: dialing, handshake, inbound command delivery, outbound
// sends, and scheduled reconnection. It is constructed by Runtime and
// exposed through it.
type ConnectionManager struct {
	// Address is the coordinator's transport address.
	Address string

	// Dialer opens the transport. Required.
	Dialer transport.Dialer

	// Handshake is sent whenever the transport opens.
	Handshake wire.Handshake

	// Dispatcher resolves inbound commands. Required.
	Dispatcher *dispatch.Dispatcher

	// ReconnectDelay overrides DefaultReconnectDelay when positive.
	ReconnectDelay time.Duration

	// Clock defaults to the real clock.
	Clock clock.Clock

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	mutex          sync.Mutex
	state          ConnState
	conn           net.Conn
	writer         *wire.Writer
	reconnectTimer *clock.Timer
	deviceID       string
	// generation invalidates read loops and pending reconnects from
	// superseded connection attempts.
	generation int
	// droppedSends counts outbound frames discarded while not
	// connected. There is no queueing across reconnects; a dropped
	// in-flight result means the command's outcome is unknown to the
	// coordinator.
	droppedSends int
	subscribers  []chan ConnState
}

func (m *ConnectionManager) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}

func (m *ConnectionManager) clock() clock.Clock {
	if m.Clock != nil {
		return m.Clock
	}
	return clock.Real()
}

func (m *ConnectionManager) reconnectDelay() time.Duration {
	if m.ReconnectDelay > 0 {
		return m.ReconnectDelay
	}
	return DefaultReconnectDelay
}

// State returns the current lifecycle state.
func (m *ConnectionManager) State() ConnState {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.state
}

// DeviceID returns the coordinator-assigned device ID, or "" before
// the first handshake ack.
func (m *ConnectionManager) DeviceID() string {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.deviceID
}

// Subscribe returns a channel receiving every state transition. The
// channel is buffered; a slow subscriber misses transitions rather
// than blocking the manager.
func (m *ConnectionManager) Subscribe() <-chan ConnState {
	ch := make(chan ConnState, 8)
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.subscribers = append(m.subscribers, ch)
	return ch
}

// Connect starts a connection attempt. No-op while already
// Connecting or Connected, and after an explicit Disconnect. The
// context bounds dialing for this attempt and any reconnects it
// schedules.
func (m *ConnectionManager) Connect(ctx context.Context) {
	m.mutex.Lock()
	if m.state == StateConnecting || m.state == StateConnected || m.state == StateClosing {
		m.mutex.Unlock()
		return
	}
	m.state = StateConnecting
	m.generation++
	generation := m.generation
	m.mutex.Unlock()

	m.notify(StateConnecting)
	go m.run(ctx, generation)
}

// Disconnect closes the session permanently: the pending reconnect
// timer is cancelled, the transport closes, and no automatic
// reconnection follows.
func (m *ConnectionManager) Disconnect() {
	m.mutex.Lock()
	if m.state == StateClosing {
		m.mutex.Unlock()
		return
	}
	if m.reconnectTimer != nil {
		m.reconnectTimer.Stop()
		m.reconnectTimer = nil
	}
	m.state = StateClosing
	m.generation++
	conn := m.conn
	m.conn = nil
	m.writer = nil
	m.mutex.Unlock()

	if conn != nil {
		conn.Close()
	}
	m.notify(StateClosing)
}

// Send writes an application-initiated frame. Returns false — a
// silent drop — when not Connected; callers must treat a dropped
// frame as unknown-outcome, not retryable state.
func (m *ConnectionManager) Send(frame any) bool {
	m.mutex.Lock()
	if m.state != StateConnected || m.writer == nil {
		m.droppedSends++
		dropped := m.droppedSends
		m.mutex.Unlock()
		m.logger().Debug("outbound frame dropped while not connected", "total_dropped", dropped)
		return false
	}
	writer := m.writer
	m.mutex.Unlock()

	if err := writer.Write(frame); err != nil {
		// The read loop observes the broken transport and drives the
		// state transition; here the send just failed.
		m.logger().Debug("outbound write failed", "error", err)
		return false
	}
	return true
}

// run is one connection attempt: dial, handshake, then the read loop
// until the transport breaks or the attempt is superseded.
func (m *ConnectionManager) run(ctx context.Context, generation int) {
	conn, err := m.Dialer.DialContext(ctx, m.Address)
	if err != nil {
		m.logger().Debug("dial failed", "address", m.Address, "error", err)
		m.connectionLost(ctx, generation)
		return
	}

	writer := wire.NewWriter(conn)
	if err := writer.Write(m.Handshake); err != nil {
		conn.Close()
		m.connectionLost(ctx, generation)
		return
	}

	m.mutex.Lock()
	if m.generation != generation || m.state != StateConnecting {
		// Superseded while dialing (explicit Disconnect, typically).
		m.mutex.Unlock()
		conn.Close()
		return
	}
	m.conn = conn
	m.writer = writer
	m.mutex.Unlock()

	m.readLoop(ctx, conn, generation)
}

// readLoop delivers inbound frames until the transport breaks.
func (m *ConnectionManager) readLoop(ctx context.Context, conn net.Conn, generation int) {
	reader := wire.NewReader(conn)
	for {
		frame, err := reader.Next()
		if errors.Is(err, wire.ErrMalformedFrame) {
			m.logger().Warn("dropping malformed frame", "error", err)
			continue
		}
		if err != nil {
			conn.Close()
			m.connectionLost(ctx, generation)
			return
		}

		switch {
		case frame.IsHandshakeAck():
			m.handleAck(frame, generation)
		case frame.IsCommand():
			if m.State() != StateConnected {
				// Half-established session: the coordinator has not
				// acked yet, so commands cannot be dispatched.
				m.logger().Warn("dropping command before handshake ack", "method", frame.Method)
				continue
			}
			go m.handleCommand(frame.AsCommand())
		default:
			m.logger().Warn("dropping unexpected frame", "type", frame.Type)
		}
	}
}

// handleAck moves the session to Connected on the first ack of this
// connection; later acks are ignored.
func (m *ConnectionManager) handleAck(frame *wire.Frame, generation int) {
	m.mutex.Lock()
	if m.generation != generation || m.state != StateConnecting {
		m.mutex.Unlock()
		return
	}
	m.state = StateConnected
	m.deviceID = frame.DeviceID
	m.mutex.Unlock()

	m.logger().Info("session established",
		"address", m.Address,
		"device_id", frame.DeviceID,
	)
	m.notify(StateConnected)
}

// handleCommand dispatches one inbound command and sends its
// correlated result. Runs on its own goroutine so concurrent
// commands are in flight simultaneously.
func (m *ConnectionManager) handleCommand(command wire.Command) {
	result, dispatchErr := m.Dispatcher.Dispatch(command.Method, command.Params)

	var response *wire.Response
	if dispatchErr != nil {
		response = wire.NewError(command.ID, dispatchErr.Code(), dispatchErr.Error())
	} else {
		response = wire.NewResult(command.ID, result)
	}
	if !m.Send(response) {
		m.logger().Debug("result dropped, session went away", "method", command.Method)
	}
}

// connectionLost transitions to Disconnected and schedules exactly
// one reconnect attempt. Any pending reconnect timer is cancelled
// and replaced, never stacked.
func (m *ConnectionManager) connectionLost(ctx context.Context, generation int) {
	m.mutex.Lock()
	if m.generation != generation || m.state == StateClosing {
		m.mutex.Unlock()
		return
	}
	m.state = StateDisconnected
	m.conn = nil
	m.writer = nil

	if m.reconnectTimer != nil {
		m.reconnectTimer.Stop()
	}
	m.reconnectTimer = m.clock().AfterFunc(m.reconnectDelay(), func() {
		if ctx.Err() != nil {
			return
		}
		m.Connect(ctx)
	})
	m.mutex.Unlock()

	m.logger().Info("connection lost, reconnect scheduled",
		"address", m.Address,
		"delay", m.reconnectDelay(),
	)
	m.notify(StateDisconnected)
}

// notify fans a transition out to subscribers without blocking.
func (m *ConnectionManager) notify(state ConnState) {
	m.mutex.Lock()
	subscribers := append([]chan ConnState(nil), m.subscribers...)
	m.mutex.Unlock()
	for _, ch := range subscribers {
		select {
		case ch <- state:
		default:
		}
	}
}
