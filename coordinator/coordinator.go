// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"

	"github.com/gantry-dev/gantry/dispatch"
	"github.com/gantry-dev/gantry/lib/clock"
	"github.com/gantry-dev/gantry/wire"
)

// DefaultRouteTimeout bounds how long a forwarded command waits for
// the application's response before the controller gets an error.
const DefaultRouteTimeout = 10 * time.Second

// defaultAdmitTimeout bounds how long a fresh connection may sit
// silent before sending its handshake.
const defaultAdmitTimeout = 10 * time.Second

// protocolConstraint gates admission: any 1.x application speaks a
// compatible protocol, 0.x and 2.x do not.
var protocolConstraint = mustConstraint("^1.0.0")

func mustConstraint(expr string) *semver.Constraints {
	constraint, err := semver.NewConstraint(expr)
	if err != nil {
		panic("coordinator: bad protocol constraint: " + err.Error())
	}
	return constraint
}

// Coordinator admits application sessions and routes controller
// commands to them. Zero value is not usable; call Start with a
// device listener.
type Coordinator struct {
	// RouteTimeout overrides DefaultRouteTimeout when positive.
	RouteTimeout time.Duration

	// Clock is used for route timeouts and activity stamps. Nil uses
	// the real clock.
	Clock clock.Clock

	// Logger receives structured log output. If nil, slog.Default()
	// is used. Per-frame events are logged at Debug level; admission
	// and session lifecycle at Info.
	Logger *slog.Logger

	mutex    sync.Mutex
	sessions map[string]*session

	listener    net.Listener
	cancel      context.CancelFunc
	done        chan struct{}
	connections sync.WaitGroup
}

// logger returns the configured logger or the default.
func (c *Coordinator) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c *Coordinator) clock() clock.Clock {
	if c.Clock != nil {
		return c.Clock
	}
	return clock.Real()
}

func (c *Coordinator) routeTimeout() time.Duration {
	if c.RouteTimeout > 0 {
		return c.RouteTimeout
	}
	return DefaultRouteTimeout
}

// Start begins accepting application connections on the listener. It
// returns immediately; the coordinator runs in the background until
// Stop is called or the context is cancelled. The coordinator takes
// ownership of the listener.
func (c *Coordinator) Start(ctx context.Context, listener net.Listener) error {
	if listener == nil {
		return fmt.Errorf("coordinator: listener is required")
	}
	c.mutex.Lock()
	if c.listener != nil {
		c.mutex.Unlock()
		return fmt.Errorf("coordinator: already started")
	}
	c.listener = listener
	c.sessions = make(map[string]*session)
	c.mutex.Unlock()

	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})

	go func() {
		defer close(c.done)
		c.acceptLoop(ctx)
	}()

	c.logger().Info("coordinator started", "addr", listener.Addr())
	return nil
}

// Addr returns the device listener's address, useful when binding to
// port 0. Returns nil before Start.
func (c *Coordinator) Addr() net.Addr {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.listener == nil {
		return nil
	}
	return c.listener.Addr()
}

// Stop shuts the coordinator down: the listener closes, every session
// is dropped, and Stop returns once all connection goroutines have
// drained.
func (c *Coordinator) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.mutex.Lock()
	listener := c.listener
	sessions := make([]*session, 0, len(c.sessions))
	for _, s := range c.sessions {
		sessions = append(sessions, s)
	}
	c.mutex.Unlock()

	if listener != nil {
		listener.Close()
	}
	for _, s := range sessions {
		s.close()
	}
	if c.done != nil {
		<-c.done
	}
}

// acceptLoop accepts device connections until the listener closes.
// It waits for all connection goroutines before returning, so the
// done channel signals full quiescence.
func (c *Coordinator) acceptLoop(ctx context.Context) {
	defer c.connections.Wait()
	for {
		conn, err := c.listener.Accept()
		if err != nil {
			if ctx.Err() == nil {
				c.logger().Debug("accept loop ended", "error", err)
			}
			return
		}
		c.connections.Add(1)
		go func() {
			defer c.connections.Done()
			c.handleConnection(ctx, conn)
		}()
	}
}

// handleConnection admits one application and then pumps its frames
// until the connection dies.
func (c *Coordinator) handleConnection(ctx context.Context, conn net.Conn) {
	s, err := c.admit(conn)
	if err != nil {
		c.logger().Info("admission rejected", "remote", conn.RemoteAddr(), "error", err)
		conn.Close()
		return
	}

	c.logger().Info("session admitted",
		"device_id", s.info.DeviceID,
		"platform", s.info.Platform,
		"app", s.info.AppName,
		"app_version", s.info.AppVersion,
	)

	c.readLoop(s)

	c.removeSession(s)
	s.close()
	c.logger().Info("session closed", "device_id", s.info.DeviceID)
}

// admit reads and validates the handshake, assigns the device ID, and
// acks. The first frame must arrive within the admission deadline and
// must be a handshake with a compatible protocol version.
func (c *Coordinator) admit(conn net.Conn) (*session, error) {
	conn.SetReadDeadline(time.Now().Add(defaultAdmitTimeout)) //nolint:realclock network deadline
	defer conn.SetReadDeadline(time.Time{})

	reader := wire.NewReader(conn)
	frame, err := reader.Next()
	if err != nil {
		return nil, fmt.Errorf("reading handshake: %w", err)
	}
	if !frame.IsHandshake() {
		return nil, fmt.Errorf("first frame is %q, want handshake", frame.Type)
	}
	handshake := frame.AsHandshake()

	if err := checkProtocol(handshake.ProtocolVersion); err != nil {
		// Best-effort rejection notice before closing.
		wire.NewWriter(conn).Write(wire.NewError(json.RawMessage("null"), wire.CodeInvalidRequest, err.Error()))
		return nil, err
	}

	now := c.clock().Now()
	s := newSession(conn, SessionInfo{
		DeviceID:        DeviceID(handshake),
		Platform:        handshake.Platform,
		OSVersion:       handshake.OSVersion,
		AppName:         handshake.AppName,
		AppVersion:      handshake.AppVersion,
		ProtocolVersion: handshake.ProtocolVersion,
		Capabilities:    handshake.Capabilities,
		ConnectedAt:     now,
		LastActivity:    now,
	})
	s.lastActivity = now

	if err := s.writer.Write(wire.HandshakeAck{Type: wire.TypeHandshakeAck, DeviceID: s.info.DeviceID}); err != nil {
		return nil, fmt.Errorf("writing ack: %w", err)
	}

	// A reconnect of the same application reuses its device ID; the
	// superseded connection, if still around, is dropped.
	c.mutex.Lock()
	previous := c.sessions[s.info.DeviceID]
	c.sessions[s.info.DeviceID] = s
	c.mutex.Unlock()
	if previous != nil {
		previous.close()
	}
	return s, nil
}

func checkProtocol(version string) error {
	if version == "" {
		return fmt.Errorf("handshake missing protocolVersion")
	}
	parsed, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("bad protocolVersion %q: %w", version, err)
	}
	if !protocolConstraint.Check(parsed) {
		return fmt.Errorf("protocolVersion %s outside supported range %s", version, protocolConstraint)
	}
	return nil
}

// readLoop pumps frames from an admitted session. Responses are
// matched to pending routes; anything else from the application is
// noise and is logged and dropped. Malformed frames do not kill the
// session.
func (c *Coordinator) readLoop(s *session) {
	reader := wire.NewReader(s.conn)
	for {
		frame, err := reader.Next()
		if err != nil {
			if errors.Is(err, wire.ErrMalformedFrame) {
				c.logger().Warn("malformed frame from device",
					"device_id", s.info.DeviceID, "error", err)
				continue
			}
			return
		}
		s.touch(c.clock().Now())

		switch {
		case frame.IsResponse():
			if !s.deliver(frame) {
				c.logger().Debug("late response discarded",
					"device_id", s.info.DeviceID, "id", string(frame.ID))
			}
		default:
			c.logger().Warn("unexpected frame from device",
				"device_id", s.info.DeviceID, "type", frame.Type, "method", frame.Method)
		}
	}
}

// removeSession drops s from the table if it is still the current
// session for its device ID. Removal happens the moment the
// connection dies, so a routed command never targets a dead session.
func (c *Coordinator) removeSession(s *session) {
	c.mutex.Lock()
	if c.sessions[s.info.DeviceID] == s {
		delete(c.sessions, s.info.DeviceID)
	}
	c.mutex.Unlock()
}

// Sessions lists the connected applications, ordered by device ID.
func (c *Coordinator) Sessions() []SessionInfo {
	c.mutex.Lock()
	infos := make([]SessionInfo, 0, len(c.sessions))
	for _, s := range c.sessions {
		infos = append(infos, s.snapshot())
	}
	c.mutex.Unlock()
	sort.Slice(infos, func(i, j int) bool { return infos[i].DeviceID < infos[j].DeviceID })
	return infos
}

// CloseSession forcibly drops the session for deviceID. The
// application's reconnect logic will bring it back unless it has been
// stopped on its side.
func (c *Coordinator) CloseSession(deviceID string) *dispatch.Error {
	c.mutex.Lock()
	s := c.sessions[deviceID]
	c.mutex.Unlock()
	if s == nil {
		return dispatch.SessionNotFound(deviceID)
	}
	s.close()
	return nil
}

// Route forwards one command to the session for deviceID and waits
// for its response. The correlation id is coordinator-generated;
// controller ids never travel to the device. A response arriving
// after the timeout is discarded by the session reader.
func (c *Coordinator) Route(ctx context.Context, deviceID, method string, params map[string]any) (*wire.Frame, *dispatch.Error) {
	c.mutex.Lock()
	s := c.sessions[deviceID]
	c.mutex.Unlock()
	if s == nil {
		return nil, dispatch.SessionNotFound(deviceID)
	}

	rawID, err := json.Marshal(uuid.NewString())
	if err != nil {
		return nil, dispatch.ActionFailed(err)
	}
	responses := s.expect(string(rawID))
	defer s.forget(string(rawID))

	command := wire.Command{ID: rawID, Method: method, Params: params}
	if err := s.writer.Write(command); err != nil {
		s.close()
		return nil, dispatch.SessionLost("writing to device %s: %v", deviceID, err)
	}

	timer := c.clock().After(c.routeTimeout())
	select {
	case frame := <-responses:
		return frame, nil
	case <-s.closed:
		return nil, dispatch.SessionLost("device %s disconnected while %s was in flight", deviceID, method)
	case <-timer:
		return nil, dispatch.SessionLost("device %s did not answer %s within %s", deviceID, method, c.routeTimeout())
	case <-ctx.Done():
		return nil, dispatch.SessionLost("%s to device %s cancelled: %v", method, deviceID, ctx.Err())
	}
}
