// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package coordinator

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/gantry-dev/gantry/dispatch"
	"github.com/gantry-dev/gantry/wire"
)

// ControlServer serves the controller-facing endpoint: the CLI, the
// TUI, and editor integrations connect here. Controllers speak the
// same newline-delimited JSON-RPC framing as devices but without a
// handshake; commands are accepted from the first line.
//
// Local methods:
//
//	list_sessions            — connected applications
//	close_session {deviceId} — drop a session
//	ping                     — liveness
//
// send {deviceId, method, params} forwards method to the addressed
// application and relays its response verbatim, so controllers see
// the application's own result shapes and error codes.
type ControlServer struct {
	Coordinator *Coordinator

	listener    net.Listener
	cancel      context.CancelFunc
	done        chan struct{}
	connections sync.WaitGroup
	mutex       sync.Mutex
}

// Start begins accepting controller connections. It returns
// immediately; the server runs until Stop or context cancellation.
func (cs *ControlServer) Start(ctx context.Context, listener net.Listener) error {
	if cs.Coordinator == nil {
		return fmt.Errorf("control: Coordinator is required")
	}
	if listener == nil {
		return fmt.Errorf("control: listener is required")
	}
	cs.mutex.Lock()
	if cs.listener != nil {
		cs.mutex.Unlock()
		return fmt.Errorf("control: already started")
	}
	cs.listener = listener
	cs.mutex.Unlock()

	ctx, cs.cancel = context.WithCancel(ctx)
	cs.done = make(chan struct{})

	go func() {
		defer close(cs.done)
		cs.acceptLoop(ctx)
	}()

	cs.Coordinator.logger().Info("control endpoint started", "addr", listener.Addr())
	return nil
}

// Addr returns the control listener's address, or nil before Start.
func (cs *ControlServer) Addr() net.Addr {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()
	if cs.listener == nil {
		return nil
	}
	return cs.listener.Addr()
}

// Stop closes the listener and waits for in-flight controller
// connections to drain.
func (cs *ControlServer) Stop() {
	if cs.cancel != nil {
		cs.cancel()
	}
	cs.mutex.Lock()
	listener := cs.listener
	cs.mutex.Unlock()
	if listener != nil {
		listener.Close()
	}
	if cs.done != nil {
		<-cs.done
	}
}

func (cs *ControlServer) acceptLoop(ctx context.Context) {
	defer cs.connections.Wait()
	for {
		conn, err := cs.listener.Accept()
		if err != nil {
			return
		}
		cs.connections.Add(1)
		go func() {
			defer cs.connections.Done()
			defer conn.Close()
			cs.handleController(ctx, conn)
		}()
	}
}

// handleController pumps one controller connection. Each command is
// handled on its own goroutine so a slow device route does not block
// the controller's other commands.
func (cs *ControlServer) handleController(ctx context.Context, conn net.Conn) {
	logger := cs.Coordinator.logger()
	reader := wire.NewReader(conn)
	writer := wire.NewWriter(conn)

	var inflight sync.WaitGroup
	defer inflight.Wait()

	for {
		frame, err := reader.Next()
		if err != nil {
			if errors.Is(err, wire.ErrMalformedFrame) {
				logger.Warn("malformed frame from controller", "error", err)
				continue
			}
			return
		}
		if !frame.IsCommand() {
			logger.Warn("unexpected frame from controller", "type", frame.Type)
			continue
		}
		command := frame.AsCommand()
		inflight.Add(1)
		go func() {
			defer inflight.Done()
			if err := writer.Write(cs.handleCommand(ctx, command)); err != nil {
				logger.Debug("writing control response", "error", err)
			}
		}()
	}
}

func (cs *ControlServer) handleCommand(ctx context.Context, command wire.Command) *wire.Response {
	switch command.Method {
	case "ping":
		return wire.NewResult(command.ID, map[string]any{"pong": true})

	case "list_sessions":
		return wire.NewResult(command.ID, map[string]any{"sessions": cs.Coordinator.Sessions()})

	case "close_session":
		deviceID, derr := dispatch.StringParam(command.Params, "deviceId")
		if derr != nil {
			return wire.NewError(command.ID, derr.Code(), derr.Error())
		}
		if derr := cs.Coordinator.CloseSession(deviceID); derr != nil {
			return wire.NewError(command.ID, derr.Code(), derr.Error())
		}
		return wire.NewResult(command.ID, map[string]any{"closed": deviceID})

	case "send":
		return cs.handleSend(ctx, command)

	default:
		derr := dispatch.UnknownMethod(command.Method, []string{"ping", "list_sessions", "close_session", "send"})
		return wire.NewError(command.ID, derr.Code(), derr.Error())
	}
}

// handleSend forwards a command to a device and relays the device's
// result or error under the controller's command id.
func (cs *ControlServer) handleSend(ctx context.Context, command wire.Command) *wire.Response {
	deviceID, derr := dispatch.StringParam(command.Params, "deviceId")
	if derr != nil {
		return wire.NewError(command.ID, derr.Code(), derr.Error())
	}
	method, derr := dispatch.StringParam(command.Params, "method")
	if derr != nil {
		return wire.NewError(command.ID, derr.Code(), derr.Error())
	}
	params, derr := dispatch.OptionalMap(command.Params, "params")
	if derr != nil {
		return wire.NewError(command.ID, derr.Code(), derr.Error())
	}

	answer, derr := cs.Coordinator.Route(ctx, deviceID, method, params)
	if derr != nil {
		return wire.NewError(command.ID, derr.Code(), derr.Error())
	}
	if answer.Error != nil {
		return wire.NewError(command.ID, answer.Error.Code, answer.Error.Message)
	}
	return wire.NewResult(command.ID, answer.Result)
}
