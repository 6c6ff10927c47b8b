// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/gantry-dev/gantry/transport"
	"github.com/gantry-dev/gantry/wire"
)

// ControlClient is a controller-side connection to the control
// endpoint. Calls are sequential: one request in flight at a time,
// which matches how the CLI and TUI use it.
type ControlClient struct {
	conn   net.Conn
	reader *wire.Reader
	writer *wire.Writer

	mutex  sync.Mutex
	nextID int
}

// ControlError is a JSON-RPC error returned by the control endpoint,
// preserving the wire code for callers that branch on it.
type ControlError struct {
	Code    int
	Message string
}

func (e *ControlError) Error() string { return e.Message }

// DialControl connects to a control endpoint.
func DialControl(ctx context.Context, dialer transport.Dialer, address string) (*ControlClient, error) {
	conn, err := dialer.DialContext(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("dialing control endpoint %s: %w", address, err)
	}
	return &ControlClient{
		conn:   conn,
		reader: wire.NewReader(conn),
		writer: wire.NewWriter(conn),
	}, nil
}

// Close tears the connection down.
func (c *ControlClient) Close() error { return c.conn.Close() }

// Call issues one command and waits for its response. A context
// deadline, if set, bounds the whole exchange via the connection's
// read deadline.
func (c *ControlClient) Call(ctx context.Context, method string, params map[string]any) (json.RawMessage, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.nextID++
	id := json.RawMessage(strconv.Quote("c" + strconv.Itoa(c.nextID)))

	if deadline, ok := ctx.Deadline(); ok {
		c.conn.SetReadDeadline(deadline)
		defer c.conn.SetReadDeadline(time.Time{})
	}

	if err := c.writer.Write(wire.Command{ID: id, Method: method, Params: params}); err != nil {
		return nil, fmt.Errorf("writing %s: %w", method, err)
	}

	for {
		frame, err := c.reader.Next()
		if err != nil {
			return nil, fmt.Errorf("reading %s response: %w", method, err)
		}
		if !frame.IsResponse() || string(frame.ID) != string(id) {
			continue
		}
		if frame.Error != nil {
			return nil, &ControlError{Code: frame.Error.Code, Message: frame.Error.Message}
		}
		return frame.Result, nil
	}
}

// Sessions lists connected applications.
func (c *ControlClient) Sessions(ctx context.Context) ([]SessionInfo, error) {
	raw, err := c.Call(ctx, "list_sessions", nil)
	if err != nil {
		return nil, err
	}
	var result struct {
		Sessions []SessionInfo `json:"sessions"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decoding session list: %w", err)
	}
	return result.Sessions, nil
}

// Send forwards method to the addressed device and returns its raw
// result.
func (c *ControlClient) Send(ctx context.Context, deviceID, method string, params map[string]any) (json.RawMessage, error) {
	sendParams := map[string]any{"deviceId": deviceID, "method": method}
	if len(params) > 0 {
		sendParams["params"] = params
	}
	return c.Call(ctx, "send", sendParams)
}

// CloseSession drops the session for deviceID.
func (c *ControlClient) CloseSession(ctx context.Context, deviceID string) error {
	_, err := c.Call(ctx, "close_session", map[string]any{"deviceId": deviceID})
	return err
}
