// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import "encoding/json"

// ProtocolVersion is the bridge protocol version sent in the
// handshake. The coordinator accepts any 1.x peer; see the
// coordinator's admission gate.
const ProtocolVersion = "1.2.0"

// JSON-RPC 2.0 error codes used in error responses. CodeHandlerFailed
// is the reserved generic handler-failure code; the rest follow the
// JSON-RPC spec.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeUnknownMethod  = -32601
	CodeInvalidParams  = -32602
	CodeHandlerFailed  = -32000
)

// Frame type tags for the non-RPC frames.
const (
	TypeHandshake    = "handshake"
	TypeHandshakeAck = "handshake_ack"
)

// Handshake is the first frame the application sends after the
// transport opens. The session is not usable until the coordinator
// answers with a HandshakeAck.
type Handshake struct {
	Type            string   `json:"type"`
	Platform        string   `json:"platform"`
	OSVersion       string   `json:"osVersion"`
	AppName         string   `json:"appName"`
	AppVersion      string   `json:"appVersion"`
	ProtocolVersion string   `json:"protocolVersion,omitempty"`
	Capabilities    []string `json:"capabilities"`
}

// HandshakeAck is the coordinator's acceptance of a handshake. The
// device ID is stable across reconnects of the same application.
type HandshakeAck struct {
	Type     string `json:"type"`
	DeviceID string `json:"deviceId"`
}

// Command is a controller-issued request. ID is caller-chosen,
// opaque, and unique per outstanding request on the session.
type Command struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Params map[string]any  `json:"params,omitempty"`
}

// Response is a JSON-RPC 2.0 result or error frame. Exactly one of
// Result or Error is set.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *ResponseError  `json:"error,omitempty"`
}

// ResponseError is the error member of an error response.
type ResponseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewResult builds a success response echoing the command's id. A nil
// result is normalized to JSON null so the frame always carries an
// explicit result member; JSON-RPC requires one on success.
func NewResult(id json.RawMessage, result any) *Response {
	if result == nil {
		result = json.RawMessage("null")
	}
	return &Response{JSONRPC: "2.0", ID: id, Result: result}
}

// NewError builds an error response echoing the command's id.
func NewError(id json.RawMessage, code int, message string) *Response {
	return &Response{JSONRPC: "2.0", ID: id, Error: &ResponseError{Code: code, Message: message}}
}

// Frame is the union decoding target for one inbound line. Exactly
// one shape is populated; use the Is* classifiers rather than
// inspecting fields directly.
type Frame struct {
	// Type is set for handshake and handshake_ack frames.
	Type string `json:"type,omitempty"`

	// Command fields.
	ID     json.RawMessage `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params map[string]any  `json:"params,omitempty"`

	// Response fields.
	JSONRPC string          `json:"jsonrpc,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ResponseError  `json:"error,omitempty"`

	// The remaining handshake fields, populated when Type is
	// TypeHandshake or TypeHandshakeAck.
	Platform        string   `json:"platform,omitempty"`
	OSVersion       string   `json:"osVersion,omitempty"`
	AppName         string   `json:"appName,omitempty"`
	AppVersion      string   `json:"appVersion,omitempty"`
	ProtocolVersion string   `json:"protocolVersion,omitempty"`
	Capabilities    []string `json:"capabilities,omitempty"`
	DeviceID        string   `json:"deviceId,omitempty"`
}

// IsHandshake reports whether the frame is an application handshake.
func (f *Frame) IsHandshake() bool { return f.Type == TypeHandshake }

// IsHandshakeAck reports whether the frame is a coordinator ack.
func (f *Frame) IsHandshakeAck() bool { return f.Type == TypeHandshakeAck }

// IsCommand reports whether the frame is a controller command: it has
// an id and a method, and is not a typed frame.
func (f *Frame) IsCommand() bool {
	return f.Type == "" && len(f.ID) > 0 && f.Method != "" && f.JSONRPC == ""
}

// IsResponse reports whether the frame is a JSON-RPC response. The
// result member is not required for classification: a peer that omits
// it on success (null result) still gets its reply correlated instead
// of dropped.
func (f *Frame) IsResponse() bool {
	return f.JSONRPC == "2.0" && len(f.ID) > 0 && f.Method == ""
}

// AsHandshake extracts the handshake fields.
func (f *Frame) AsHandshake() Handshake {
	return Handshake{
		Type:            f.Type,
		Platform:        f.Platform,
		OSVersion:       f.OSVersion,
		AppName:         f.AppName,
		AppVersion:      f.AppVersion,
		ProtocolVersion: f.ProtocolVersion,
		Capabilities:    f.Capabilities,
	}
}

// AsCommand extracts the command fields.
func (f *Frame) AsCommand() Command {
	return Command{ID: f.ID, Method: f.Method, Params: f.Params}
}
