// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package coordinator

import (
	"net"
	"sync"
	"time"

	"github.com/gantry-dev/gantry/wire"
)

// SessionInfo is the externally visible description of a connected
// application, as reported by list_sessions.
type SessionInfo struct {
	DeviceID        string    `json:"deviceId"`
	Platform        string    `json:"platform"`
	OSVersion       string    `json:"osVersion"`
	AppName         string    `json:"appName"`
	AppVersion      string    `json:"appVersion"`
	ProtocolVersion string    `json:"protocolVersion"`
	Capabilities    []string  `json:"capabilities"`
	ConnectedAt     time.Time `json:"connectedAt"`
	LastActivity    time.Time `json:"lastActivity"`
}

// session is one admitted application connection. Routing state
// (the pending table) lives here so a dying session can fail its
// in-flight commands without touching the coordinator's tables.
type session struct {
	info   SessionInfo
	conn   net.Conn
	writer *wire.Writer

	mutex sync.Mutex
	// pending maps the raw JSON of an in-flight command id to the
	// channel its response should be delivered on. Entries are
	// removed by the reader on delivery or by the router on timeout.
	pending map[string]chan *wire.Frame
	// closed is closed exactly once when the connection dies; every
	// blocked Route call observes it as session loss.
	closed    chan struct{}
	closeOnce sync.Once

	lastActivity time.Time
}

func newSession(conn net.Conn, info SessionInfo) *session {
	return &session{
		info:    info,
		conn:    conn,
		writer:  wire.NewWriter(conn),
		pending: make(map[string]chan *wire.Frame),
		closed:  make(chan struct{}),
	}
}

// snapshot returns the session's info with the live lastActivity.
func (s *session) snapshot() SessionInfo {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	info := s.info
	info.LastActivity = s.lastActivity
	return info
}

func (s *session) touch(now time.Time) {
	s.mutex.Lock()
	s.lastActivity = now
	s.mutex.Unlock()
}

// expect registers a response channel for the given raw command id.
func (s *session) expect(rawID string) chan *wire.Frame {
	ch := make(chan *wire.Frame, 1)
	s.mutex.Lock()
	s.pending[rawID] = ch
	s.mutex.Unlock()
	return ch
}

// forget removes a pending entry, returning whether it was present.
func (s *session) forget(rawID string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	_, present := s.pending[rawID]
	delete(s.pending, rawID)
	return present
}

// deliver hands a response frame to whoever is waiting on its id.
// Responses with no waiter are late arrivals after a timeout; their
// frames are dropped.
func (s *session) deliver(frame *wire.Frame) bool {
	s.mutex.Lock()
	ch, present := s.pending[string(frame.ID)]
	delete(s.pending, string(frame.ID))
	s.mutex.Unlock()
	if !present {
		return false
	}
	ch <- frame
	return true
}

// close tears the connection down. Idempotent; safe from any
// goroutine.
func (s *session) close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.conn.Close()
	})
}
