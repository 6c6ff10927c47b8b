// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gantry-dev/gantry/coordinator"
	"github.com/gantry-dev/gantry/trace"
)

// stubControl satisfies controlAPI without a network.
type stubControl struct {
	sessions []coordinator.SessionInfo
	traces   map[string][]trace.Entry
	err      error
}

func (s *stubControl) Sessions(context.Context) ([]coordinator.SessionInfo, error) {
	return s.sessions, s.err
}

func (s *stubControl) Send(_ context.Context, deviceID, method string, _ map[string]any) (json.RawMessage, error) {
	if s.err != nil {
		return nil, s.err
	}
	if method != "get_traces" {
		return nil, errors.New("unexpected method " + method)
	}
	return json.Marshal(map[string]any{"traces": s.traces[deviceID]})
}

func testSessions() []coordinator.SessionInfo {
	return []coordinator.SessionInfo{
		{DeviceID: "aaa", AppName: "shop", AppVersion: "2.1.0", Platform: "ios"},
		{DeviceID: "bbb", AppName: "mail", AppVersion: "1.0.0", Platform: "android"},
	}
}

func update(m model, msg tea.Msg) (model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(model), cmd
}

func TestSessionsMessagePopulatesList(t *testing.T) {
	m := newModel(&stubControl{})
	m, cmd := update(m, sessionsMsg{sessions: testSessions()})
	if !m.loaded || len(m.sessions) != 2 {
		t.Fatalf("model = %+v", m)
	}
	if cmd == nil {
		t.Fatal("no refresh scheduled after sessions message")
	}
	view := m.View()
	for _, want := range []string{"shop", "mail", "aaa"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestSelectionMovesAndClamps(t *testing.T) {
	m := newModel(&stubControl{})
	m, _ = update(m, sessionsMsg{sessions: testSessions()})

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyDown})
	if m.selected != 1 {
		t.Fatalf("selected = %d after down", m.selected)
	}
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyDown})
	if m.selected != 1 {
		t.Fatalf("selected = %d, want clamp at last row", m.selected)
	}
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyUp})
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyUp})
	if m.selected != 0 {
		t.Fatalf("selected = %d, want clamp at first row", m.selected)
	}

	// A shrinking session list resets an out-of-range selection.
	m.selected = 1
	m, _ = update(m, sessionsMsg{sessions: testSessions()[:1]})
	if m.selected != 0 {
		t.Fatalf("selected = %d after shrink", m.selected)
	}
}

func TestEnterFetchesTracesForSelection(t *testing.T) {
	stub := &stubControl{
		traces: map[string][]trace.Entry{
			"bbb": {{Name: "MailService.fetch", Duration: 12 * time.Millisecond, Completed: true}},
		},
	}
	m := newModel(stub)
	m, _ = update(m, sessionsMsg{sessions: testSessions()})
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyDown})

	_, cmd := update(m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter produced no command")
	}
	msg := cmd()
	traces, ok := msg.(tracesMsg)
	if !ok {
		t.Fatalf("command produced %T", msg)
	}
	if traces.deviceID != "bbb" || len(traces.traces) != 1 {
		t.Fatalf("traces = %+v", traces)
	}

	m, _ = update(m, traces)
	if !strings.Contains(m.View(), "MailService.fetch") {
		t.Fatalf("view missing fetched trace:\n%s", m.View())
	}
}

func TestErrorShownAndPollingContinues(t *testing.T) {
	m := newModel(&stubControl{})
	m, cmd := update(m, errMsg{errors.New("connection refused")})
	if cmd == nil {
		t.Fatal("no refresh scheduled after error")
	}
	if !strings.Contains(m.View(), "connection refused") {
		t.Fatalf("view missing error:\n%s", m.View())
	}

	// A successful refresh clears the error.
	m, _ = update(m, sessionsMsg{sessions: testSessions()})
	if m.err != nil {
		t.Fatalf("error survived refresh: %v", m.err)
	}
}

func TestQuitKeys(t *testing.T) {
	m := newModel(&stubControl{})
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune{'q'}},
		{Type: tea.KeyCtrlC},
	} {
		if _, cmd := update(m, key); cmd == nil {
			t.Fatalf("key %v produced no quit command", key)
		}
	}
}
