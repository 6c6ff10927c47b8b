// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gantry-dev/gantry/coordinator"
	"github.com/gantry-dev/gantry/trace"
)

// refreshInterval is how often the session list is re-polled.
const refreshInterval = 2 * time.Second

// controlAPI is the slice of the control client the model uses,
// narrowed so tests can substitute a stub.
type controlAPI interface {
	Sessions(ctx context.Context) ([]coordinator.SessionInfo, error)
	Send(ctx context.Context, deviceID, method string, params map[string]any) (json.RawMessage, error)
}

// tickMsg triggers a session list refresh.
type tickMsg struct{}

// sessionsMsg delivers a fresh session list.
type sessionsMsg struct {
	sessions []coordinator.SessionInfo
}

// tracesMsg delivers the selected device's recent traces.
type tracesMsg struct {
	deviceID string
	traces   []trace.Entry
}

// errMsg surfaces a failed control call in the status line.
type errMsg struct {
	err error
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("241"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// model is the gantry-watch TUI state: a session list with one
// selected row and that session's most recent traces.
type model struct {
	client   controlAPI
	spinner  spinner.Model
	sessions []coordinator.SessionInfo
	selected int
	traces   []trace.Entry
	tracesOf string
	loaded   bool
	err      error
}

func newModel(client controlAPI) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return model{client: client, spinner: s}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchSessions)
}

func (m model) fetchSessions() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), refreshInterval)
	defer cancel()
	sessions, err := m.client.Sessions(ctx)
	if err != nil {
		return errMsg{err}
	}
	return sessionsMsg{sessions}
}

// fetchTraces pulls the selected device's five most recent traces.
func (m model) fetchTraces(deviceID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), refreshInterval)
		defer cancel()
		raw, err := m.client.Send(ctx, deviceID, "get_traces", map[string]any{"limit": 5})
		if err != nil {
			return errMsg{err}
		}
		var result struct {
			Traces []trace.Entry `json:"traces"`
		}
		if err := json.Unmarshal(raw, &result); err != nil {
			return errMsg{fmt.Errorf("decoding traces: %w", err)}
		}
		return tracesMsg{deviceID: deviceID, traces: result.Traces}
	}
}

func scheduleTick() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
			return m, nil
		case "down", "j":
			if m.selected < len(m.sessions)-1 {
				m.selected++
			}
			return m, nil
		case "enter", "t":
			if m.selected < len(m.sessions) {
				return m, m.fetchTraces(m.sessions[m.selected].DeviceID)
			}
			return m, nil
		}

	case tickMsg:
		return m, m.fetchSessions

	case sessionsMsg:
		m.sessions = msg.sessions
		m.loaded = true
		m.err = nil
		if m.selected >= len(m.sessions) {
			m.selected = 0
		}
		return m, scheduleTick()

	case tracesMsg:
		m.traces = msg.traces
		m.tracesOf = msg.deviceID
		return m, nil

	case errMsg:
		m.err = msg.err
		m.loaded = true
		return m, scheduleTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) View() string {
	var view string
	view += titleStyle.Render("gantry watch") + "\n\n"

	switch {
	case !m.loaded:
		view += m.spinner.View() + " connecting...\n"
	case len(m.sessions) == 0:
		view += dimStyle.Render("no connected applications") + "\n"
	default:
		view += headerStyle.Render(fmt.Sprintf("%-18s %-16s %-10s %-12s %s",
			"DEVICE", "APP", "VERSION", "PLATFORM", "LAST ACTIVITY")) + "\n"
		for i, session := range m.sessions {
			line := fmt.Sprintf("%-18s %-16s %-10s %-12s %s",
				session.DeviceID,
				session.AppName,
				session.AppVersion,
				session.Platform,
				session.LastActivity.Format("15:04:05"),
			)
			if i == m.selected {
				line = selectedStyle.Render("> " + line)
			} else {
				line = "  " + line
			}
			view += line + "\n"
		}
	}

	if m.tracesOf != "" {
		view += "\n" + headerStyle.Render("recent traces: "+m.tracesOf) + "\n"
		if len(m.traces) == 0 {
			view += dimStyle.Render("  none recorded") + "\n"
		}
		for _, entry := range m.traces {
			status := fmt.Sprintf("%.1fms", float64(entry.Duration)/float64(time.Millisecond))
			if entry.Error != "" {
				status = errorStyle.Render("error: " + entry.Error)
			}
			view += fmt.Sprintf("  %s  %s\n", entry.Name, status)
		}
	}

	if m.err != nil {
		view += "\n" + errorStyle.Render("error: "+m.err.Error()) + "\n"
	}
	view += "\n" + dimStyle.Render("up/down select · enter traces · q quit") + "\n"
	return view
}
