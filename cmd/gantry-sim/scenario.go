// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"
)

// Scenario describes the simulated application: its identity, the
// state and flags it exposes, canned action results, and a workload
// of traced calls to replay. Scenario files are JSONC (JSON extended
// with // comments and trailing commas).
type Scenario struct {
	// Identity fields announced in the handshake.
	Platform   string `json:"platform"`
	OSVersion  string `json:"osVersion"`
	AppName    string `json:"appName"`
	AppVersion string `json:"appVersion"`

	// State maps registered state names to their static snapshots.
	State map[string]any `json:"state"`

	// Flags are the feature flags and their initial values.
	Flags map[string]bool `json:"flags"`

	// Actions maps action names to canned results. Invoking an
	// action returns its result verbatim.
	Actions map[string]any `json:"actions"`

	// Routes seeds the navigation stack, bottom first.
	Routes []string `json:"routes"`

	// Mocks seeds the network mock registry, in priority order.
	Mocks []ScenarioMock `json:"mocks"`

	// Workload is replayed on an interval to generate traces.
	Workload []WorkloadCall `json:"workload"`

	// WorkloadIntervalMs is the replay interval. Default: 1000.
	WorkloadIntervalMs int `json:"workloadIntervalMs"`
}

// WorkloadCall is one simulated traced call.
type WorkloadCall struct {
	Name       string `json:"name"`
	DurationMs int    `json:"durationMs"`
	Error      string `json:"error"`
}

// ScenarioMock is one canned network response.
type ScenarioMock struct {
	Pattern string            `json:"pattern"`
	Status  int               `json:"status"`
	Body    string            `json:"body"`
	Headers map[string]string `json:"headers"`
}

// loadScenario reads and validates a JSONC scenario file.
func loadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	return parseScenario(data)
}

func parseScenario(data []byte) (*Scenario, error) {
	scenario := &Scenario{
		Platform:           "sim",
		OSVersion:          "1.0",
		AppName:            "gantry-sim",
		AppVersion:         "0.0.0",
		WorkloadIntervalMs: 1000,
	}
	if err := json.Unmarshal(jsonc.ToJSON(data), scenario); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if scenario.AppName == "" {
		return nil, fmt.Errorf("scenario must set appName")
	}
	if scenario.WorkloadIntervalMs <= 0 {
		return nil, fmt.Errorf("workloadIntervalMs must be positive, got %d", scenario.WorkloadIntervalMs)
	}
	for i, call := range scenario.Workload {
		if call.Name == "" {
			return nil, fmt.Errorf("workload[%d] is missing a name", i)
		}
	}
	for i, mock := range scenario.Mocks {
		if mock.Pattern == "" {
			return nil, fmt.Errorf("mocks[%d] is missing a pattern", i)
		}
	}
	return scenario, nil
}
