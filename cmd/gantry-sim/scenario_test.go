// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"testing"
)

func TestParseScenarioWithCommentsAndTrailingCommas(t *testing.T) {
	scenario, err := parseScenario([]byte(`{
		// simulated shop app
		"platform": "ios",
		"appName": "shop",
		"appVersion": "2.1.0",
		"state": {
			"cart": {"items": 2},
		},
		"flags": {"darkMode": false},
		"actions": {
			"addToCart": {"added": "p1"},
		},
		"routes": ["home", "cart"],
		"mocks": [
			{"pattern": "https://api.shop.example/*", "status": 503},
		],
		"workload": [
			{"name": "UserService.login", "durationMs": 5},
			/* a failing call */
			{"name": "CartService.sync", "error": "offline"},
		],
	}`))
	if err != nil {
		t.Fatalf("parseScenario: %v", err)
	}
	if scenario.AppName != "shop" || scenario.Platform != "ios" {
		t.Fatalf("identity = %+v", scenario)
	}
	if len(scenario.Workload) != 2 || scenario.Workload[1].Error != "offline" {
		t.Fatalf("workload = %+v", scenario.Workload)
	}
	if len(scenario.Mocks) != 1 || scenario.Mocks[0].Status != 503 {
		t.Fatalf("mocks = %+v", scenario.Mocks)
	}
	// Defaults survive for omitted fields.
	if scenario.OSVersion != "1.0" || scenario.WorkloadIntervalMs != 1000 {
		t.Fatalf("defaults = %+v", scenario)
	}
}

func TestParseScenarioRejectsMissingNames(t *testing.T) {
	if _, err := parseScenario([]byte(`{"appName": ""}`)); err == nil {
		t.Fatal("accepted empty appName")
	}
	if _, err := parseScenario([]byte(`{"appName": "x", "workload": [{"durationMs": 5}]}`)); err == nil {
		t.Fatal("accepted unnamed workload call")
	}
}

func TestParseScenarioRejectsNonPositiveInterval(t *testing.T) {
	// An explicit zero or negative interval would otherwise reach
	// time.NewTicker and panic the replay loop.
	if _, err := parseScenario([]byte(`{"appName": "x", "workloadIntervalMs": 0}`)); err == nil {
		t.Fatal("accepted zero workloadIntervalMs")
	}
	if _, err := parseScenario([]byte(`{"appName": "x", "workloadIntervalMs": -50}`)); err == nil {
		t.Fatal("accepted negative workloadIntervalMs")
	}
}

func TestParseScenarioRejectsMalformedJSON(t *testing.T) {
	if _, err := parseScenario([]byte(`{"appName": `)); err == nil {
		t.Fatal("accepted malformed scenario")
	}
}

func TestLoadScenarioFromDisk(t *testing.T) {
	scenario, err := loadScenario("testdata/shop.jsonc")
	if err != nil {
		t.Fatalf("loadScenario: %v", err)
	}
	if scenario.AppName != "shop" || len(scenario.Workload) != 3 {
		t.Fatalf("scenario = %+v", scenario)
	}

	if _, err := loadScenario("testdata/does-not-exist.jsonc"); err == nil {
		t.Fatal("loadScenario accepted a missing file")
	}
}
