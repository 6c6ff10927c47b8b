// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// gantry-sim is a simulated application for exercising a coordinator
// without a real mobile app: it connects as a device, exposes the
// state, flags, and actions described by a scenario file, and replays
// a workload of traced calls.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gantry-dev/gantry/bridge"
	"github.com/gantry-dev/gantry/lib/logbuffer"
	"github.com/gantry-dev/gantry/lib/logging"
	"github.com/gantry-dev/gantry/registry"
	"github.com/gantry-dev/gantry/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	scenarioPath := flag.String("scenario", "", "path to the JSONC scenario file (required)")
	coordinatorAddr := flag.String("coordinator", "127.0.0.1:8721", "device endpoint address")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	flag.Parse()

	if *scenarioPath == "" {
		return fmt.Errorf("--scenario is required")
	}
	scenario, err := loadScenario(*scenarioPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runtime := bridge.New(bridge.Config{
		Address: *coordinatorAddr,
		Dialer:  &transport.TCPDialer{Timeout: 5 * time.Second},
		Identity: bridge.Identity{
			Platform:     scenario.Platform,
			OSVersion:    scenario.OSVersion,
			AppName:      scenario.AppName,
			AppVersion:   scenario.AppVersion,
			Capabilities: []string{"tracing", "network_mocks"},
		},
	})
	applyScenario(runtime, scenario)

	// Terminal logging plus the in-runtime capture buffer, so get_logs
	// shows the simulator's own output.
	level := logging.ParseLevel(*logLevel)
	logger := slog.New(logbuffer.Tee(logging.NewLogger(level).Handler(), runtime.Logs, level))
	slog.SetDefault(logger)

	runtime.Connect(ctx)
	defer runtime.Disconnect()
	logger.Info("simulator started",
		"app", scenario.AppName,
		"coordinator", *coordinatorAddr,
		"workload_calls", len(scenario.Workload),
	)

	go replayWorkload(ctx, runtime, scenario)

	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}

// applyScenario registers the scenario's surface on the runtime.
func applyScenario(runtime *bridge.Runtime, scenario *Scenario) {
	for name, snapshot := range scenario.State {
		snapshot := snapshot
		runtime.State.Register(name, func() any { return snapshot })
	}
	runtime.Flags.RegisterAll(scenario.Flags)
	for name, result := range scenario.Actions {
		result := result
		runtime.Actions.Register(name, func(map[string]any) (any, error) {
			return result, nil
		})
	}
	for _, route := range scenario.Routes {
		runtime.Navigation.Push(route)
	}
	for _, mock := range scenario.Mocks {
		status := mock.Status
		if status == 0 {
			status = 200
		}
		if err := runtime.NetworkMocks.Register(mock.Pattern, registry.MockResponse{
			Status:  status,
			Body:    mock.Body,
			Headers: mock.Headers,
		}); err != nil {
			slog.Warn("skipping bad mock pattern", "pattern", mock.Pattern, "error", err)
		}
	}
}

// replayWorkload loops over the scenario's traced calls until the
// context ends. Durations are synthesized by completing each trace
// after a real sleep, so exported archives carry plausible timings.
func replayWorkload(ctx context.Context, runtime *bridge.Runtime, scenario *Scenario) {
	if len(scenario.Workload) == 0 {
		return
	}
	interval := time.Duration(scenario.WorkloadIntervalMs) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		for _, call := range scenario.Workload {
			id := runtime.Traces.Start(call.Name, nil)
			if call.DurationMs > 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(time.Duration(call.DurationMs) * time.Millisecond):
				}
			}
			runtime.Traces.CompleteID(id, nil, call.Error)
		}
	}
}
