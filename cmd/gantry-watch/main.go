// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// gantry-watch is a terminal dashboard for a gantry coordinator: a
// live session list with per-device trace peeking.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gantry-dev/gantry/coordinator"
	"github.com/gantry-dev/gantry/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	controlAddr := flag.String("coordinator", defaultControlAddress(),
		"control endpoint address (also via GANTRY_CONTROL)")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	client, err := coordinator.DialControl(ctx, &transport.TCPDialer{}, *controlAddr)
	cancel()
	if err != nil {
		return err
	}
	defer client.Close()

	program := tea.NewProgram(newModel(client), tea.WithAltScreen())
	_, err = program.Run()
	return err
}

func defaultControlAddress() string {
	if addr := os.Getenv("GANTRY_CONTROL"); addr != "" {
		return addr
	}
	return "127.0.0.1:8722"
}
