// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// The gantry-coordinator daemon accepts application connections on
// the device endpoint and controller connections on the control
// endpoint, routing commands between them.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gantry-dev/gantry/coordinator"
	"github.com/gantry-dev/gantry/lib/config"
	"github.com/gantry-dev/gantry/lib/logging"
	"github.com/gantry-dev/gantry/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "",
		"path to the YAML config file (also via GANTRY_CONFIG); defaults apply when omitted")
	devicesAddr := flag.String("devices", "",
		"device endpoint address, overriding the config file")
	controlAddr := flag.String("control", "",
		"control endpoint address, overriding the config file")
	logLevel := flag.String("log-level", "",
		"log level (debug, info, warn, error), overriding the config file")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if *devicesAddr != "" {
		cfg.Listen.Devices = *devicesAddr
	}
	if *controlAddr != "" {
		cfg.Listen.Control = *controlAddr
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.NewLogger(logging.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deviceListener, err := transport.ListenTCP(cfg.Listen.Devices)
	if err != nil {
		return fmt.Errorf("binding device endpoint %s: %w", cfg.Listen.Devices, err)
	}
	controlListener, err := transport.ListenTCP(cfg.Listen.Control)
	if err != nil {
		deviceListener.Close()
		return fmt.Errorf("binding control endpoint %s: %w", cfg.Listen.Control, err)
	}

	coord := &coordinator.Coordinator{
		RouteTimeout: cfg.RouteTimeout.Std(),
		Logger:       logger,
	}
	if err := coord.Start(ctx, deviceListener); err != nil {
		controlListener.Close()
		return err
	}
	defer coord.Stop()

	control := &coordinator.ControlServer{Coordinator: coord}
	if err := control.Start(ctx, controlListener); err != nil {
		return err
	}
	defer control.Stop()

	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}
