// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/gantry-dev/gantry/coordinator"
	"github.com/gantry-dev/gantry/transport"
)

// defaultControlAddress matches the coordinator's default control
// listener.
const defaultControlAddress = "127.0.0.1:8722"

// commandTimeout bounds one CLI exchange end to end. It is longer
// than the coordinator's route timeout so routing errors surface with
// their own message instead of a client-side deadline.
const commandTimeout = 30 * time.Second

// connectionFlags is embedded in every command's flag set.
type connectionFlags struct {
	address string
}

func (f *connectionFlags) register(flags *pflag.FlagSet) {
	fallback := os.Getenv("GANTRY_CONTROL")
	if fallback == "" {
		fallback = defaultControlAddress
	}
	flags.StringVar(&f.address, "coordinator", fallback,
		"control endpoint address (also via GANTRY_CONTROL)")
}

// withClient dials the control endpoint, runs fn, and closes the
// connection.
func (f *connectionFlags) withClient(fn func(ctx context.Context, client *coordinator.ControlClient) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	client, err := coordinator.DialControl(ctx, &transport.TCPDialer{}, f.address)
	if err != nil {
		return err
	}
	defer client.Close()
	return fn(ctx, client)
}

// parseParams decodes a --params JSON object.
func parseParams(raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}
	var params map[string]any
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		return nil, fmt.Errorf("parsing --params: %w", err)
	}
	return params, nil
}
