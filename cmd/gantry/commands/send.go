// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/gantry-dev/gantry/cmd/gantry/cli"
	"github.com/gantry-dev/gantry/coordinator"
)

func sendCommand() *cli.Command {
	var connection connectionFlags
	var rawParams string

	return &cli.Command{
		Name:    "send",
		Summary: "Send a raw bridge method to a device",
		Usage:   "gantry send <device-id> <method> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("send", pflag.ContinueOnError)
			connection.register(flags)
			flags.StringVar(&rawParams, "params", "", "method parameters as a JSON object")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("usage: gantry send <device-id> <method> [flags]")
			}
			params, err := parseParams(rawParams)
			if err != nil {
				return err
			}
			return connection.withClient(func(ctx context.Context, client *coordinator.ControlClient) error {
				result, err := client.Send(ctx, args[0], args[1], params)
				if err != nil {
					return err
				}
				return printRaw(result)
			})
		},
	}
}

// printRaw re-indents a raw JSON result for the terminal.
func printRaw(raw json.RawMessage) error {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return fmt.Errorf("decoding result: %w", err)
	}
	return cli.WriteJSON(value)
}
