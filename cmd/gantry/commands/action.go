// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/gantry-dev/gantry/cmd/gantry/cli"
	"github.com/gantry-dev/gantry/coordinator"
)

func actionCommand() *cli.Command {
	var connection connectionFlags
	var rawParams string

	return &cli.Command{
		Name:    "action",
		Summary: "Execute a registered action on a device",
		Usage:   "gantry action <device-id> <action> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("action", pflag.ContinueOnError)
			connection.register(flags)
			flags.StringVar(&rawParams, "params", "", "action parameters as a JSON object")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("usage: gantry action <device-id> <action> [flags]")
			}
			params, err := parseParams(rawParams)
			if err != nil {
				return err
			}
			sendParams := map[string]any{"action": args[1]}
			if len(params) > 0 {
				sendParams["params"] = params
			}
			return connection.withClient(func(ctx context.Context, client *coordinator.ControlClient) error {
				result, err := client.Send(ctx, args[0], "execute_action", sendParams)
				if err != nil {
					return err
				}
				return printRaw(result)
			})
		},
	}
}
