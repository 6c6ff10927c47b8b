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

func stateCommand() *cli.Command {
	var connection connectionFlags

	return &cli.Command{
		Name:    "state",
		Summary: "Show an application's registered state",
		Usage:   "gantry state <device-id> [name] [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("state", pflag.ContinueOnError)
			connection.register(flags)
			return flags
		},
		Run: func(args []string) error {
			if len(args) < 1 || len(args) > 2 {
				return fmt.Errorf("usage: gantry state <device-id> [name] [flags]")
			}
			var params map[string]any
			if len(args) == 2 {
				params = map[string]any{"name": args[1]}
			}
			return connection.withClient(func(ctx context.Context, client *coordinator.ControlClient) error {
				result, err := client.Send(ctx, args[0], "get_app_state", params)
				if err != nil {
					return err
				}
				return printRaw(result)
			})
		},
	}
}
