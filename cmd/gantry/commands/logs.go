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

func logsCommand() *cli.Command {
	var connection connectionFlags
	var errorsOnly bool
	var limit int

	return &cli.Command{
		Name:    "logs",
		Summary: "Show an application's captured log entries",
		Usage:   "gantry logs <device-id> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("logs", pflag.ContinueOnError)
			connection.register(flags)
			flags.BoolVar(&errorsOnly, "errors", false, "only warning and error entries")
			flags.IntVar(&limit, "limit", 0, "keep only the most recent N entries")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: gantry logs <device-id> [flags]")
			}
			method := "get_logs"
			if errorsOnly {
				method = "get_recent_errors"
			}
			var params map[string]any
			if limit > 0 {
				params = map[string]any{"limit": limit}
			}
			return connection.withClient(func(ctx context.Context, client *coordinator.ControlClient) error {
				result, err := client.Send(ctx, args[0], method, params)
				if err != nil {
					return err
				}
				return printRaw(result)
			})
		},
	}
}
