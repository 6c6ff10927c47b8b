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

func flagsCommand() *cli.Command {
	return &cli.Command{
		Name:    "flags",
		Summary: "List or toggle an application's feature flags",
		Subcommands: []*cli.Command{
			flagsListCommand(),
			flagsToggleCommand(),
		},
	}
}

func flagsListCommand() *cli.Command {
	var connection connectionFlags

	return &cli.Command{
		Name:    "list",
		Summary: "List feature flags and their current values",
		Usage:   "gantry flags list <device-id> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("list", pflag.ContinueOnError)
			connection.register(flags)
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: gantry flags list <device-id> [flags]")
			}
			return connection.withClient(func(ctx context.Context, client *coordinator.ControlClient) error {
				result, err := client.Send(ctx, args[0], "list_feature_flags", nil)
				if err != nil {
					return err
				}
				return printRaw(result)
			})
		},
	}
}

func flagsToggleCommand() *cli.Command {
	var connection connectionFlags
	var value string

	return &cli.Command{
		Name:    "toggle",
		Summary: "Invert a feature flag, or set it with --value",
		Usage:   "gantry flags toggle <device-id> <name> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("toggle", pflag.ContinueOnError)
			connection.register(flags)
			flags.StringVar(&value, "value", "", "set explicitly to true or false instead of inverting")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("usage: gantry flags toggle <device-id> <name> [flags]")
			}
			params := map[string]any{"name": args[1]}
			switch value {
			case "":
			case "true":
				params["value"] = true
			case "false":
				params["value"] = false
			default:
				return fmt.Errorf("--value must be true or false, got %q", value)
			}
			return connection.withClient(func(ctx context.Context, client *coordinator.ControlClient) error {
				result, err := client.Send(ctx, args[0], "toggle_feature_flag", params)
				if err != nil {
					return err
				}
				return printRaw(result)
			})
		},
	}
}
