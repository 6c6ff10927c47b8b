// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/gantry-dev/gantry/cmd/gantry/cli"
	"github.com/gantry-dev/gantry/coordinator"
	"github.com/gantry-dev/gantry/lib/tracearchive"
	"github.com/gantry-dev/gantry/trace"
)

func tracesCommand() *cli.Command {
	return &cli.Command{
		Name:    "traces",
		Summary: "Inspect, inject, and export execution traces",
		Subcommands: []*cli.Command{
			tracesListCommand(),
			tracesInjectCommand(),
			tracesExportCommand(),
			tracesClearCommand(),
		},
	}
}

// traceFilterFlags are shared between list and export.
type traceFilterFlags struct {
	name        string
	minDuration int
	limit       int
}

func (f *traceFilterFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&f.name, "name", "", "keep traces whose name contains this substring")
	flags.IntVar(&f.minDuration, "min-duration", 0, "keep traces at least this slow, in milliseconds")
	flags.IntVar(&f.limit, "limit", 0, "keep only the most recent N matches")
}

func (f *traceFilterFlags) params() map[string]any {
	params := map[string]any{}
	if f.name != "" {
		params["name"] = f.name
	}
	if f.minDuration > 0 {
		params["minDurationMs"] = f.minDuration
	}
	if f.limit > 0 {
		params["limit"] = f.limit
	}
	if len(params) == 0 {
		return nil
	}
	return params
}

// fetchTraces pulls matching traces from a device.
func fetchTraces(ctx context.Context, client *coordinator.ControlClient, deviceID string, filter *traceFilterFlags) ([]trace.Entry, error) {
	raw, err := client.Send(ctx, deviceID, "get_traces", filter.params())
	if err != nil {
		return nil, err
	}
	var result struct {
		Traces []trace.Entry `json:"traces"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decoding traces: %w", err)
	}
	return result.Traces, nil
}

func tracesListCommand() *cli.Command {
	var connection connectionFlags
	var filter traceFilterFlags

	return &cli.Command{
		Name:    "list",
		Summary: "List completed traces",
		Usage:   "gantry traces list <device-id> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("list", pflag.ContinueOnError)
			connection.register(flags)
			filter.register(flags)
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: gantry traces list <device-id> [flags]")
			}
			return connection.withClient(func(ctx context.Context, client *coordinator.ControlClient) error {
				entries, err := fetchTraces(ctx, client, args[0], &filter)
				if err != nil {
					return err
				}
				if entries == nil {
					entries = []trace.Entry{}
				}
				return cli.WriteJSON(entries)
			})
		},
	}
}

func tracesInjectCommand() *cli.Command {
	var connection connectionFlags
	var logArgs, logReturn bool

	return &cli.Command{
		Name:    "inject",
		Summary: "Inject tracing for functions matching a wildcard pattern",
		Usage:   "gantry traces inject <device-id> <pattern> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("inject", pflag.ContinueOnError)
			connection.register(flags)
			flags.BoolVar(&logArgs, "log-args", false, "capture call arguments")
			flags.BoolVar(&logReturn, "log-return", false, "capture return values")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("usage: gantry traces inject <device-id> <pattern> [flags]")
			}
			params := map[string]any{
				"pattern":   args[1],
				"logArgs":   logArgs,
				"logReturn": logReturn,
			}
			return connection.withClient(func(ctx context.Context, client *coordinator.ControlClient) error {
				result, err := client.Send(ctx, args[0], "inject_trace", params)
				if err != nil {
					return err
				}
				return printRaw(result)
			})
		},
	}
}

func tracesExportCommand() *cli.Command {
	var connection connectionFlags
	var filter traceFilterFlags
	var compression string

	return &cli.Command{
		Name:    "export",
		Summary: "Export completed traces to a .gta archive",
		Usage:   "gantry traces export <device-id> <file> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("export", pflag.ContinueOnError)
			connection.register(flags)
			filter.register(flags)
			flags.StringVar(&compression, "compression", "zstd", "archive compression: none, lz4, or zstd")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("usage: gantry traces export <device-id> <file> [flags]")
			}
			tag, err := tracearchive.ParseCompressionTag(compression)
			if err != nil {
				return err
			}
			return connection.withClient(func(ctx context.Context, client *coordinator.ControlClient) error {
				entries, err := fetchTraces(ctx, client, args[0], &filter)
				if err != nil {
					return err
				}
				file, err := os.Create(args[1])
				if err != nil {
					return fmt.Errorf("creating archive: %w", err)
				}
				defer file.Close()
				if err := tracearchive.Write(file, entries, tag); err != nil {
					return fmt.Errorf("writing archive: %w", err)
				}
				fmt.Printf("exported %d traces to %s\n", len(entries), args[1])
				return nil
			})
		},
	}
}

func tracesClearCommand() *cli.Command {
	var connection connectionFlags

	return &cli.Command{
		Name:    "clear",
		Summary: "Clear a device's completed traces",
		Usage:   "gantry traces clear <device-id> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("clear", pflag.ContinueOnError)
			connection.register(flags)
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: gantry traces clear <device-id> [flags]")
			}
			return connection.withClient(func(ctx context.Context, client *coordinator.ControlClient) error {
				_, err := client.Send(ctx, args[0], "clear_traces", nil)
				return err
			})
		},
	}
}
