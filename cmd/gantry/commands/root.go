// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands assembles the gantry CLI command tree.
package commands

import (
	"github.com/gantry-dev/gantry/cmd/gantry/cli"
)

// Root returns the top-level gantry command.
func Root() *cli.Command {
	return &cli.Command{
		Name:    "gantry",
		Summary: "Inspect and manipulate applications connected to a gantry coordinator",
		Description: "gantry talks to a coordinator's control endpoint to observe and\n" +
			"manipulate running applications: state, actions, feature flags,\n" +
			"traces, logs, and network mocks.",
		Subcommands: []*cli.Command{
			sessionsCommand(),
			sendCommand(),
			stateCommand(),
			actionCommand(),
			flagsCommand(),
			tracesCommand(),
			logsCommand(),
		},
	}
}
