// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/gantry-dev/gantry/cmd/gantry/cli"
	"github.com/gantry-dev/gantry/coordinator"
)

func sessionsCommand() *cli.Command {
	var connection connectionFlags
	var asJSON bool

	return &cli.Command{
		Name:    "sessions",
		Summary: "List connected applications",
		Usage:   "gantry sessions [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("sessions", pflag.ContinueOnError)
			connection.register(flags)
			flags.BoolVar(&asJSON, "json", false, "output as JSON")
			return flags
		},
		Run: func(args []string) error {
			return connection.withClient(func(ctx context.Context, client *coordinator.ControlClient) error {
				sessions, err := client.Sessions(ctx)
				if err != nil {
					return err
				}
				if asJSON {
					if sessions == nil {
						sessions = []coordinator.SessionInfo{}
					}
					return cli.WriteJSON(sessions)
				}
				if len(sessions) == 0 {
					fmt.Println("no connected applications")
					return nil
				}
				tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
				fmt.Fprintln(tw, "DEVICE\tAPP\tVERSION\tPLATFORM\tCONNECTED\tLAST ACTIVITY")
				for _, session := range sessions {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s %s\t%s\t%s\n",
						session.DeviceID,
						session.AppName,
						session.AppVersion,
						session.Platform,
						session.OSVersion,
						session.ConnectedAt.Format("15:04:05"),
						session.LastActivity.Format("15:04:05"),
					)
				}
				return tw.Flush()
			})
		},
	}
}
