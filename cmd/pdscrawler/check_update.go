package main

import (
	"context"

	"github.com/urfave/cli/v3"
)

func checkUpdateCmd() *cli.Command {
	return &cli.Command{
		Name:  "check_update",
		Usage: "report collections that are new or changed since the last extract",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			orc, finish, err := buildOrchestrator(cmd)
			if err != nil {
				return err
			}
			defer finish()

			toIngest, err := orc.CheckUpdates(ctx)
			if err != nil {
				return err
			}
			return printJSON(toIngest)
		},
	}
}
