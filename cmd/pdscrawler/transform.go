package main

import (
	"context"

	"github.com/urfave/cli/v3"
)

func transformCmd() *cli.Command {
	return &cli.Command{
		Name:  "transform",
		Usage: "build the STAC tree from cached registry and record data",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			orc, finish, err := buildOrchestrator(cmd)
			if err != nil {
				return err
			}
			defer finish()
			return orc.Transform(ctx)
		},
	}
}
