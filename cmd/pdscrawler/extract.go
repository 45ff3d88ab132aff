package main

import (
	"context"
	"strings"

	"github.com/urfave/cli/v3"
)

func extractCmd() *cli.Command {
	return &cli.Command{
		Name:  "extract",
		Usage: "fetch collection descriptors and record pages from ODE",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bodies", Usage: "comma-separated target bodies, e.g. mars,moon"},
			&cli.StringFlag{Name: "dataset_id", Usage: "restrict extraction to one dataset id"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			orc, finish, err := buildOrchestrator(cmd)
			if err != nil {
				return err
			}
			defer finish()

			bodies := orc.Config.Bodies
			if raw := cmd.String("bodies"); raw != "" {
				bodies = strings.Split(raw, ",")
			}
			datasetID := orc.Config.DatasetID
			if raw := cmd.String("dataset_id"); raw != "" {
				datasetID = raw
			}
			return orc.Extract(ctx, bodies, datasetID)
		},
	}
}
