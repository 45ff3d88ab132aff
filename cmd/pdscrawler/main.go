// Command pdscrawler mirrors ODE/PDS3 planetary archives into a locally
// materialized STAC tree.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "pdscrawler",
		Usage: "mirror ODE/PDS3 archives into a STAC tree",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "path to a YAML configuration overlay"},
		},
		Commands: []*cli.Command{
			extractCmd(),
			transformCmd(),
			checkUpdateCmd(),
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "pdscrawler:", err)
		os.Exit(1)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
