package main

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"

	"github.com/pdssp/pds-crawler/pkg/config"
	"github.com/pdssp/pds-crawler/pkg/logging"
	"github.com/pdssp/pds-crawler/pkg/metrics"
	"github.com/pdssp/pds-crawler/pkg/orchestrator"
	"github.com/pdssp/pds-crawler/pkg/report"
)

// buildOrchestrator loads the run configuration named by --config (if
// any), wires the logger/metrics/report collaborators, and returns a
// ready-to-use Orchestrator plus a finish func callers must defer.
func buildOrchestrator(cmd *cli.Command) (*orchestrator.Orchestrator, func(), error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("loading configuration: %w", err)
	}

	logger := logging.New(cfg.LogLevel, nil)
	collector := report.NewCollector()
	sink := report.Multi{collector, report.ZerologSink{Logger: logger}}
	m := metrics.New(prometheus.NewRegistry())

	orc, err := orchestrator.New(cfg, logger, sink, m)
	if err != nil {
		return nil, nil, fmt.Errorf("wiring orchestrator: %w", err)
	}

	finish := func() {
		if cfg.ReportPath != "" && collector.Len() > 0 {
			_ = os.WriteFile(cfg.ReportPath, []byte(collector.Markdown()), 0o644)
		}
		_ = orc.Close()
	}
	return orc, finish, nil
}
