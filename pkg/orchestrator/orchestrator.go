// Package orchestrator wires the extract and transform packages together
// behind the three verbs the CLI exposes: extract, transform, and
// check_update.
package orchestrator

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdssp/pds-crawler/pkg/config"
	"github.com/pdssp/pds-crawler/pkg/extract"
	"github.com/pdssp/pds-crawler/pkg/httpx"
	"github.com/pdssp/pds-crawler/pkg/metrics"
	"github.com/pdssp/pds-crawler/pkg/models"
	"github.com/pdssp/pds-crawler/pkg/odl"
	"github.com/pdssp/pds-crawler/pkg/report"
	"github.com/pdssp/pds-crawler/pkg/storage"
	"github.com/pdssp/pds-crawler/pkg/transform"
)

// Orchestrator owns every collaborator a run needs and exposes the verbs
// the command-line front end dispatches to.
type Orchestrator struct {
	Config config.Configuration
	Logger zerolog.Logger
	Sink   report.Sink

	Registry *storage.Registry
	Cache    *storage.FileCache
	Stac     *storage.Stac

	ExtractRegistry *extract.Registry
	ExtractRecords  *extract.Records
	Discovery       *extract.CatalogDiscovery

	TransformRecords  *transform.Records
	TransformCatalogs *transform.Catalogs

	Parser *odl.Parser
}

// New wires an Orchestrator from a resolved configuration.
func New(cfg config.Configuration, logger zerolog.Logger, sink report.Sink, m *metrics.Metrics) (*Orchestrator, error) {
	for _, dir := range []string{cfg.RegistryDir(), cfg.FileCacheDir(), cfg.StacDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	registry, err := storage.OpenRegistry(cfg.RegistryDir() + "/registry.db")
	if err != nil {
		return nil, err
	}
	cache := storage.NewFileCache(cfg.FileCacheDir())
	stac := storage.NewStac(cfg.StacDir())

	fetcher := httpx.NewFetcher(cfg.HTTPTimeout, cfg.MaxRetries)
	downloader := httpx.NewDownloader(fetcher, cfg.DownloadConcurrency)
	crawler := extract.NewCrawler(fetcher, sink)

	extractRegistry := extract.NewRegistry(fetcher, cfg.OdeBaseURL, registry, sink, m)
	extractRecords := extract.NewRecords(fetcher, downloader, cfg.OdeBaseURL, registry, cache, m)
	discovery := extract.NewCatalogDiscovery(crawler, cfg.OdeWebsiteBaseURL)

	parser := odl.NewParser()
	transformRecords := transform.NewRecords(extractRecords, stac, sink, m)
	transformCatalogs := transform.NewCatalogs(stac, sink)

	return &Orchestrator{
		Config:            cfg,
		Logger:            logger,
		Sink:              sink,
		Registry:          registry,
		Cache:             cache,
		Stac:              stac,
		ExtractRegistry:   extractRegistry,
		ExtractRecords:    extractRecords,
		Discovery:         discovery,
		TransformRecords:  transformRecords,
		TransformCatalogs: transformCatalogs,
		Parser:            parser,
	}, nil
}

// Close releases the orchestrator's held resources.
func (o *Orchestrator) Close() error { return o.Registry.Close() }

// Extract runs the extract verb: pull collection descriptors for every
// configured body (optionally restricted to one dataset id), cache them
// through Extract.Registry, and download their record pages.
func (o *Orchestrator) Extract(ctx context.Context, bodies []string, datasetID string) error {
	runID := uuid.NewString()
	logger := o.Logger.With().Str("run_id", runID).Str("verb", "extract").Logger()
	logger.Info().Strs("bodies", bodies).Str("dataset_id", datasetID).Msg("extract run starting")

	for _, body := range bodies {
		stats, descs, err := o.ExtractRegistry.FetchCollections(ctx, body, datasetID)
		if err != nil {
			return fmt.Errorf("extracting collections for %s: %w", body, err)
		}
		logger.Info().Str("body", body).Int("total", stats.Total).Int("dropped", stats.Dropped).
			Int("skipped", stats.Skipped).Int("records", stats.Records).Msg("collections fetched")

		descs = extract.FilterByMission(descs, o.Config.Missions)
		if _, err := o.ExtractRegistry.CachePdsCollections(descs); err != nil {
			return fmt.Errorf("caching collections for %s: %w", body, err)
		}
		for _, d := range descs {
			if err := o.ExtractRecords.DownloadCollection(ctx, d); err != nil {
				logger.Warn().Err(err).Str("collection", d.String()).Msg("record download failed")
				if o.Sink != nil {
					o.Sink.Report(d.String(), err)
				}
			}
		}
	}
	logger.Info().Msg("extract run complete")
	return nil
}

// Transform runs the transform verb: build the STAC catalog tree for
// every collection in the registry and convert their cached records into
// STAC items.
func (o *Orchestrator) Transform(ctx context.Context) error {
	runID := uuid.NewString()
	logger := o.Logger.With().Str("run_id", runID).Str("verb", "transform").Logger()

	descs, err := o.Registry.LoadCollections("", o.Config.DatasetID)
	if err != nil {
		return fmt.Errorf("loading collections: %w", err)
	}
	root := models.NewCatalogNode(models.NewURN("catalog", "root"), "PDS/ODE mirror", "Materialized STAC mirror of ODE/PDS3 archives.")

	for _, d := range descs {
		collection, err := o.TransformCatalogs.Build(ctx, root, d, o.Cache, o.Parser)
		if err != nil {
			logger.Warn().Err(err).Str("collection", d.String()).Msg("catalog build failed")
			continue
		}
		if _, err := o.TransformRecords.Run(collection, d); err != nil {
			logger.Warn().Err(err).Str("collection", d.String()).Msg("record transform failed")
		}
	}
	logger.Info().Int("collections", len(descs)).Msg("transform run complete")
	return o.Stac.SaveTree(root)
}

// CheckCollectionsToIngest re-fetches the live collection descriptors for
// bodies (optionally restricted to one dataset id) and returns the subset
// that are new or whose ProductCount has changed since the last registry
// snapshot.
func (o *Orchestrator) CheckCollectionsToIngest(ctx context.Context, bodies []string, datasetID string) ([]models.CollectionDescriptor, error) {
	known, err := o.Registry.LoadCollections("", datasetID)
	if err != nil {
		return nil, err
	}
	knownCounts := map[string]int{}
	for _, d := range known {
		knownCounts[d.IdentityPath()] = d.ProductCount
	}

	var toIngest []models.CollectionDescriptor
	for _, body := range bodies {
		_, live, err := o.ExtractRegistry.FetchCollections(ctx, body, datasetID)
		if err != nil {
			return nil, err
		}
		for _, d := range extract.FilterByMission(live, o.Config.Missions) {
			if count, ok := knownCounts[d.IdentityPath()]; !ok || count != d.ProductCount {
				toIngest = append(toIngest, d)
			}
		}
	}
	return toIngest, nil
}

// CheckUpdates is CheckCollectionsToIngest scoped to the configuration's
// configured bodies and dataset id, the entry point the "check_update" CLI
// verb uses.
func (o *Orchestrator) CheckUpdates(ctx context.Context) ([]models.CollectionDescriptor, error) {
	return o.CheckCollectionsToIngest(ctx, o.Config.Bodies, o.Config.DatasetID)
}
