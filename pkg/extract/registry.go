// Package extract pulls raw collection and record descriptions out of the
// ODE REST service and ODE archive website, ahead of transform converting
// them into the STAC tree.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/pdssp/pds-crawler/pkg/httpx"
	"github.com/pdssp/pds-crawler/pkg/metrics"
	"github.com/pdssp/pds-crawler/pkg/models"
	"github.com/pdssp/pds-crawler/pkg/report"
	"github.com/pdssp/pds-crawler/pkg/storage"
)

// Registry extracts CollectionDescriptor records from ODE's IIPT
// ("instrument host / instrument / product type") collections query, and
// caches them through Store.
type Registry struct {
	Fetcher *httpx.Fetcher
	BaseURL string
	Store   *storage.Registry
	Sink    report.Sink
	Metrics *metrics.Metrics
}

// NewRegistry returns a Registry querying baseURL with fetcher and
// caching results in store.
func NewRegistry(fetcher *httpx.Fetcher, baseURL string, store *storage.Registry, sink report.Sink, m *metrics.Metrics) *Registry {
	return &Registry{Fetcher: fetcher, BaseURL: baseURL, Store: store, Sink: sink, Metrics: m}
}

type odeIIPTResponse struct {
	ODEResults struct {
		IIPTSets struct {
			IIPTSet []models.IIPTSet `json:"IIPTSet"`
		} `json:"IIPTSets"`
	} `json:"ODEResults"`
}

// CollectionStats summarizes one FetchCollections call: how many IIPTSet
// entries the response carried, how many were dropped for failing a
// CollectionDescriptor invariant, how many were excluded by the datasetID
// filter, and the total ProductCount of what was kept.
type CollectionStats struct {
	Total   int
	Dropped int
	Skipped int
	Records int
}

func (r *Registry) buildCollectionsURL(body string) string {
	q := url.Values{}
	q.Set("query", "iipt")
	q.Set("output", "json")
	if body != "" {
		q.Set("odemetadb", strings.ToUpper(body))
	}
	return fmt.Sprintf("%s?%s", r.BaseURL, q.Encode())
}

// FetchCollections queries ODE for every collection known for body
// ("mars", "moon", ... or "" for every body), optionally restricted to
// one dataset id (case-insensitive, applied post-parse). A descriptor
// that fails validation is reported to the Sink, dropped, and counted in
// the returned stats rather than failing the whole call.
func (r *Registry) FetchCollections(ctx context.Context, body, datasetID string) (CollectionStats, []models.CollectionDescriptor, error) {
	reqURL := r.buildCollectionsURL(body)
	raw, err := r.Fetcher.Get(ctx, reqURL)
	if err != nil {
		if r.Metrics != nil {
			r.Metrics.FetchErrors.Inc()
		}
		return CollectionStats{}, nil, fmt.Errorf("fetching collections for %s: %w", body, err)
	}

	var resp odeIIPTResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		if r.Metrics != nil {
			r.Metrics.ParseErrors.Inc()
		}
		return CollectionStats{}, nil, &models.ParseError{Resource: reqURL, Explanation: err}
	}

	stats := CollectionStats{Total: len(resp.ODEResults.IIPTSets.IIPTSet)}
	var out []models.CollectionDescriptor
	for _, iipt := range resp.ODEResults.IIPTSets.IIPTSet {
		d := models.NewCollectionDescriptorFromIIPTSet(body, iipt)
		if datasetID != "" && !strings.EqualFold(d.DatasetID, datasetID) {
			stats.Skipped++
			continue
		}
		if err := d.Validate(); err != nil {
			stats.Dropped++
			if r.Sink != nil {
				r.Sink.Report(d.String(), err)
			}
			continue
		}
		stats.Records += d.ProductCount
		out = append(out, d)
		if r.Metrics != nil {
			r.Metrics.CollectionsExtracted.Inc()
		}
	}
	return stats, out, nil
}

// CachePdsCollections persists descs via Store, returning the AND-fold of
// each descriptor's save (true only if every one of them was new or
// changed).
func (r *Registry) CachePdsCollections(descs []models.CollectionDescriptor) (bool, error) {
	return r.Store.SaveCollections(descs)
}

// LoadPdsCollectionsFromCache returns the descriptors already cached in
// Store, restricted to body and datasetID when non-empty.
func (r *Registry) LoadPdsCollectionsFromCache(body, datasetID string) ([]models.CollectionDescriptor, error) {
	return r.Store.LoadCollections(body, datasetID)
}

// QueryCache returns the first cached descriptor whose DatasetID matches
// datasetID case-insensitively, or nil if none is cached.
func (r *Registry) QueryCache(datasetID string) (*models.CollectionDescriptor, error) {
	descs, err := r.Store.LoadCollections("", "")
	if err != nil {
		return nil, err
	}
	for _, d := range descs {
		if strings.EqualFold(d.DatasetID, datasetID) {
			return &d, nil
		}
	}
	return nil, nil
}

// FilterByMission restricts descs to those whose HostID is in missions
// (case-insensitive). An empty missions list passes everything through.
func FilterByMission(descs []models.CollectionDescriptor, missions []string) []models.CollectionDescriptor {
	if len(missions) == 0 {
		return descs
	}
	allow := map[string]bool{}
	for _, m := range missions {
		allow[strings.ToUpper(m)] = true
	}
	var out []models.CollectionDescriptor
	for _, d := range descs {
		if allow[strings.ToUpper(d.HostID)] {
			out = append(out, d)
		}
	}
	return out
}
