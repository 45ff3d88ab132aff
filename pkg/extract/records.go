package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/url"
	"os"
	"strconv"

	"github.com/pdssp/pds-crawler/pkg/httpx"
	"github.com/pdssp/pds-crawler/pkg/metrics"
	"github.com/pdssp/pds-crawler/pkg/models"
	"github.com/pdssp/pds-crawler/pkg/storage"
)

const recordsPageSize = 100

// Records pregenerates and downloads the paginated ODE record pages for
// a collection, and streams the parsed records back out of the file
// cache.
type Records struct {
	Fetcher    *httpx.Fetcher
	Downloader *httpx.Downloader
	BaseURL    string
	Registry   *storage.Registry
	Cache      *storage.FileCache
	Metrics    *metrics.Metrics
}

// NewRecords wires a Records extractor from its collaborators.
func NewRecords(fetcher *httpx.Fetcher, downloader *httpx.Downloader, baseURL string, registry *storage.Registry, cache *storage.FileCache, m *metrics.Metrics) *Records {
	return &Records{Fetcher: fetcher, Downloader: downloader, BaseURL: baseURL, Registry: registry, Cache: cache, Metrics: m}
}

// PregenerateUrls builds every paginated record-query URL a collection's
// ProductCount implies, caching the list in the registry so repeated
// runs against an unchanged collection don't recompute it.
func (r *Records) PregenerateUrls(d models.CollectionDescriptor) ([]string, error) {
	pages := (d.ProductCount + recordsPageSize - 1) / recordsPageSize
	if cached, err := r.Registry.LoadUrls(d.IdentityTokens()); err == nil && len(cached) > 0 && len(cached) == pages {
		return cached, nil
	}

	var urls []string
	for offset := 0; offset < d.ProductCount; offset += recordsPageSize {
		urls = append(urls, r.buildRecordsURL(d, offset, recordsPageSize))
	}
	if err := r.Registry.SaveUrls(d.IdentityTokens(), urls); err != nil {
		return nil, fmt.Errorf("caching record urls for %s: %w", d, err)
	}
	return urls, nil
}

// buildRecordsURL builds one paginated records query URL using the
// fixed parameter set the ODE records API requires
// (query=product, results=copmf) alongside the collection's identity and
// the page's offset/limit.
func (r *Records) buildRecordsURL(d models.CollectionDescriptor, offset, limit int) string {
	q := url.Values{}
	q.Set("query", "product")
	q.Set("results", "copmf")
	q.Set("output", "json")
	q.Set("target", d.Body)
	q.Set("ihid", d.HostID)
	q.Set("iid", d.InstrumentID)
	q.Set("pt", d.ProductType)
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))
	return fmt.Sprintf("%s?%s", r.BaseURL, q.Encode())
}

// DownloadCollection downloads every record page a collection's
// pregenerated URL list names, skipping pages already present in the
// file cache.
func (r *Records) DownloadCollection(ctx context.Context, d models.CollectionDescriptor) error {
	urls, err := r.PregenerateUrls(d)
	if err != nil {
		return err
	}
	return r.DownloadBatch(ctx, d, urls)
}

// DownloadBatch downloads exactly the given urls for collection d.
func (r *Records) DownloadBatch(ctx context.Context, d models.CollectionDescriptor, urls []string) error {
	jobs := make([]httpx.DownloadJob, 0, len(urls))
	for _, u := range urls {
		path, err := r.Cache.ComputeDownloadedFilePath(d, u)
		if err != nil {
			return err
		}
		jobs = append(jobs, httpx.DownloadJob{URL: u, Path: path})
	}
	return r.Downloader.Download(ctx, jobs)
}

type odeRecordsResponse struct {
	ODEResults struct {
		Products struct {
			Product []models.RecordDescriptor `json:"Product"`
		} `json:"Products"`
	} `json:"ODEResults"`
}

// StreamPages lazily decodes every cached record page of d and yields
// each RecordDescriptor found, along with a per-page decode error where
// relevant. A CorruptedCacheFileError on one page does not stop the
// remaining pages from being yielded.
func (r *Records) StreamPages(d models.CollectionDescriptor) iter.Seq2[models.RecordDescriptor, error] {
	return func(yield func(models.RecordDescriptor, error) bool) {
		files, err := r.Cache.ListRecordFiles(d)
		if err != nil {
			yield(models.RecordDescriptor{}, err)
			return
		}
		for _, path := range files {
			raw, err := os.ReadFile(path)
			if err != nil {
				if !yield(models.RecordDescriptor{}, fmt.Errorf("reading %s: %w", path, err)) {
					return
				}
				continue
			}
			var page odeRecordsResponse
			if err := json.Unmarshal(raw, &page); err != nil {
				if r.Metrics != nil {
					r.Metrics.ParseErrors.Inc()
				}
				if !yield(models.RecordDescriptor{}, &models.CorruptedCacheFileError{Path: path, Explanation: err}) {
					return
				}
				continue
			}
			for _, rec := range page.ODEResults.Products.Product {
				if !yield(rec, nil) {
					return
				}
			}
		}
	}
}
