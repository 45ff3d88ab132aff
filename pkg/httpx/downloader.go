package httpx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// DownloadJob is one url-to-path mapping the Downloader is asked to
// fulfill.
type DownloadJob struct {
	URL  string
	Path string
}

// Downloader runs a bounded number of Fetcher.Get calls concurrently,
// skipping any job whose destination file already exists.
type Downloader struct {
	Fetcher     *Fetcher
	Concurrency int
}

// NewDownloader returns a Downloader backed by fetcher, running at most
// concurrency downloads at once.
func NewDownloader(fetcher *Fetcher, concurrency int) *Downloader {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Downloader{Fetcher: fetcher, Concurrency: concurrency}
}

// Download runs every job concurrently (bounded by d.Concurrency),
// skipping jobs whose Path already exists on disk. A failed job does not
// stop the others: every remaining job is still attempted, and the
// failures are returned together, joined with errors.Join.
func (d *Downloader) Download(ctx context.Context, jobs []DownloadJob) error {
	sem := semaphore.NewWeighted(int64(d.Concurrency))
	var g errgroup.Group
	var mu sync.Mutex
	var errs []error

	for _, job := range jobs {
		job := job
		if _, err := os.Stat(job.Path); err == nil {
			continue
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			return err
		}
		g.Go(func() error {
			defer sem.Release(1)
			if err := d.downloadOne(ctx, job); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

func (d *Downloader) downloadOne(ctx context.Context, job DownloadJob) error {
	body, err := d.Fetcher.Get(ctx, job.URL)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", job.URL, err)
	}
	if err := os.MkdirAll(filepath.Dir(job.Path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", job.Path, err)
	}
	if err := os.WriteFile(job.Path, body, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", job.Path, err)
	}
	return nil
}
