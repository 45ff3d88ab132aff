// Package httpx is the crawler's HTTP layer: a retrying fetcher that
// follows HTML meta-refresh redirects, and a bounded-concurrency
// downloader built on top of it.
package httpx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/net/html"

	"github.com/pdssp/pds-crawler/pkg/models"
)

// retryableStatus mirrors requests_retry_session's status_forcelist.
var retryableStatus = map[int]bool{500: true, 502: true, 504: true}

const maxMetaRefreshHops = 5

// Fetcher performs a single GET with exponential-backoff retries on
// retryable status codes and transport errors, then follows any HTML
// meta-refresh tag the response body carries.
type Fetcher struct {
	Client     *http.Client
	MaxRetries uint
}

// NewFetcher returns a Fetcher with the given per-request timeout and
// retry budget.
func NewFetcher(timeout time.Duration, maxRetries int) *Fetcher {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Fetcher{
		Client:     &http.Client{Timeout: timeout},
		MaxRetries: uint(maxRetries) + 1,
	}
}

// Get fetches url, retrying on retryable status codes, and follows up to
// maxMetaRefreshHops HTML meta-refresh redirects before returning the
// final response body.
func (f *Fetcher) Get(ctx context.Context, rawURL string) ([]byte, error) {
	body, err := f.getOnce(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	current := rawURL
	for hop := 0; hop < maxMetaRefreshHops; hop++ {
		next, ok := metaRefreshTarget(body)
		if !ok {
			break
		}
		current = resolveReference(current, next)
		body, err = f.getOnce(ctx, current)
		if err != nil {
			return nil, err
		}
	}
	return body, nil
}

// resolveReference resolves a meta-refresh target against the page it
// was found on, so a relative "url=/end" redirect still reaches the
// right host.
func resolveReference(base, ref string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}

func (f *Fetcher) getOnce(ctx context.Context, url string) ([]byte, error) {
	operation := func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("building request for %s: %w", url, err))
		}
		resp, err := f.Client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetching %s: %w", url, err)
		}
		defer resp.Body.Close()

		if retryableStatus[resp.StatusCode] {
			return nil, &models.FetchError{URL: url, StatusCode: resp.StatusCode, Explanation: fmt.Errorf("retryable status")}
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("reading body of %s: %w", url, err)
		}
		if resp.StatusCode >= 400 {
			return nil, backoff.Permanent(&models.FetchError{URL: url, StatusCode: resp.StatusCode, Explanation: fmt.Errorf("non-retryable status")})
		}
		return body, nil
	}

	expBackOff := backoff.NewExponentialBackOff()
	expBackOff.Multiplier = 3
	result, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(expBackOff),
		backoff.WithMaxTries(f.maxTries()),
	)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (f *Fetcher) maxTries() uint {
	if f.MaxRetries == 0 {
		return 4
	}
	return f.MaxRetries
}

// metaRefreshTarget scans an HTML document for
// <meta http-equiv="refresh" content="N;url=...">, returning the target
// URL and true if present.
func metaRefreshTarget(body []byte) (string, bool) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", false
	}
	var target string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if target != "" {
			return
		}
		if n.Type == html.ElementNode && strings.EqualFold(n.Data, "meta") {
			var httpEquiv, content string
			for _, a := range n.Attr {
				switch strings.ToLower(a.Key) {
				case "http-equiv":
					httpEquiv = a.Val
				case "content":
					content = a.Val
				}
			}
			if strings.EqualFold(httpEquiv, "refresh") {
				if u, ok := parseRefreshContent(content); ok {
					target = u
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return target, target != ""
}

// parseRefreshContent parses "N;url=TARGET" or "N; URL=TARGET".
func parseRefreshContent(content string) (string, bool) {
	parts := strings.SplitN(content, ";", 2)
	if len(parts) != 2 {
		return "", false
	}
	if _, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64); err != nil {
		return "", false
	}
	rest := strings.TrimSpace(parts[1])
	idx := strings.IndexByte(rest, '=')
	if idx < 0 || !strings.EqualFold(strings.TrimSpace(rest[:idx]), "url") {
		return "", false
	}
	url := strings.Trim(strings.TrimSpace(rest[idx+1:]), `"'`)
	if url == "" {
		return "", false
	}
	return url, true
}
