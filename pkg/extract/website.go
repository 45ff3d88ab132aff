package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/pdssp/pds-crawler/pkg/httpx"
	"github.com/pdssp/pds-crawler/pkg/models"
	"github.com/pdssp/pds-crawler/pkg/report"
)

// Crawler fetches and parses the ODE archive website's plain directory
// listings: apache-style tables of <a href="..."> entries.
type Crawler struct {
	Fetcher *httpx.Fetcher
	Sink    report.Sink
}

// NewCrawler returns a Crawler using fetcher. sink is stored on the
// Crawler; no Crawler method reports to it.
func NewCrawler(fetcher *httpx.Fetcher, sink report.Sink) *Crawler {
	return &Crawler{Fetcher: fetcher, Sink: sink}
}

// IsFile reports whether url names a file rather than a directory, going
// by the presence of a "." after the final path separator.
func (c *Crawler) IsFile(url string) bool {
	last := url
	if idx := strings.LastIndexByte(url, '/'); idx >= 0 {
		last = url[idx+1:]
	}
	return strings.Contains(last, ".")
}

// emptyFolderMarker is the literal string ODE's directory listing page
// renders for an empty archive folder. Matching it as a substring is
// brittle against any future ODE UI wording change, but it's what the
// website actually emits and there is no structured signal to key off.
const emptyFolderMarker = "No files exist in this folder"

// FetchDirectoryListing GETs url and returns the href of every <a>
// element anywhere on the page, except "../". The result is not limited
// to the directory table, and anchors that carry a title attribute are
// kept. It returns EmptyFolderError if the page reports no files, without
// treating that as a fetch failure.
func (c *Crawler) FetchDirectoryListing(ctx context.Context, url string) ([]string, error) {
	raw, err := c.Fetcher.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	if strings.Contains(string(raw), emptyFolderMarker) {
		return nil, &models.EmptyFolderError{URL: url}
	}
	doc, err := html.Parse(strings.NewReader(string(raw)))
	if err != nil {
		return nil, &models.ParseError{Resource: url, Explanation: err}
	}
	var hrefs []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, a := range n.Attr {
				if a.Key == "href" && a.Val != "" && a.Val != "../" {
					hrefs = append(hrefs, a.Val)
				}
			}
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(doc)
	return hrefs, nil
}

// discoveryState names one state of the CatalogDiscovery machine.
type discoveryState int

const (
	stateNeedSample discoveryState = iota
	stateBuildURL
	stateFindVolDesc
	stateResolveVolumeID
	stateFetchVolDesc
	stateListCatalogDir
	stateResolveChildren
	stateDone
)

const maxVolumeIDAttempts = 6

// CatalogDiscovery walks a collection's archive volume from a single
// sample record down to its resolved MISSION/INSTHOST/INSTRUMENT/DATASET/
// REFERENCE/PERSONNEL catalog file URLs, as an explicit state machine
// rather than recursive directory-walking: ODE's volume-id-to-path
// mapping needs a small amount of backtracking (stateResolveVolumeID
// loops back to stateBuildURL) that reads far more clearly as states than
// as nested retries.
type CatalogDiscovery struct {
	Crawler *Crawler
	BaseURL string
}

// NewCatalogDiscovery returns a CatalogDiscovery crawling under baseURL.
func NewCatalogDiscovery(crawler *Crawler, baseURL string) *CatalogDiscovery {
	return &CatalogDiscovery{Crawler: crawler, BaseURL: baseURL}
}

// GetOdeCatalogs drives the state machine for one collection, given a
// sample record's relative-path-to-volume hint, and returns catalog URLs
// keyed by kind: "voldesc" for VOLDESC.CAT, plus one entry per kind that
// classifyCatalogFile recognises among the file names listed in the
// catalog/ directory (or in the volume directory when catalog/ is empty).
// The CATALOG entries of the volume description are not read, and when
// two listed files map to the same kind the later one is kept.
func (cd *CatalogDiscovery) GetOdeCatalogs(ctx context.Context, d models.CollectionDescriptor, sampleRelativePath string) (map[string]string, error) {
	state := stateNeedSample
	var volumeDir string
	var volDescURL string
	var catalogDirURL string
	volumeIDAttempts := 0
	candidateVolumeID := ""

	for state != stateDone {
		switch state {
		case stateNeedSample:
			if sampleRelativePath == "" {
				return nil, fmt.Errorf("no sample record available to seed catalog discovery for %s", d)
			}
			candidateVolumeID = firstPathSegment(sampleRelativePath)
			state = stateBuildURL

		case stateBuildURL:
			volumeDir = fmt.Sprintf("%s/%s/%s/%s/%s", cd.BaseURL, strings.ToLower(d.Body), strings.ToLower(d.HostID), strings.ToLower(d.InstrumentID), candidateVolumeID)
			state = stateFindVolDesc

		case stateFindVolDesc:
			entries, err := cd.Crawler.FetchDirectoryListing(ctx, volumeDir+"/")
			if isEmptyFolder(err) {
				state = stateResolveVolumeID
				continue
			}
			if err != nil {
				return nil, err
			}
			found := ""
			for _, e := range entries {
				if strings.EqualFold(e, "voldesc.cat") {
					found = e
				}
			}
			if found == "" {
				state = stateResolveVolumeID
				continue
			}
			volDescURL = volumeDir + "/" + found
			state = stateFetchVolDesc

		case stateResolveVolumeID:
			volumeIDAttempts++
			if volumeIDAttempts > maxVolumeIDAttempts {
				return nil, fmt.Errorf("could not resolve a volume id for %s after %d attempts", d, maxVolumeIDAttempts)
			}
			candidateVolumeID = nextVolumeIDGuess(candidateVolumeID, volumeIDAttempts)
			state = stateBuildURL

		case stateFetchVolDesc:
			// The actual VOLDESC.CAT bytes are parsed by pkg/odl; this
			// state only confirms the catalog directory to list next.
			catalogDirURL = volumeDir + "/catalog"
			state = stateListCatalogDir

		case stateListCatalogDir:
			entries, err := cd.Crawler.FetchDirectoryListing(ctx, catalogDirURL+"/")
			if isEmptyFolder(err) {
				// Some volumes keep catalog files alongside VOLDESC.CAT
				// instead of in a catalog/ subdirectory.
				catalogDirURL = volumeDir
				entries, err = cd.Crawler.FetchDirectoryListing(ctx, catalogDirURL+"/")
			}
			if err != nil {
				return nil, err
			}
			urls := map[string]string{"voldesc": volDescURL}
			for _, e := range entries {
				if kw, ok := classifyCatalogFile(e); ok {
					urls[kw] = catalogDirURL + "/" + e
				}
			}
			return urls, nil
		}
	}
	return nil, fmt.Errorf("catalog discovery for %s ended without resolving", d)
}

func isEmptyFolder(err error) bool {
	var empty *models.EmptyFolderError
	return errors.As(err, &empty)
}

func firstPathSegment(relativePath string) string {
	trimmed := strings.TrimPrefix(relativePath, "/")
	if idx := strings.IndexByte(trimmed, '/'); idx >= 0 {
		return trimmed[:idx]
	}
	return trimmed
}

// nextVolumeIDGuess tries a short list of ODE's historical volume-id
// renaming conventions when the first guess's directory doesn't exist:
// lowercase on attempt 1, uppercase on attempt 2, trailing-character
// strip on attempt 3, and an appended "x" on every later attempt.
func nextVolumeIDGuess(previous string, attempt int) string {
	switch attempt {
	case 1:
		return strings.ToLower(previous)
	case 2:
		return strings.ToUpper(previous)
	case 3:
		if len(previous) > 1 {
			return previous[:len(previous)-1]
		}
		return previous
	default:
		return previous + "x"
	}
}

func classifyCatalogFile(name string) (string, bool) {
	upper := strings.ToUpper(name)
	switch {
	case strings.Contains(upper, "MISSION"):
		return "mission", true
	case strings.Contains(upper, "HOST"):
		return "instrument_host", true
	case strings.Contains(upper, "INST") && !strings.Contains(upper, "HOST"):
		return "instrument", true
	case strings.Contains(upper, "DATASET") || strings.Contains(upper, "DSTARC"):
		return "dataset", true
	case strings.Contains(upper, "REF"):
		return "reference", true
	case strings.Contains(upper, "PERSON"):
		return "personnel", true
	}
	return "", false
}
