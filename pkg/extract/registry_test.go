package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdssp/pds-crawler/pkg/httpx"
	"github.com/pdssp/pds-crawler/pkg/models"
	"github.com/pdssp/pds-crawler/pkg/storage"
)

func TestFilterByMissionPassesEverythingWhenEmpty(t *testing.T) {
	descs := []models.CollectionDescriptor{{HostID: "VO1"}, {HostID: "VO2"}}
	assert.Equal(t, descs, FilterByMission(descs, nil))
}

func TestFilterByMissionFiltersCaseInsensitively(t *testing.T) {
	descs := []models.CollectionDescriptor{{HostID: "VO1"}, {HostID: "VO2"}}
	filtered := FilterByMission(descs, []string{"vo1"})
	assert.Len(t, filtered, 1)
	assert.Equal(t, "VO1", filtered[0].HostID)
}

const twoSetFixture = `{
  "ODEResults": {
    "IIPTSets": {
      "IIPTSet": [
        {
          "IHID": "VO1", "IHName": "Viking Orbiter 1", "IID": "VISA", "IName": "Visual Imaging Subsystem",
          "PT": "EDR", "PTName": "Experiment Data Record", "DataSetId": "izenberg_pdart14_meap-data_tnmap",
          "NumberProducts": "42", "HasValidFootprint": "true", "ValidTargets": ["MARS"]
        },
        {
          "IHID": "VO1", "IHName": "Viking Orbiter 1", "IID": "VISB", "IName": "Visual Imaging Subsystem B",
          "PT": "RDR", "PTName": "Reduced Data Record", "DataSetId": "other-dataset",
          "NumberProducts": "7", "HasValidFootprint": "true", "ValidTargets": ["MARS"]
        }
      ]
    }
  }
}`

func newTestRegistry(t *testing.T, handler http.HandlerFunc) (*Registry, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	dir := t.TempDir()
	store, err := storage.OpenRegistry(filepath.Join(dir, "registry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	fetcher := httpx.NewFetcher(time.Second, 1)
	return NewRegistry(fetcher, server.URL, store, nil, nil), server
}

func TestBuildCollectionsURLUsesIIPTQueryShape(t *testing.T) {
	r, _ := newTestRegistry(t, func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(twoSetFixture))
	})

	u, err := url.Parse(r.buildCollectionsURL("mars"))
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "iipt", q.Get("query"))
	assert.Equal(t, "json", q.Get("output"))
	assert.Equal(t, "MARS", q.Get("odemetadb"))
}

func TestBuildCollectionsURLOmitsOdemetadbWhenBodyEmpty(t *testing.T) {
	r, _ := newTestRegistry(t, func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(twoSetFixture))
	})

	u, err := url.Parse(r.buildCollectionsURL(""))
	require.NoError(t, err)
	assert.False(t, u.Query().Has("odemetadb"))
}

func TestFetchCollectionsFiltersByDatasetID(t *testing.T) {
	r, _ := newTestRegistry(t, func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(twoSetFixture))
	})

	stats, descs, err := r.FetchCollections(context.Background(), "mars", "izenberg_pdart14_meap-data_tnmap")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 0, stats.Dropped)
	assert.Equal(t, 42, stats.Records)
	require.Len(t, descs, 1)
	assert.Equal(t, "izenberg_pdart14_meap-data_tnmap", descs[0].DatasetID)
}

func TestFetchCollectionsMatchesDatasetIDCaseInsensitively(t *testing.T) {
	r, _ := newTestRegistry(t, func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(twoSetFixture))
	})

	_, descs, err := r.FetchCollections(context.Background(), "mars", "IZENBERG_PDART14_MEAP-DATA_TNMAP")
	require.NoError(t, err)
	require.Len(t, descs, 1)
}

func TestFetchCollectionsNoFilterReturnsEverything(t *testing.T) {
	r, _ := newTestRegistry(t, func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(twoSetFixture))
	})

	stats, descs, err := r.FetchCollections(context.Background(), "mars", "")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 0, stats.Skipped)
	require.Len(t, descs, 2)
}

func TestCacheAndLoadPdsCollectionsRoundTrip(t *testing.T) {
	r, _ := newTestRegistry(t, func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(twoSetFixture))
	})

	_, descs, err := r.FetchCollections(context.Background(), "mars", "")
	require.NoError(t, err)

	saved, err := r.CachePdsCollections(descs)
	require.NoError(t, err)
	assert.True(t, saved)

	loaded, err := r.LoadPdsCollectionsFromCache("mars", "")
	require.NoError(t, err)
	assert.Len(t, loaded, 2)

	scoped, err := r.LoadPdsCollectionsFromCache("", "other-dataset")
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "other-dataset", scoped[0].DatasetID)
}

func TestQueryCacheFindsDatasetCaseInsensitively(t *testing.T) {
	r, _ := newTestRegistry(t, func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(twoSetFixture))
	})

	_, descs, err := r.FetchCollections(context.Background(), "mars", "")
	require.NoError(t, err)
	_, err = r.CachePdsCollections(descs)
	require.NoError(t, err)

	found, err := r.QueryCache("OTHER-DATASET")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "other-dataset", found.DatasetID)

	missing, err := r.QueryCache("does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
