package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdssp/pds-crawler/pkg/models"
)

func openTestRegistry(t *testing.T) *Registry {
	t.Helper()
	dir := t.TempDir()
	r, err := OpenRegistry(filepath.Join(dir, "registry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRegistrySaveAndLoadCollections(t *testing.T) {
	r := openTestRegistry(t)
	d := models.CollectionDescriptor{
		Body: "mars", HostID: "vo1", InstrumentID: "visa", ProductType: "edr", DatasetID: "ds1",
		ProductCount: 5, HasValidFootprints: true,
	}
	saved, err := r.SaveCollection(d)
	require.NoError(t, err)
	assert.True(t, saved)

	loaded, err := r.LoadCollections("", "")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, d.DatasetID, loaded[0].DatasetID)
	assert.Equal(t, d.ProductCount, loaded[0].ProductCount)
}

func TestRegistrySaveCollectionReturnsFalseWhenUnchanged(t *testing.T) {
	r := openTestRegistry(t)
	d := models.CollectionDescriptor{
		Body: "mars", HostID: "vo1", InstrumentID: "visa", ProductType: "edr", DatasetID: "ds1",
		ProductCount: 5, HasValidFootprints: true,
	}
	first, err := r.SaveCollection(d)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := r.SaveCollection(d)
	require.NoError(t, err)
	assert.False(t, second)

	changed := d
	changed.ProductCount = 6
	third, err := r.SaveCollection(changed)
	require.NoError(t, err)
	assert.True(t, third)
}

func TestRegistryLoadCollectionsFiltersCaseInsensitively(t *testing.T) {
	r := openTestRegistry(t)
	mars := models.CollectionDescriptor{
		Body: "mars", HostID: "vo1", InstrumentID: "a", ProductType: "edr", DatasetID: "ds1", ProductCount: 1, HasValidFootprints: true,
	}
	moon := models.CollectionDescriptor{
		Body: "moon", HostID: "lro", InstrumentID: "b", ProductType: "edr", DatasetID: "ds2", ProductCount: 2, HasValidFootprints: true,
	}
	_, err := r.SaveCollections([]models.CollectionDescriptor{mars, moon})
	require.NoError(t, err)

	byBody, err := r.LoadCollections("MARS", "")
	require.NoError(t, err)
	require.Len(t, byBody, 1)
	assert.Equal(t, "ds1", byBody[0].DatasetID)

	byDataset, err := r.LoadCollections("", "DS2")
	require.NoError(t, err)
	require.Len(t, byDataset, 1)
	assert.Equal(t, "moon", byDataset[0].Body)
}

func TestRegistrySaveCollectionsBatch(t *testing.T) {
	r := openTestRegistry(t)
	ds := []models.CollectionDescriptor{
		{Body: "mars", HostID: "vo1", InstrumentID: "a", ProductType: "edr", DatasetID: "ds1", ProductCount: 1, HasValidFootprints: true},
		{Body: "mars", HostID: "vo1", InstrumentID: "b", ProductType: "edr", DatasetID: "ds2", ProductCount: 2, HasValidFootprints: true},
	}
	saved, err := r.SaveCollections(ds)
	require.NoError(t, err)
	assert.True(t, saved)

	loaded, err := r.LoadCollections("", "")
	require.NoError(t, err)
	assert.Len(t, loaded, 2)

	saved, err = r.SaveCollections(ds)
	require.NoError(t, err)
	assert.False(t, saved)
}

func TestRegistryUrlsRoundTrip(t *testing.T) {
	r := openTestRegistry(t)
	tokens := []string{"mars", "vo1", "visa", "edr", "ds1"}

	empty, err := r.LoadUrls(tokens)
	require.NoError(t, err)
	assert.Empty(t, empty)

	urls := []string{"https://example.org/a", "https://example.org/b"}
	require.NoError(t, r.SaveUrls(tokens, urls))

	loaded, err := r.LoadUrls(tokens)
	require.NoError(t, err)
	assert.Equal(t, urls, loaded)
}

func TestRegistrySaveUrlsNoopOnSameMultiset(t *testing.T) {
	r := openTestRegistry(t)
	tokens := []string{"mars", "vo1", "visa", "edr", "ds1"}

	urls := []string{"https://example.org/a", "https://example.org/b"}
	require.NoError(t, r.SaveUrls(tokens, urls))

	reordered := []string{"https://example.org/b", "https://example.org/a"}
	require.NoError(t, r.SaveUrls(tokens, reordered))

	loaded, err := r.LoadUrls(tokens)
	require.NoError(t, err)
	assert.Equal(t, urls, loaded)
}
