package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdssp/pds-crawler/pkg/models"
)

func TestItemBucketIsStable(t *testing.T) {
	a := ItemBucket("urn:pdssp:pds:item:abc")
	b := ItemBucket("urn:pdssp:pds:item:abc")
	assert.Equal(t, a, b)
	assert.Len(t, a, 3)
}

func TestItemBucketSpreadsAcrossIDs(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		seen[ItemBucket(itoa(i)+"-item")] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestLargeDataVolumeStrategyRootNotNested(t *testing.T) {
	s := NewLargeDataVolumeStrategy("/data/stac")
	root := models.NewCatalogNode("root", "Root", "")
	assert.Equal(t, "/data/stac/catalog.json", s.CatalogPath(root))
}

func TestLargeDataVolumeStrategyNestsChildren(t *testing.T) {
	s := NewLargeDataVolumeStrategy("/data/stac")
	root := models.NewCatalogNode("root", "Root", "")
	mission := models.NewCatalogNode("urn:pdssp:pds:mission:VO1", "VO1", "")
	root.AddChild(mission)

	path := s.CatalogPath(mission)
	require.Contains(t, path, "urn_pdssp_pds_mission_vo1")
	assert.NotContains(t, path, "root")
}

func TestLargeDataVolumeStrategyItemPath(t *testing.T) {
	s := NewLargeDataVolumeStrategy("/data/stac")
	root := models.NewCatalogNode("root", "Root", "")
	collection := models.NewCollectionNode("urn:pdssp:pds:collection:ds1", "DS1", "")
	root.AddChild(collection)

	path := s.ItemPath(collection, "item-1")
	assert.NotContains(t, path, "items")
	assert.Contains(t, path, ItemBucket("item-1"))
	assert.Contains(t, path, "item_1.json")
}
