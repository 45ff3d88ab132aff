package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdssp/pds-crawler/pkg/models"
)

func TestStacSaveAndLoadNode(t *testing.T) {
	dir := t.TempDir()
	s := NewStac(dir)

	root := models.NewCatalogNode("root", "Root", "top of the tree")
	require.NoError(t, s.SaveNode(root))

	loaded, ok, err := s.LoadNode(root)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "top of the tree", loaded.Description)
}

func TestStacItemExistsAndSave(t *testing.T) {
	dir := t.TempDir()
	s := NewStac(dir)

	root := models.NewCatalogNode("root", "Root", "")
	collection := models.NewCollectionNode("urn:pdssp:pds:collection:ds1", "DS1", "")
	root.AddChild(collection)

	assert.False(t, s.ItemExists(collection, "item-1"))
	require.NoError(t, s.SaveItem(collection, &models.StacItem{ID: "item-1"}))
	assert.True(t, s.ItemExists(collection, "item-1"))
}

func TestShouldReplaceLongerDescriptionWins(t *testing.T) {
	short := models.NewCatalogNode("x", "X", "short")
	long := models.NewCatalogNode("x", "X", "a much longer description")

	assert.True(t, ShouldReplace(nil, short))
	assert.True(t, ShouldReplace(short, long))
	assert.False(t, ShouldReplace(long, short))
}

func TestStacSaveTreeWritesDescendantsAndItems(t *testing.T) {
	dir := t.TempDir()
	s := NewStac(dir)

	root := models.NewCatalogNode("root", "Root", "")
	collection := models.NewCollectionNode("urn:pdssp:pds:collection:ds1", "DS1", "")
	collection.AddItem(&models.StacItem{ID: "item-1"})
	root.AddChild(collection)

	require.NoError(t, s.SaveTree(root))
	assert.True(t, s.ItemExists(collection, "item-1"))

	_, ok, err := s.LoadNode(collection)
	require.NoError(t, err)
	assert.True(t, ok)
}
