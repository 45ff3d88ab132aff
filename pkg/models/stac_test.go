package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStacNodeTreeNavigation(t *testing.T) {
	root := NewCatalogNode("root", "Root", "")
	mission := NewCatalogNode("mission", "Mission", "")
	collection := NewCollectionNode("collection", "Collection", "")

	root.AddChild(mission)
	mission.AddChild(collection)

	assert.Same(t, root, mission.Parent())
	assert.Same(t, mission, collection.Parent())
	assert.Nil(t, root.Parent())

	found := root.GetChild("collection")
	require.NotNil(t, found)
	assert.Equal(t, collection, found)

	assert.Nil(t, root.GetChild("missing"))
}

func TestStacNodeDescriptionLength(t *testing.T) {
	n := NewCatalogNode("x", "X", "a short description")
	assert.Equal(t, len("a short description"), n.DescriptionLength())
}

func TestStacNodeAddItem(t *testing.T) {
	collection := NewCollectionNode("c", "C", "")
	item := &StacItem{ID: "item-1"}
	collection.AddItem(item)
	assert.Same(t, item, collection.Items["item-1"])
}

func TestNewURN(t *testing.T) {
	assert.Equal(t, "urn:pdssp:pds:mission:VO1", NewURN("mission", "VO1"))
}
