package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdssp/pds-crawler/pkg/models"
)

// Stac materializes the in-memory STAC tree to disk, using a
// LargeDataVolumeStrategy to decide where each node and item lands.
type Stac struct {
	strategy *LargeDataVolumeStrategy
}

// NewStac returns a Stac tree writer rooted at dir.
func NewStac(dir string) *Stac {
	return &Stac{strategy: NewLargeDataVolumeStrategy(dir)}
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	blob, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func readJSON(path string, v any) (bool, error) {
	blob, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(blob, v); err != nil {
		return false, fmt.Errorf("decoding %s: %w", path, err)
	}
	return true, nil
}

// SaveNode writes a single catalog or collection node's own document
// (not its children or items) to its strategy-assigned path.
func (s *Stac) SaveNode(node *models.StacNode) error {
	if node.Kind == models.KindCollection {
		return writeJSON(s.strategy.CollectionPath(node), node)
	}
	return writeJSON(s.strategy.CatalogPath(node), node)
}

// LoadNode reads back a previously saved node. The file's position in the
// tree is resolved from the node's kind, id and its whole parent chain, so
// node must already be linked under the same ancestors it was saved with;
// title/description are filled from disk.
func (s *Stac) LoadNode(node *models.StacNode) (*models.StacNode, bool, error) {
	path := s.strategy.CatalogPath(node)
	if node.Kind == models.KindCollection {
		path = s.strategy.CollectionPath(node)
	}
	loaded := &models.StacNode{Kind: node.Kind, Children: map[string]*models.StacNode{}}
	if node.Kind == models.KindCollection {
		loaded.Items = map[string]*models.StacItem{}
	}
	ok, err := readJSON(path, loaded)
	if err != nil || !ok {
		return nil, ok, err
	}
	return loaded, true, nil
}

// ShouldReplace implements the "longer description wins" update
// heuristic: a freshly extracted node only overwrites an existing one on
// disk when its description is strictly longer.
func ShouldReplace(existing, candidate *models.StacNode) bool {
	if existing == nil {
		return true
	}
	return candidate.DescriptionLength() > existing.DescriptionLength()
}

// ItemExists reports whether an item has already been materialized under
// collection, without parsing its contents.
func (s *Stac) ItemExists(collection *models.StacNode, itemID string) bool {
	_, err := os.Stat(s.strategy.ItemPath(collection, itemID))
	return err == nil
}

// SaveItem writes one item belonging to collection. Callers are expected
// to have already checked ItemExists when skip-if-present semantics are
// wanted; SaveItem itself always overwrites.
func (s *Stac) SaveItem(collection *models.StacNode, item *models.StacItem) error {
	return writeJSON(s.strategy.ItemPath(collection, item.ID), item)
}

// SaveTree recursively persists node, its descendants, and every
// collection's items, applying ShouldReplace against whatever is already
// on disk at each node.
func (s *Stac) SaveTree(node *models.StacNode) error {
	existing, _, err := s.LoadNode(node)
	if err != nil {
		return err
	}
	if ShouldReplace(existing, node) {
		if err := s.SaveNode(node); err != nil {
			return err
		}
	}
	if node.Kind == models.KindCollection {
		for _, item := range node.Items {
			if err := s.SaveItem(node, item); err != nil {
				return err
			}
		}
	}
	for _, child := range node.Children {
		if err := s.SaveTree(child); err != nil {
			return err
		}
	}
	return nil
}
