package storage

import (
	"hash/fnv"
	"path/filepath"
	"strings"

	"github.com/pdssp/pds-crawler/pkg/models"
)

// itemBucketCount bounds how many files land in a single items directory,
// the same "mod 1000" fanout limit the original loader used to keep HDF5
// groups (and here, directories) from growing unbounded.
const itemBucketCount = 1000

func sanitizeSlug(id string) string {
	return strings.ReplaceAll(models.SanitizeIdentityToken(strings.ToLower(id)), "__", "_")
}

// ItemBucket deterministically buckets an item id into one of
// itemBucketCount directories, so a collection with millions of items
// never puts them all in one directory.
func ItemBucket(id string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	n := int(h.Sum32()) % itemBucketCount
	if n < 0 {
		n += itemBucketCount
	}
	return fmtBucket(n)
}

func fmtBucket(n int) string {
	digits := "000"
	s := digits + itoa(n)
	return s[len(s)-3:]
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [8]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// LargeDataVolumeStrategy lays the STAC tree out on disk: the root
// catalog lives directly under root, every other node nests under a
// directory chain of its ancestors' ids, and items are further bucketed
// to bound per-directory fanout.
type LargeDataVolumeStrategy struct {
	root string
}

// NewLargeDataVolumeStrategy returns a strategy rooted at dir.
func NewLargeDataVolumeStrategy(dir string) *LargeDataVolumeStrategy {
	return &LargeDataVolumeStrategy{root: dir}
}

// dirFor returns the directory a node's own JSON document lives in. The
// root node (no parent) is fixed directly at the strategy root instead of
// nesting under a directory named after itself.
func (s *LargeDataVolumeStrategy) dirFor(node *models.StacNode) string {
	if node.Parent() == nil {
		return s.root
	}
	var segments []string
	for n := node; n != nil && n.Parent() != nil; n = n.Parent() {
		segments = append([]string{sanitizeSlug(n.ID)}, segments...)
	}
	return filepath.Join(append([]string{s.root}, segments...)...)
}

// CatalogPath returns where an intermediate catalog node's catalog.json
// is written.
func (s *LargeDataVolumeStrategy) CatalogPath(node *models.StacNode) string {
	return filepath.Join(s.dirFor(node), "catalog.json")
}

// CollectionPath returns where a leaf collection node's collection.json
// is written.
func (s *LargeDataVolumeStrategy) CollectionPath(node *models.StacNode) string {
	return filepath.Join(s.dirFor(node), "collection.json")
}

// ItemPath returns where one item belonging to collection is written,
// bucketed directly under the collection's own directory.
func (s *LargeDataVolumeStrategy) ItemPath(collection *models.StacNode, itemID string) string {
	dir := s.dirFor(collection)
	return filepath.Join(dir, ItemBucket(itemID), sanitizeSlug(itemID)+".json")
}
