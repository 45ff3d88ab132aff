// Package storage holds the crawler's three persistence layers: the
// bbolt-backed collection Registry, the on-disk FileCache for downloaded
// PDS3 files, and the Stac tree writer.
package storage

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.etcd.io/bbolt"

	"github.com/pdssp/pds-crawler/pkg/models"
)

var (
	collectionsRoot = []byte("collections")
	urlsRoot        = []byte("urls")
	descriptorKey   = []byte("descriptor")
	urlsKey         = []byte("urls")
)

// Registry persists CollectionDescriptor records and their pregenerated
// record-page URLs in a single bbolt file, using one nested bucket per
// identity token the way the original HDF5 store used one nested group
// per token.
type Registry struct {
	db *bbolt.DB
}

// OpenRegistry opens (creating if absent) the bbolt database at path.
func OpenRegistry(path string) (*Registry, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening registry %s: %w", path, err)
	}
	return &Registry{db: db}, nil
}

// Close releases the underlying database file.
func (r *Registry) Close() error { return r.db.Close() }

func navigateBuckets(tx *bbolt.Tx, root []byte, tokens []string, create bool) (*bbolt.Bucket, error) {
	bucket := tx.Bucket(root)
	if bucket == nil {
		if !create {
			return nil, nil
		}
		var err error
		bucket, err = tx.CreateBucketIfNotExists(root)
		if err != nil {
			return nil, err
		}
	}
	for _, token := range tokens {
		name := []byte(models.SanitizeIdentityToken(strings.ToLower(token)))
		if create {
			child, err := bucket.CreateBucketIfNotExists(name)
			if err != nil {
				return nil, err
			}
			bucket = child
		} else {
			child := bucket.Bucket(name)
			if child == nil {
				return nil, nil
			}
			bucket = child
		}
	}
	return bucket, nil
}

// descriptorUnchanged reports whether bucket already stores a descriptor
// whose ProductCount matches d's, the only field the "has this changed"
// check considers (database.py:484-497's _has_changed).
func descriptorUnchanged(bucket *bbolt.Bucket, d models.CollectionDescriptor) bool {
	existing := bucket.Get(descriptorKey)
	if existing == nil {
		return false
	}
	var prev models.CollectionDescriptor
	if err := json.Unmarshal(existing, &prev); err != nil {
		return false
	}
	return prev.ProductCount == d.ProductCount
}

// SaveCollection upserts one descriptor under its identity path. It is a
// no-op, returning false, when a descriptor is already stored at this
// identity with the same ProductCount; otherwise it writes and returns
// true.
func (r *Registry) SaveCollection(d models.CollectionDescriptor) (bool, error) {
	blob, err := json.Marshal(d)
	if err != nil {
		return false, fmt.Errorf("encoding collection %s: %w", d, err)
	}
	saved := false
	err = r.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := navigateBuckets(tx, collectionsRoot, d.IdentityTokens(), true)
		if err != nil {
			return err
		}
		if descriptorUnchanged(bucket, d) {
			return nil
		}
		saved = true
		return bucket.Put(descriptorKey, blob)
	})
	return saved, err
}

// SaveCollections upserts every descriptor in a single transaction,
// returning the AND-fold of each individual save: true only when every
// descriptor was newly written.
func (r *Registry) SaveCollections(ds []models.CollectionDescriptor) (bool, error) {
	allSaved := true
	err := r.db.Update(func(tx *bbolt.Tx) error {
		for _, d := range ds {
			blob, err := json.Marshal(d)
			if err != nil {
				return fmt.Errorf("encoding collection %s: %w", d, err)
			}
			bucket, err := navigateBuckets(tx, collectionsRoot, d.IdentityTokens(), true)
			if err != nil {
				return err
			}
			if descriptorUnchanged(bucket, d) {
				allSaved = false
				continue
			}
			if err := bucket.Put(descriptorKey, blob); err != nil {
				return err
			}
		}
		return nil
	})
	return allSaved, err
}

// LoadCollections walks the whole collections tree and returns every
// descriptor found, in bucket-traversal order, restricted to those
// matching bodyFilter and datasetIDFilter when non-empty (both compared
// case-insensitively).
func (r *Registry) LoadCollections(bodyFilter, datasetIDFilter string) ([]models.CollectionDescriptor, error) {
	var out []models.CollectionDescriptor
	err := r.db.View(func(tx *bbolt.Tx) error {
		root := tx.Bucket(collectionsRoot)
		if root == nil {
			return nil
		}
		return visit(root, func(b *bbolt.Bucket) error {
			blob := b.Get(descriptorKey)
			if blob == nil {
				return nil
			}
			var d models.CollectionDescriptor
			if err := json.Unmarshal(blob, &d); err != nil {
				return fmt.Errorf("decoding collection descriptor: %w", err)
			}
			if bodyFilter != "" && !strings.EqualFold(d.Body, bodyFilter) {
				return nil
			}
			if datasetIDFilter != "" && !strings.EqualFold(d.DatasetID, datasetIDFilter) {
				return nil
			}
			out = append(out, d)
			return nil
		})
	})
	return out, err
}

// visit recursively calls fn on b and every nested bucket beneath it,
// mirroring h5py's f.visititems traversal over the old HDF5 tree.
func visit(b *bbolt.Bucket, fn func(*bbolt.Bucket) error) error {
	if err := fn(b); err != nil {
		return err
	}
	return b.ForEach(func(k, v []byte) error {
		if v != nil {
			return nil
		}
		child := b.Bucket(k)
		if child == nil {
			return nil
		}
		return visit(child, fn)
	})
}

// sameURLs reports whether a and b contain the same URLs, ignoring order
// (save_urls treats the two lists as multisets via sorted comparison).
func sameURLs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sortedA := append([]string(nil), a...)
	sortedB := append([]string(nil), b...)
	sort.Strings(sortedA)
	sort.Strings(sortedB)
	for i := range sortedA {
		if sortedA[i] != sortedB[i] {
			return false
		}
	}
	return true
}

// SaveUrls stores the pregenerated record-page URLs for one collection. A
// call whose urls are, as a multiset, identical to what is already stored
// is a no-op.
func (r *Registry) SaveUrls(identityTokens []string, urls []string) error {
	blob, err := json.Marshal(urls)
	if err != nil {
		return fmt.Errorf("encoding urls: %w", err)
	}
	return r.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := navigateBuckets(tx, urlsRoot, identityTokens, true)
		if err != nil {
			return err
		}
		if existing := bucket.Get(urlsKey); existing != nil {
			var prev []string
			if err := json.Unmarshal(existing, &prev); err == nil && sameURLs(prev, urls) {
				return nil
			}
		}
		return bucket.Put(urlsKey, blob)
	})
}

// LoadUrls returns the previously saved URLs for one collection, or nil
// if none have been saved yet.
func (r *Registry) LoadUrls(identityTokens []string) ([]string, error) {
	var urls []string
	err := r.db.View(func(tx *bbolt.Tx) error {
		bucket, err := navigateBuckets(tx, urlsRoot, identityTokens, false)
		if err != nil || bucket == nil {
			return err
		}
		blob := bucket.Get(urlsKey)
		if blob == nil {
			return nil
		}
		return json.Unmarshal(blob, &urls)
	})
	return urls, err
}
