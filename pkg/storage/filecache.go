package storage

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdssp/pds-crawler/pkg/models"
)

// FileCache is the on-disk mirror of every file downloaded for a
// collection: PDS3 catalog labels, the volume description, and the
// cached JSON record pages.
type FileCache struct {
	root string
}

// NewFileCache returns a FileCache rooted at dir.
func NewFileCache(dir string) *FileCache { return &FileCache{root: dir} }

// CollectionDir returns the directory a collection's files are stored
// under: root/body/host/instrument/producttype/dataset.
func (c *FileCache) CollectionDir(d models.CollectionDescriptor) string {
	return filepath.Join(c.root, filepath.FromSlash(d.IdentityPath()))
}

// ComputeDownloadedFilePath derives the local path a URL should be saved
// to. A records-query URL (one carrying an "ihid" query parameter) is
// named "<target>_<ihid>_<iid>_<pt>_<offset>.json" so that paginated
// pages don't collide; any other URL keeps its lowercased basename.
func (c *FileCache) ComputeDownloadedFilePath(d models.CollectionDescriptor, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing download url %s: %w", rawURL, err)
	}
	dir := c.CollectionDir(d)
	q := u.Query()
	if ihid := q.Get("ihid"); ihid != "" {
		offset := q.Get("offset")
		if offset == "" {
			offset = "0"
		}
		name := fmt.Sprintf("%s_%s_%s_%s_%s.json",
			strings.ToLower(d.Body), strings.ToLower(ihid), strings.ToLower(q.Get("iid")),
			strings.ToLower(q.Get("pt")), offset)
		return filepath.Join(dir, name), nil
	}
	base := strings.ToLower(path.Base(u.Path))
	if base == "" || base == "." || base == "/" {
		base = "index"
	}
	return filepath.Join(dir, base), nil
}

// Exists reports whether path has already been downloaded.
func (c *FileCache) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// ListFiles returns every regular file under a collection's directory.
func (c *FileCache) ListFiles(d models.CollectionDescriptor) ([]string, error) {
	return c.listFilesMatching(d, func(string) bool { return true })
}

// ListRecordFiles returns the cached JSON record pages for a collection.
func (c *FileCache) ListRecordFiles(d models.CollectionDescriptor) ([]string, error) {
	return c.listFilesMatching(d, func(name string) bool {
		return strings.HasSuffix(strings.ToLower(name), ".json")
	})
}

// ListCatalogs returns the PDS3 .CAT label files for a collection.
func (c *FileCache) ListCatalogs(d models.CollectionDescriptor) ([]string, error) {
	return c.listFilesMatching(d, func(name string) bool {
		return strings.HasSuffix(strings.ToLower(name), ".cat")
	})
}

func (c *FileCache) listFilesMatching(d models.CollectionDescriptor, keep func(string) bool) ([]string, error) {
	dir := c.CollectionDir(d)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !keep(e.Name()) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	return out, nil
}

// GetVolumeDescription returns the path to a collection's VOLDESC.CAT,
// or an empty string if it hasn't been downloaded yet.
func (c *FileCache) GetVolumeDescription(d models.CollectionDescriptor) (string, error) {
	return c.findCatalog(d, "VOLDESC.CAT")
}

// GetCatalog returns the path to a named catalog file (case-insensitive)
// within a collection's directory.
func (c *FileCache) GetCatalog(d models.CollectionDescriptor, name string) (string, error) {
	return c.findCatalog(d, name)
}

func (c *FileCache) findCatalog(d models.CollectionDescriptor, name string) (string, error) {
	files, err := c.ListCatalogs(d)
	if err != nil {
		return "", err
	}
	for _, f := range files {
		if strings.EqualFold(filepath.Base(f), name) {
			return f, nil
		}
	}
	return "", nil
}

// NextOffset inspects a collection's cached record pages and returns the
// offset the next page should resume from: the highest "_<offset>.json"
// suffix already on disk plus pageSize, or 0 when no page is cached.
func (c *FileCache) NextOffset(d models.CollectionDescriptor, pageSize int) (int, error) {
	files, err := c.ListRecordFiles(d)
	if err != nil {
		return 0, err
	}
	max := -1
	for _, f := range files {
		base := strings.TrimSuffix(filepath.Base(f), ".json")
		parts := strings.Split(base, "_")
		if len(parts) == 0 {
			continue
		}
		n, err := strconv.Atoi(parts[len(parts)-1])
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	if max < 0 {
		return 0, nil
	}
	return max + pageSize, nil
}
