package provision

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const metadataFile = "metadata.json"

// CacheKey derives the cache key for an interpreter request and a manifest
// digest. Changing any of them invalidates the cached environment.
func CacheKey(interpreter, version, manifestDigest string) string {
	h := sha256.New()
	fmt.Fprintf(h, "interpreter=%s\x00version=%s\x00manifest=%s", interpreter, version, manifestDigest)
	return hex.EncodeToString(h.Sum(nil))
}

// CacheEntry is the metadata stored next to a cached environment.
type CacheEntry struct {
	Key         string    `json:"key"`
	Interpreter string    `json:"interpreter"`
	Path        string    `json:"path"`
	Version     string    `json:"version"`
	Manifest    string    `json:"manifest"`
	Isolated    bool      `json:"isolated"`
	CreatedAt   time.Time `json:"created_at"`
}

// FileCache stores environments on disk:
//
//	{Dir}/
//	  {key[0:2]}/
//	    {key}/
//	      metadata.json
//	      venv/
type FileCache struct {
	Dir string
}

// NewFileCache creates a cache rooted at dir.
func NewFileCache(dir string) *FileCache {
	return &FileCache{Dir: dir}
}

// EntryDir returns the directory for a cache key.
func (c *FileCache) EntryDir(key string) string {
	prefix := key
	if len(prefix) > 2 {
		prefix = key[:2]
	}
	return filepath.Join(c.Dir, prefix, key)
}

// VenvDir returns the virtual environment directory for a cache key.
func (c *FileCache) VenvDir(key string) string {
	return filepath.Join(c.EntryDir(key), "venv")
}

// Get returns the entry for key, or nil when it does not exist.
func (c *FileCache) Get(key string) (*CacheEntry, error) {
	data, err := os.ReadFile(filepath.Join(c.EntryDir(key), metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading cache metadata: %w", err)
	}

	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("parsing cache metadata: %w", err)
	}
	return &entry, nil
}

// Put writes entry metadata, replacing any previous metadata atomically.
func (c *FileCache) Put(entry *CacheEntry) error {
	if entry == nil {
		return fmt.Errorf("cache entry is nil")
	}

	dir := c.EntryDir(entry.Key)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling cache metadata: %w", err)
	}
	return writeFileAtomic(filepath.Join(dir, metadataFile), data, 0644)
}

// Invalidate removes metadata for key so the next run installs again.
// The environment directory itself is kept for reuse.
func (c *FileCache) Invalidate(key string) error {
	err := os.Remove(filepath.Join(c.EntryDir(key), metadataFile))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
