package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sdkdesk/sdkdesk/internal/sdk"
	"github.com/sdkdesk/sdkdesk/internal/sdkhome"
)

const (
	candidatesCacheFile = "candidates.json"
	versionsCacheSuffix = "_versions.json"

	// DefaultCacheTTL is used when no TTL is configured.
	DefaultCacheTTL = 24 * time.Hour
)

// cacheEntry is the on-disk format of one cached listing.
type cacheEntry struct {
	CheckedAt time.Time       `json:"checked_at"`
	Data      json.RawMessage `json:"data"`
}

// Cache stores listings as JSON files in one directory.
type Cache struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// NewCache returns a Cache rooted at dir. A non-positive ttl uses DefaultCacheTTL.
func NewCache(dir string, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{dir: dir, ttl: ttl, now: time.Now}
}

// Load decodes the cached value of name into v. It reports false with a nil
// error when there is no entry or the entry is older than the TTL. A corrupt
// entry is returned as an error so the caller can refetch.
func (c *Cache) Load(name string, v any) (bool, error) {
	path, err := c.path(name)
	if err != nil {
		return false, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading cache %s: %w", name, err)
	}

	var e cacheEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return false, fmt.Errorf("parsing cache %s: %w", name, err)
	}
	if c.IsStale(e.CheckedAt) {
		return false, nil
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return false, fmt.Errorf("decoding cache %s: %w", name, err)
	}
	return true, nil
}

// Save writes v as the cached value of name, stamped with the current time.
func (c *Cache) Save(name string, v any) error {
	path, err := c.path(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.dir, sdkhome.DirPerm); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling cache %s: %w", name, err)
	}
	data, err := json.MarshalIndent(cacheEntry{CheckedAt: c.now(), Data: raw}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling cache %s: %w", name, err)
	}
	if err := os.WriteFile(path, data, sdkhome.FilePerm); err != nil {
		return fmt.Errorf("writing cache %s: %w", name, err)
	}
	return nil
}

// IsStale reports whether an entry checked at t has expired.
func (c *Cache) IsStale(t time.Time) bool {
	return c.now().Sub(t) > c.ttl
}

// Clear removes every cached listing.
func (c *Cache) Clear() error {
	entries, err := os.ReadDir(c.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading cache directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil {
			return fmt.Errorf("removing cache %s: %w", e.Name(), err)
		}
	}
	return nil
}

// path maps an entry name to its file, which must sit directly in dir.
func (c *Cache) path(name string) (string, error) {
	if err := sdk.ValidateName(name); err != nil {
		return "", fmt.Errorf("cache entry: %w", err)
	}
	return filepath.Join(c.dir, name), nil
}

func versionsCacheFile(candidate string) string {
	return candidate + versionsCacheSuffix
}
