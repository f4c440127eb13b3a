// Package ingest acquires the raw upstream artifacts (Redfin TSV, BLS JSON)
// and keeps a per-source, per-calendar-day download cache under the raw
// data directory.
package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/reiniercriel/menapiai-data-pipeline/utils"
)

// DefaultTTL is how long a cached raw artifact stays reusable.
const DefaultTTL = 24 * time.Hour

// Cache decides whether a previously downloaded raw artifact can be reused
// or must be re-fetched. One artifact file per source per calendar day.
type Cache struct {
	dir    string
	ttl    time.Duration
	logger *utils.Logger

	now func() time.Time
}

// NewCache creates a Cache rooted at dir with the default TTL.
func NewCache(dir string, logger *utils.Logger) *Cache {
	return &Cache{
		dir:    dir,
		ttl:    DefaultTTL,
		logger: logger,
		now:    time.Now,
	}
}

// Path returns today's expected artifact path for a source, e.g.
// data/raw/redfin_housing_20240131.tsv.gz.
func (c *Cache) Path(source, ext string) string {
	day := c.now().Format("20060102")
	return filepath.Join(c.dir, fmt.Sprintf("%s_%s.%s", source, day, ext))
}

// Ensure returns a usable local artifact path for source.
//
// A non-empty localPath is authoritative and bypasses the cache entirely.
// Otherwise today's cached file is reused while its age is below the TTL,
// unless forceRefresh is set; on a miss, fetch must write the artifact to
// the destination path. A fetch failure is fatal to the caller — there is
// no retry.
func (c *Cache) Ensure(source, ext, localPath string, forceRefresh bool, fetch func(dst string) error) (string, error) {
	if localPath != "" {
		c.logger.Info("[cache] Using local %s artifact from %s", source, localPath)
		return localPath, nil
	}

	dst := c.Path(source, ext)

	if !forceRefresh {
		if fi, err := os.Stat(dst); err == nil {
			age := c.now().Sub(fi.ModTime())
			if age < c.ttl {
				c.logger.Info("[cache] Reusing cached %s artifact (%v old): %s",
					source, age.Round(time.Second), dst)
				return dst, nil
			}
			c.logger.Info("[cache] Cached %s artifact is older than %v, fetching fresh copy", source, c.ttl)
		}
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", fmt.Errorf("cache: create raw dir: %w", err)
	}
	if err := fetch(dst); err != nil {
		// A failed fetch may have left a truncated artifact with a fresh
		// mtime; remove it so the next invocation re-fetches instead of
		// reusing the corrupt file for the rest of the TTL.
		if rmErr := os.Remove(dst); rmErr != nil && !os.IsNotExist(rmErr) {
			c.logger.Warn("[cache] Could not remove incomplete %s artifact %s: %v", source, dst, rmErr)
		}
		return "", err
	}

	c.logger.Info("[cache] Raw %s artifact available at %s", source, dst)
	return dst, nil
}
