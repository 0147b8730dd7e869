// Package importcache implements the Import Cache (spec.md §4.D): a
// session-local map from absolute file path to the imports parsed out
// of that file, keyed additionally by the file's last-modified time so
// a stale entry is never served.
//
// Grounded directly on spec.md §4.D/§5; the mutex-guarded-map shape
// mirrors the registry pattern used throughout the teacher's
// internal/vcs package (a single lock around a plain map, no sharding).
package importcache

import (
	"os"
	"sync"
	"time"

	"github.com/nsavage/relocore/internal/editplan"
)

// Disabling environment variables, per spec.md §4.D. Either one turns
// the cache into a pure pass-through: Get never reports a hit and Put
// is a no-op.
const (
	EnvDisableAllCaches   = "DISABLE_CACHE"
	EnvDisableImportCache = "DISABLE_IMPORT_CACHE"
)

type entry struct {
	imports      []editplan.ImportInfo
	lastModified time.Time
}

// Cache is a session-local, mtime-validated import cache. The zero
// value is not usable; construct with New.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]entry
	disabled bool
}

// New builds a Cache. Disabling is decided once, at construction, by
// reading the environment so a single process consistently behaves as
// either cached or uncached for its whole lifetime.
func New() *Cache {
	return &Cache{
		entries:  make(map[string]entry),
		disabled: envDisabled(),
	}
}

func envDisabled() bool {
	return os.Getenv(EnvDisableAllCaches) != "" || os.Getenv(EnvDisableImportCache) != ""
}

// Get returns the cached imports for path if one is stored and its
// recorded last-modified time matches lastModified exactly. A
// disabled cache always misses.
func (c *Cache) Get(path string, lastModified time.Time) ([]editplan.ImportInfo, bool) {
	if c.disabled {
		return nil, false
	}

	c.mu.Lock()
	e, ok := c.entries[path]
	c.mu.Unlock()

	if !ok || !e.lastModified.Equal(lastModified) {
		return nil, false
	}
	return e.imports, true
}

// Put stores imports for path under lastModified, overwriting any
// earlier entry for the same path. Callers parse outside any lock
// they hold and call Put with the already-computed result; Put itself
// only ever holds the lock long enough to write the map entry.
func (c *Cache) Put(path string, lastModified time.Time, imports []editplan.ImportInfo) {
	if c.disabled {
		return
	}

	c.mu.Lock()
	c.entries[path] = entry{imports: imports, lastModified: lastModified}
	c.mu.Unlock()
}

// Invalidate drops any cached entry for path, regardless of its
// recorded mtime. Used after a rewrite so a subsequent read of the
// same file within the session re-parses instead of serving stale
// import lists under a bumped mtime that happens to coincide.
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	delete(c.entries, path)
	c.mu.Unlock()
}

// Len reports the number of entries currently stored. The cache is
// unbounded in size within a session (spec.md §4.D); Len exists for
// diagnostics and tests, not eviction.
func (c *Cache) Len() int {
	c.mu.Lock()
	n := len(c.entries)
	c.mu.Unlock()
	return n
}

// Disabled reports whether this Cache was constructed with either
// disabling environment flag set.
func (c *Cache) Disabled() bool {
	return c.disabled
}
