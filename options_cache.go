package settings

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// ProgramCache stores compiled rule programs keyed by engine and expression.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

const (
	DefaultProgramExpiration      = 30 * time.Minute
	DefaultProgramCleanupInterval = time.Hour
)

// MemoryProgramCache is a ProgramCache backed by patrickmn/go-cache. Entries
// expire after the configured TTL; a TTL of zero keeps them forever.
type MemoryProgramCache struct {
	cache *gocache.Cache
}

// NewMemoryProgramCache builds a program cache with ttl expiry.
func NewMemoryProgramCache(ttl time.Duration) *MemoryProgramCache {
	expiration := ttl
	cleanup := DefaultProgramCleanupInterval
	if ttl <= 0 {
		expiration = gocache.NoExpiration
		cleanup = 0
	}
	return &MemoryProgramCache{cache: gocache.New(expiration, cleanup)}
}

func (c *MemoryProgramCache) Get(key string) (any, bool) {
	return c.cache.Get(key)
}

func (c *MemoryProgramCache) Set(key string, value any) {
	c.cache.SetDefault(key, value)
}

// Len reports the number of cached programs, expired entries included until
// the next cleanup.
func (c *MemoryProgramCache) Len() int {
	return c.cache.ItemCount()
}

func cacheKey(engine, expression string) string {
	return engine + ":" + expression
}
