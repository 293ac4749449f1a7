package fetch

import (
	"context"
	"log"
)

// DocumentCache stores fetched documents by location. Implementations
// live in pkg/store (SQLite) and pkg/store/redis; eviction policy is
// theirs, not the engine's.
type DocumentCache interface {
	// Get returns the cached body and whether the location was present.
	Get(ctx context.Context, location string) ([]byte, bool, error)

	// Put stores the body under the location.
	Put(ctx context.Context, location string, body []byte) error
}

// Cached wraps a Fetcher with a read-through document cache. Cache
// failures degrade to the inner fetcher; they never fail a load.
type Cached struct {
	inner Fetcher
	cache DocumentCache
}

// NewCached creates a read-through caching fetcher.
func NewCached(inner Fetcher, cache DocumentCache) *Cached {
	return &Cached{inner: inner, cache: cache}
}

// Fetch serves from the cache when possible, otherwise fetches and
// backfills. Not-found results are not cached.
func (c *Cached) Fetch(ctx context.Context, location string) ([]byte, error) {
	body, hit, err := c.cache.Get(ctx, location)
	if err != nil {
		log.Printf("fetch: cache read for %q failed: %v", location, err)
	} else if hit {
		return body, nil
	}

	body, err = c.inner.Fetch(ctx, location)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Put(ctx, location, body); err != nil {
		log.Printf("fetch: cache write for %q failed: %v", location, err)
	}
	return body, nil
}
