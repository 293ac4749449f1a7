// Package redis provides a Redis-backed document cache with TTL-based
// expiry, implementing the same fetch.DocumentCache interface as the
// SQLite store.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "itemdeck:doc:"

// DocumentCache caches fetched documents in Redis.
type DocumentCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDocumentCache creates a cache over an existing Redis client. A ttl
// of zero keeps documents until explicitly deleted.
func NewDocumentCache(client *redis.Client, ttl time.Duration) *DocumentCache {
	return &DocumentCache{client: client, ttl: ttl}
}

func makeKey(location string) string {
	return keyPrefix + location
}

// Get returns the cached document body for a location.
func (c *DocumentCache) Get(ctx context.Context, location string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, makeKey(location)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to GET %s: %w", makeKey(location), err)
	}
	return data, true, nil
}

// Put stores a document body under its location.
func (c *DocumentCache) Put(ctx context.Context, location string, body []byte) error {
	if err := c.client.Set(ctx, makeKey(location), body, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to SET %s: %w", makeKey(location), err)
	}
	return nil
}

// Delete removes a cached document.
func (c *DocumentCache) Delete(ctx context.Context, location string) error {
	if err := c.client.Del(ctx, makeKey(location)).Err(); err != nil {
		return fmt.Errorf("failed to DEL %s: %w", makeKey(location), err)
	}
	return nil
}
