// Package cache is the optional retrieval-side fast path: a Redis-backed
// cache of VectorStore.search results keyed by (collection, query),
// sitting in front of the VectorStore so repeated queries skip the
// round-trip to Postgres.
//
// This is purely additive — spec.md's required caching mechanism is the
// embedding cache in internal/embedding, an on-disk content-addressed
// log. This package repurposes the teacher's internal/redis.CacheService
// (a TTL-keyed rueidis wrapper) for a concern spec.md doesn't forbid
// rather than dropping the dependency outright (DESIGN.md).
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/rueidis"
)

// SearchResultTTL mirrors the teacher's SearchResultCacheTTL.
const SearchResultTTL = 30 * time.Minute

// QueryCache wraps a rueidis client scoped to caching search results.
type QueryCache struct {
	client rueidis.Client
}

// Dial connects to a Redis-compatible server at addr ("host:port").
func Dial(addr string) (*QueryCache, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{InitAddress: []string{addr}})
	if err != nil {
		return nil, fmt.Errorf("cache: dial: %w", err)
	}
	return &QueryCache{client: client}, nil
}

// Close releases the underlying connection.
func (c *QueryCache) Close() { c.client.Close() }

func searchKey(collection, query string) string {
	h := sha256.Sum256([]byte(query))
	return fmt.Sprintf("search:%s:%s", collection, hex.EncodeToString(h[:]))
}

// Get fetches cached results for (collection, query) into dest. It
// returns (false, nil) on a clean cache miss.
func (c *QueryCache) Get(ctx context.Context, collection, query string, dest interface{}) (bool, error) {
	cmd := c.client.B().Get().Key(searchKey(collection, query)).Build()
	resp := c.client.Do(ctx, cmd)
	if resp.Error() != nil {
		if rueidis.IsRedisNil(resp.Error()) {
			return false, nil
		}
		return false, resp.Error()
	}
	raw, err := resp.ToString()
	if err != nil {
		return false, err
	}
	if raw == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, err
	}
	return true, nil
}

// Set caches results for (collection, query) with SearchResultTTL.
func (c *QueryCache) Set(ctx context.Context, collection, query string, results interface{}) error {
	b, err := json.Marshal(results)
	if err != nil {
		return err
	}
	cmd := c.client.B().Set().Key(searchKey(collection, query)).Value(string(b)).
		ExSeconds(int64(SearchResultTTL.Seconds())).Build()
	return c.client.Do(ctx, cmd).Error()
}

// Invalidate drops the cached entry for (collection, query). The purge and
// upsert commands do not call it; their changes show up in cached queries
// once SearchResultTTL expires.
func (c *QueryCache) Invalidate(ctx context.Context, collection, query string) error {
	cmd := c.client.B().Del().Key(searchKey(collection, query)).Build()
	return c.client.Do(ctx, cmd).Error()
}
