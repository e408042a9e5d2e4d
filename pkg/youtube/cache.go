package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/crosstune/crosstune/pkg/match"
	"github.com/crosstune/crosstune/pkg/tokenstore"
)

// CachedResult is the stored outcome of one search.
type CachedResult struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Channel string `json:"channel"`
	Score   int    `json:"score"`
}

// SearchCache avoids re-spending search quota on tracks that were
// already resolved in a previous run. Entries are keyed by the
// normalized track and artist pair and the whole cache is persisted as
// one object in the token store.
type SearchCache struct {
	mu      sync.Mutex
	entries map[string]CachedResult
	dirty   bool
}

// NewSearchCache returns an empty cache.
func NewSearchCache() *SearchCache {
	return &SearchCache{entries: make(map[string]CachedResult)}
}

func cacheKey(title, artist string) string {
	return match.Normalize(title) + "|||" + match.Normalize(artist)
}

// Get returns the cached result for a track and artist pair.
func (c *SearchCache) Get(title, artist string) (CachedResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.entries[cacheKey(title, artist)]
	return r, ok
}

// Put records the result for a track and artist pair.
func (c *SearchCache) Put(title, artist string, r CachedResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(title, artist)] = r
	c.dirty = true
}

// Len reports the number of cached entries.
func (c *SearchCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func cacheObjectKey(user string) string {
	return fmt.Sprintf("cache/youtube_search_%s.json", user)
}

// LoadSearchCache fetches the persisted cache for a user. A missing
// object yields an empty cache.
func LoadSearchCache(ctx context.Context, store *tokenstore.Store, user string) (*SearchCache, error) {
	cache := NewSearchCache()
	raw, err := store.GetRaw(ctx, cacheObjectKey(user))
	if err != nil {
		var nf tokenstore.NotFoundError
		if errors.As(err, &nf) {
			return cache, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(raw, &cache.entries); err != nil {
		return nil, fmt.Errorf("decode search cache for %s: %w", user, err)
	}
	return cache, nil
}

// Save persists the cache when it changed since load.
func (c *SearchCache) Save(ctx context.Context, store *tokenstore.Store, user string) error {
	c.mu.Lock()
	dirty := c.dirty
	raw, err := json.Marshal(c.entries)
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("encode search cache for %s: %w", user, err)
	}
	if !dirty {
		return nil
	}
	return store.PutRaw(ctx, cacheObjectKey(user), "application/json", raw)
}
