package services

import (
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
)

// RenderCache holds rendered projections of published content (list pages,
// the feed). Every post mutation flushes it wholesale; entries also age out
// on their own so a missed invalidation cannot go stale forever.
type RenderCache struct {
	*cache.Cache
}

func NewRenderCache(expirationTime, cleanupTime time.Duration) *RenderCache {
	return &RenderCache{cache.New(expirationTime, cleanupTime)}
}

func (c *RenderCache) Set(key string, value interface{}) {
	c.Cache.Set(key, value, cache.DefaultExpiration)
}

func (c *RenderCache) Get(key string) (interface{}, bool) {
	return c.Cache.Get(key)
}

func (c *RenderCache) Flush() {
	c.Cache.Flush()
}

func CacheKeyPostPage(page int, filter ListFilter) string {
	return fmt.Sprintf("posts:%d:%s:%s:%s", page, filter.Search, filter.CategorySlug, filter.TagSlug)
}

func CacheKeyFeed() string {
	return "feed:rss"
}
