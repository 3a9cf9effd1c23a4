package storage

import (
	"context"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/domain"
)

// CachedStore memoizes downloads of remote reference images. Inline data:
// locators are not cached since they carry their own bytes.
type CachedStore struct {
	domain.BlobStore
	cache *cache.Cache
}

// NewCachedStore wraps store with a TTL cache.
func NewCachedStore(store domain.BlobStore, ttl time.Duration) *CachedStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &CachedStore{BlobStore: store, cache: cache.New(ttl, 2*ttl)}
}

// Download serves cached bytes when present.
func (c *CachedStore) Download(ctx context.Context, locator string) ([]byte, error) {
	if strings.HasPrefix(locator, "data:") {
		return c.BlobStore.Download(ctx, locator)
	}
	if v, ok := c.cache.Get(locator); ok {
		return v.([]byte), nil
	}
	data, err := c.BlobStore.Download(ctx, locator)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(locator, data)
	return data, nil
}

var _ domain.BlobStore = (*CachedStore)(nil)
