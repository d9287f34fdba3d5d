package chart

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/emiliopalmerini/effortmap/internal/storage"
	"github.com/emiliopalmerini/effortmap/internal/user"
)

// CacheKey derives the storage identity of a rendered chart variant. The
// graph's updated_at is part of the key, so any mutation that bumps it
// produces a new key and old entries stop matching without an explicit
// delete.
func CacheKey(ownerID, graphID string, theme user.Theme, updatedAt time.Time) string {
	return fmt.Sprintf("%s/%s-%s-%d.png", ownerID, graphID, theme, updatedAt.UnixMilli())
}

// CachePrefix matches every stored variant of a graph/theme pair across
// updated_at values, for sweeping stale blobs.
func CachePrefix(graphID string, theme user.Theme) string {
	return fmt.Sprintf("%s-%s-", graphID, theme)
}

// Result is the outcome of a cache fetch.
type Result struct {
	// Key is the blob key for the current graph state.
	Key string
	// Bytes holds freshly rendered image data; nil on a cache hit, where
	// the caller redirects to the stored blob instead.
	Bytes []byte
	// Cached reports an exact-key hit.
	Cached bool
	// Stored reports whether fresh bytes made it into the blob store. When
	// false the caller must serve Bytes directly.
	Stored bool
}

// Cache decides whether a previously rendered chart can be reused and owns
// the render-store-serve path on a miss. Concurrent fetches for the same
// key are coalesced; the duplicate-writer race that remains is harmless
// because content derives deterministically from the same source data.
type Cache struct {
	store  *storage.FSStore
	logger *zap.Logger
	group  singleflight.Group
}

func NewCache(store *storage.FSStore, logger *zap.Logger) *Cache {
	return &Cache{store: store, logger: logger}
}

// Fetch returns the cached result for the key derived from (ownerID,
// graphID, theme, updatedAt), or renders via render on a miss. With refresh
// set, a fresh render always happens and every blob matching the
// graph/theme prefix is swept first, covering keys from earlier updated_at
// values. A store write failure is non-fatal: the bytes are returned with
// Stored false and the error is logged, not surfaced.
func (c *Cache) Fetch(ctx context.Context, ownerID, graphID string, theme user.Theme, updatedAt time.Time, refresh bool, render func(context.Context) ([]byte, error)) (*Result, error) {
	key := CacheKey(ownerID, graphID, theme, updatedAt)

	if !refresh && c.store.Exists(key) {
		return &Result{Key: key, Cached: true, Stored: true}, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if _, err := c.store.RemoveMatching(ownerID, CachePrefix(graphID, theme)); err != nil {
			c.logger.Warn("sweeping stale chart blobs failed",
				zap.String("graph_id", graphID), zap.String("theme", string(theme)), zap.Error(err))
		}

		data, err := render(ctx)
		if err != nil {
			return nil, err
		}

		result := &Result{Key: key, Bytes: data}
		if err := c.store.Put(key, data); err != nil {
			c.logger.Error("storing rendered chart failed, serving bytes directly",
				zap.String("key", key), zap.Error(err))
			return result, nil
		}
		result.Stored = true
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

// Invalidate removes both theme variants' cached blobs for a graph.
func (c *Cache) Invalidate(ownerID, graphID string) error {
	for _, theme := range []user.Theme{user.ThemeLight, user.ThemeDark} {
		if _, err := c.store.RemoveMatching(ownerID, CachePrefix(graphID, theme)); err != nil {
			return err
		}
	}
	return nil
}
