package chart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/emiliopalmerini/effortmap/internal/storage"
	"github.com/emiliopalmerini/effortmap/internal/user"
)

func newCache(t *testing.T) (*Cache, *storage.FSStore) {
	t.Helper()
	store, err := storage.NewFSStore(t.TempDir())
	require.NoError(t, err)
	return NewCache(store, zap.NewNop()), store
}

func TestCacheKeyChangesWithUpdatedAt(t *testing.T) {
	t1 := time.UnixMilli(1700000000000)
	t2 := time.UnixMilli(1700000000001)

	k1 := CacheKey("owner", "graph", user.ThemeDark, t1)
	k2 := CacheKey("owner", "graph", user.ThemeDark, t2)

	assert.Equal(t, "owner/graph-dark-1700000000000.png", k1)
	assert.NotEqual(t, k1, k2, "any updated_at change must rotate the key")
}

func TestCacheKeyThemesAreIndependent(t *testing.T) {
	ts := time.UnixMilli(1700000000000)
	dark := CacheKey("owner", "graph", user.ThemeDark, ts)
	light := CacheKey("owner", "graph", user.ThemeLight, ts)
	assert.NotEqual(t, dark, light)
}

func TestFetchMissRendersAndStores(t *testing.T) {
	cache, store := newCache(t)
	ts := time.UnixMilli(1700000000000)

	renders := 0
	result, err := cache.Fetch(context.Background(), "owner", "graph", user.ThemeDark, ts, false,
		func(context.Context) ([]byte, error) {
			renders++
			return []byte("fresh"), nil
		})

	require.NoError(t, err)
	assert.Equal(t, 1, renders)
	assert.False(t, result.Cached)
	assert.True(t, result.Stored)
	assert.Equal(t, []byte("fresh"), result.Bytes)
	assert.True(t, store.Exists(result.Key))
}

func TestFetchHitSkipsRender(t *testing.T) {
	cache, store := newCache(t)
	ts := time.UnixMilli(1700000000000)
	key := CacheKey("owner", "graph", user.ThemeDark, ts)
	require.NoError(t, store.Put(key, []byte("cached")))

	result, err := cache.Fetch(context.Background(), "owner", "graph", user.ThemeDark, ts, false,
		func(context.Context) ([]byte, error) {
			t.Fatal("render must not run on a cache hit")
			return nil, nil
		})

	require.NoError(t, err)
	assert.True(t, result.Cached)
	assert.Equal(t, key, result.Key)
	assert.Nil(t, result.Bytes, "hit serves the stored blob, not bytes")
}

func TestRefreshForcesRenderAndSweepsPrefix(t *testing.T) {
	cache, store := newCache(t)
	ts := time.UnixMilli(1700000000000)
	key := CacheKey("owner", "graph", user.ThemeDark, ts)

	// Current key plus a stale one from an earlier updated_at.
	require.NoError(t, store.Put(key, []byte("cached")))
	require.NoError(t, store.Put("owner/graph-dark-1600000000000.png", []byte("stale")))
	// Another theme and another graph must survive the sweep.
	require.NoError(t, store.Put("owner/graph-light-1600000000000.png", []byte("other-theme")))
	require.NoError(t, store.Put("owner/second-dark-1600000000000.png", []byte("other-graph")))

	result, err := cache.Fetch(context.Background(), "owner", "graph", user.ThemeDark, ts, true,
		func(context.Context) ([]byte, error) { return []byte("fresh"), nil })

	require.NoError(t, err)
	assert.False(t, result.Cached)
	assert.Equal(t, []byte("fresh"), result.Bytes)

	data, err := store.Get(key)
	require.NoError(t, err)
	assert.Equal(t, []byte("fresh"), data, "refresh overwrites the cached blob")
	assert.False(t, store.Exists("owner/graph-dark-1600000000000.png"), "stale keys are swept")
	assert.True(t, store.Exists("owner/graph-light-1600000000000.png"))
	assert.True(t, store.Exists("owner/second-dark-1600000000000.png"))
}

func TestUpdatedAtChangeIsAMiss(t *testing.T) {
	cache, store := newCache(t)
	t1 := time.UnixMilli(1700000000000)
	t2 := time.UnixMilli(1700000005000)

	_, err := cache.Fetch(context.Background(), "owner", "graph", user.ThemeDark, t1, false,
		func(context.Context) ([]byte, error) { return []byte("v1"), nil })
	require.NoError(t, err)

	result, err := cache.Fetch(context.Background(), "owner", "graph", user.ThemeDark, t2, false,
		func(context.Context) ([]byte, error) { return []byte("v2"), nil })
	require.NoError(t, err)

	assert.False(t, result.Cached)
	assert.False(t, store.Exists(CacheKey("owner", "graph", user.ThemeDark, t1)),
		"the old key's blob is swept by the miss path")
	assert.True(t, store.Exists(CacheKey("owner", "graph", user.ThemeDark, t2)))
}

func TestRenderFailurePropagates(t *testing.T) {
	cache, _ := newCache(t)

	_, err := cache.Fetch(context.Background(), "owner", "graph", user.ThemeDark, time.Now(), false,
		func(context.Context) ([]byte, error) { return nil, errors.New("render broke") })
	assert.Error(t, err)
}

func TestInvalidateRemovesBothThemes(t *testing.T) {
	cache, store := newCache(t)

	require.NoError(t, store.Put("owner/graph-dark-1.png", []byte("a")))
	require.NoError(t, store.Put("owner/graph-light-2.png", []byte("b")))
	require.NoError(t, store.Put("owner/other-dark-3.png", []byte("c")))

	require.NoError(t, cache.Invalidate("owner", "graph"))

	assert.False(t, store.Exists("owner/graph-dark-1.png"))
	assert.False(t, store.Exists("owner/graph-light-2.png"))
	assert.True(t, store.Exists("owner/other-dark-3.png"))
}
