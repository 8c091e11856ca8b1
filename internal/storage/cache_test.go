package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Imdraks/faxcloud-analyzer/internal/shared/testutil"
)

var testTime = time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC)

type countingObserver struct {
	mu     sync.Mutex
	hits   int
	misses int
}

func (o *countingObserver) RecordCacheLookup(_ context.Context, hit bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if hit {
		o.hits++
	} else {
		o.misses++
	}
}

func newCachedStore(t *testing.T) (*CachedStore, *MemoryStore, *miniredis.Miniredis, *countingObserver) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	logger, _ := testutil.NewTestLogger(t)
	inner := NewMemoryStore()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	obs := &countingObserver{}
	return NewCachedStore(inner, client, time.Minute, logger).WithObserver(obs), inner, mr, obs
}

func TestCachedStore(t *testing.T) {
	store, _, _, _ := newCachedStore(t)
	defer store.Close()
	exerciseStore(t, store)
}

func TestCachedStore_ReadThrough(t *testing.T) {
	ctx := context.Background()
	store, inner, mr, obs := newCachedStore(t)

	id, err := inner.Save(ctx, sampleReport("cold.csv", testTime))
	require.NoError(t, err)
	assert.False(t, mr.Exists(cacheKey(id)))

	first, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, mr.Exists(cacheKey(id)))
	assert.Equal(t, time.Minute, mr.TTL(cacheKey(id)))

	second, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, obs.hits)
	assert.Equal(t, 1, obs.misses)
}

func TestCachedStore_SavePrimesAndDeleteInvalidates(t *testing.T) {
	ctx := context.Background()
	store, _, mr, _ := newCachedStore(t)

	id, err := store.Save(ctx, sampleReport("warm.csv", testTime))
	require.NoError(t, err)
	assert.True(t, mr.Exists(cacheKey(id)))

	require.NoError(t, store.Delete(ctx, id))
	assert.False(t, mr.Exists(cacheKey(id)))
}

func TestCachedStore_RedisDown(t *testing.T) {
	ctx := context.Background()
	store, _, mr, obs := newCachedStore(t)

	id, err := store.Save(ctx, sampleReport("down.csv", testTime))
	require.NoError(t, err)

	mr.Close()

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "down.csv", got.FileName)
	assert.Equal(t, 1, obs.misses)
	assert.NoError(t, store.Ping(ctx))
}

func TestCachedStore_CorruptEntry(t *testing.T) {
	ctx := context.Background()
	store, inner, mr, _ := newCachedStore(t)

	id, err := inner.Save(ctx, sampleReport("bad.csv", testTime))
	require.NoError(t, err)
	require.NoError(t, mr.Set(cacheKey(id), "{not json"))

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "bad.csv", got.FileName)
}

// readDuringDelete reads through the cache while the inner delete is in flight
type readDuringDelete struct {
	*MemoryStore
	cache *CachedStore
}

func (s *readDuringDelete) Delete(ctx context.Context, id string) error {
	_, _ = s.cache.Get(ctx, id)
	return s.MemoryStore.Delete(ctx, id)
}

func TestCachedStore_DeleteWithConcurrentReader(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	logger, _ := testutil.NewTestLogger(t)
	inner := &readDuringDelete{MemoryStore: NewMemoryStore()}
	store := NewCachedStore(inner, redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute, logger)
	inner.cache = store
	defer store.Close()

	id, err := store.Save(ctx, sampleReport("race.csv", testTime))
	require.NoError(t, err)
	mr.Del(cacheKey(id))

	require.NoError(t, store.Delete(ctx, id))
	assert.False(t, mr.Exists(cacheKey(id)))

	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCachedStore_DeleteMissingStillInvalidates(t *testing.T) {
	ctx := context.Background()
	store, _, mr, _ := newCachedStore(t)

	require.NoError(t, mr.Set(cacheKey("ghost"), "{}"))

	err := store.Delete(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, mr.Exists(cacheKey("ghost")))
}
