package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return s, client
}

func TestRedisRateLimitStore(t *testing.T) {
	s, client := newMiniredis(t)
	store := NewRedisRateLimitStore(client)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := store.CheckRateLimit(ctx, "user:1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d", i+1)
	}
	allowed, err := store.CheckRateLimit(ctx, "user:1", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	// Other keys count separately.
	allowed, err = store.CheckRateLimit(ctx, "user:2", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	assert.True(t, s.Exists("rate_limit:user:1"))
	assert.Equal(t, time.Minute, s.TTL("rate_limit:user:1"))

	s.FastForward(time.Minute + time.Second)
	allowed, err = store.CheckRateLimit(ctx, "user:1", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisRateLimitStoreUnavailable(t *testing.T) {
	s, client := newMiniredis(t)
	store := NewRedisRateLimitStore(client)
	s.Close()

	_, err := store.CheckRateLimit(context.Background(), "user:1", 3, time.Minute)
	assert.Error(t, err)

	_, err = NewRedisRateLimitStore(nil).CheckRateLimit(context.Background(), "user:1", 3, time.Minute)
	assert.Error(t, err)
}

func TestRedisRateLimitStoreRejectsEmptyWindow(t *testing.T) {
	s, client := newMiniredis(t)
	store := NewRedisRateLimitStore(client)

	_, err := store.CheckRateLimit(context.Background(), "user:1", 3, 0)
	assert.Error(t, err)
	assert.False(t, s.Exists("rate_limit:user:1"))
}

func TestMemoryRateLimitStore(t *testing.T) {
	current := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	store := NewMemoryRateLimitStore(1, 2)
	store.now = func() time.Time { return current }
	ctx := context.Background()

	allowed, _ := store.CheckRateLimit(ctx, "user:1", 0, 0)
	assert.True(t, allowed)
	allowed, _ = store.CheckRateLimit(ctx, "user:1", 0, 0)
	assert.True(t, allowed)
	allowed, _ = store.CheckRateLimit(ctx, "user:1", 0, 0)
	assert.False(t, allowed, "burst exhausted")

	allowed, _ = store.CheckRateLimit(ctx, "user:2", 0, 0)
	assert.True(t, allowed)

	current = current.Add(time.Second)
	allowed, _ = store.CheckRateLimit(ctx, "user:1", 0, 0)
	assert.True(t, allowed, "one token refilled")
}

func TestMemoryRateLimitStoreDerivesRate(t *testing.T) {
	current := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	store := NewMemoryRateLimitStore(0, 0)
	store.now = func() time.Time { return current }
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		allowed, err := store.CheckRateLimit(ctx, "k", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	}
	allowed, _ := store.CheckRateLimit(ctx, "k", 5, time.Minute)
	assert.False(t, allowed)
}

func TestMemoryRateLimitStoreCleanup(t *testing.T) {
	current := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	store := NewMemoryRateLimitStore(1, 1)
	store.now = func() time.Time { return current }
	ctx := context.Background()

	_, _ = store.CheckRateLimit(ctx, "old", 0, 0)
	current = current.Add(10 * time.Minute)
	_, _ = store.CheckRateLimit(ctx, "fresh", 0, 0)

	assert.Equal(t, 1, store.Cleanup(5*time.Minute))
	_, stillThere := store.limiters.Load("fresh")
	assert.True(t, stillThere)
	_, gone := store.limiters.Load("old")
	assert.False(t, gone)
}

type stubStore struct {
	allowed bool
	err     error
	calls   int
}

func (s *stubStore) CheckRateLimit(context.Context, string, int, time.Duration) (bool, error) {
	s.calls++
	return s.allowed, s.err
}

func TestFailoverRateLimitStore(t *testing.T) {
	current := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	primary := &stubStore{allowed: true}
	fallback := &stubStore{allowed: false}
	store := NewFailoverRateLimitStore(primary, fallback, nil)
	store.now = func() time.Time { return current }
	ctx := context.Background()

	allowed, err := store.CheckRateLimit(ctx, "k", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.False(t, store.Degraded())

	primary.err = errors.New("connection refused")
	allowed, err = store.CheckRateLimit(ctx, "k", 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed, "served by fallback")
	assert.True(t, store.Degraded())
	assert.Equal(t, 2, primary.calls)

	// Within the recheck interval the primary is skipped.
	current = current.Add(30 * time.Second)
	_, _ = store.CheckRateLimit(ctx, "k", 1, time.Minute)
	assert.Equal(t, 2, primary.calls)
	assert.Equal(t, 2, fallback.calls)

	primary.err = nil
	current = current.Add(31 * time.Second)
	allowed, err = store.CheckRateLimit(ctx, "k", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 3, primary.calls)
	assert.False(t, store.Degraded())
}

func TestFailoverWithRedisOutage(t *testing.T) {
	s, client := newMiniredis(t)
	store := NewFailoverRateLimitStore(NewRedisRateLimitStore(client), NewMemoryRateLimitStore(0, 0), nil)
	ctx := context.Background()

	allowed, err := store.CheckRateLimit(ctx, "user:7", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	s.Close()
	allowed, err = store.CheckRateLimit(ctx, "user:7", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.True(t, store.Degraded())
}

func TestResponseCache(t *testing.T) {
	s, client := newMiniredis(t)
	cache := NewResponseCache(client, "cache:items:", time.Minute)
	ctx := context.Background()
	require.True(t, cache.Enabled())

	got, err := cache.Get(ctx, "1:/items/1")
	require.NoError(t, err)
	assert.Nil(t, got)

	want := &CachedResponse{Status: 200, ContentType: "application/json", Body: []byte(`{"id":1}`)}
	require.NoError(t, cache.Set(ctx, "1:/items/1", want))
	require.NoError(t, cache.Set(ctx, "2:/items/search?text=drill", want))
	s.Set("other", "kept")

	got, err = cache.Get(ctx, "1:/items/1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, time.Minute, s.TTL("cache:items:1:/items/1"))

	removed, err := cache.Invalidate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.True(t, s.Exists("other"))

	got, err = cache.Get(ctx, "1:/items/1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestResponseCacheDisabled(t *testing.T) {
	_, client := newMiniredis(t)
	assert.False(t, NewResponseCache(client, "p:", 0).Enabled())
	assert.False(t, NewResponseCache(nil, "p:", time.Minute).Enabled())
	var nilCache *ResponseCache
	assert.False(t, nilCache.Enabled())
}
