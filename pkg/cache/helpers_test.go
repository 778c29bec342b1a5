package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newMemory(t *testing.T, maxKeys int) (*MemoryBackend, *fakeClock) {
	t.Helper()
	m, err := NewMemoryBackend(maxKeys)
	require.NoError(t, err)
	clock := newFakeClock()
	m.SetClock(clock.Now)
	return m, clock
}

func newRedis(t *testing.T, prefix string) (*RedisBackend, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	return NewRedisBackend(client, prefix), mr
}

var errRemoteDown = errors.New("connection refused")

// flakyBackend fails every call while down is set
type flakyBackend struct {
	mu    sync.Mutex
	down  bool
	inner Backend
	calls int
}

func (f *flakyBackend) setDown(down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.down = down
}

func (f *flakyBackend) check() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.down {
		return errRemoteDown
	}
	return nil
}

func (f *flakyBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := f.check(); err != nil {
		return nil, false, err
	}
	return f.inner.Get(ctx, key)
}

func (f *flakyBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := f.check(); err != nil {
		return err
	}
	return f.inner.Set(ctx, key, value, ttl)
}

func (f *flakyBackend) Delete(ctx context.Context, keys ...string) error {
	if err := f.check(); err != nil {
		return err
	}
	return f.inner.Delete(ctx, keys...)
}

func (f *flakyBackend) DeletePattern(ctx context.Context, pattern string) error {
	if err := f.check(); err != nil {
		return err
	}
	return f.inner.DeletePattern(ctx, pattern)
}

func (f *flakyBackend) Clear(ctx context.Context) error {
	if err := f.check(); err != nil {
		return err
	}
	return f.inner.Clear(ctx)
}

func (f *flakyBackend) Len(ctx context.Context) (int64, error) {
	if err := f.check(); err != nil {
		return 0, err
	}
	return f.inner.Len(ctx)
}

type countingRecorder struct {
	mu        sync.Mutex
	hits      map[string]int
	misses    map[string]int
	fallbacks map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{hits: map[string]int{}, misses: map[string]int{}, fallbacks: map[string]int{}}
}

func (r *countingRecorder) RecordCacheHit(_ context.Context, tier string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hits[tier]++
}

func (r *countingRecorder) RecordCacheMiss(_ context.Context, tier string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.misses[tier]++
}

func (r *countingRecorder) RecordCacheFallback(_ context.Context, op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallbacks[op]++
}
