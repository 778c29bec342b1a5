package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userStats struct {
	Total  int            `json:"total"`
	ByRole map[string]int `json:"byRole"`
}

func TestFetch_LoadsOnceThenHits(t *testing.T) {
	ctx := context.Background()
	local, _ := newMemory(t, 10)
	c := NewTiered(nil, local)

	var calls int32
	load := func(context.Context) (userStats, error) {
		atomic.AddInt32(&calls, 1)
		return userStats{Total: 3, ByRole: map[string]int{"ADMIN": 3}}, nil
	}

	first, err := Fetch(ctx, c, "users:stats:all:all:all:all", time.Minute, load)
	require.NoError(t, err)
	second, err := Fetch(ctx, c, "users:stats:all:all:all:all", time.Minute, load)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetch_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	local, _ := newMemory(t, 10)
	c := NewTiered(nil, local)

	_, err := Fetch(ctx, c, "k", time.Minute, func(context.Context) (int, error) {
		return 0, errors.New("db down")
	})
	assert.Error(t, err)

	got, err := Fetch(ctx, c, "k", time.Minute, func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, got)
}

func TestFetch_CollapsesConcurrentMisses(t *testing.T) {
	ctx := context.Background()
	local, _ := newMemory(t, 10)
	c := NewTiered(nil, local)

	var calls int32
	release := make(chan struct{})
	load := func(context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return 42, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := Fetch(ctx, c, "dashboard:stats:all:all:all", time.Minute, load)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, v := range results {
		assert.Equal(t, 42, v)
	}
}
