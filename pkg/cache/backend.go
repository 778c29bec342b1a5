package cache

import (
	"context"
	"time"
)

// Tier names used in logs and metrics
const (
	TierRemote = "remote"
	TierLocal  = "local"
)

// Backend is a single cache tier. Values are opaque bytes.
type Backend interface {
	// Get returns the value and true on a hit. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value for ttl. A ttl <= 0 stores without expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// DeletePattern removes every key matching a glob where * matches any
	// run of characters and ? matches one character.
	DeletePattern(ctx context.Context, pattern string) error
	Clear(ctx context.Context) error
	Len(ctx context.Context) (int64, error)
}

// Recorder receives cache events; observability.Metrics implements it
type Recorder interface {
	RecordCacheHit(ctx context.Context, tier string)
	RecordCacheMiss(ctx context.Context, tier string)
	RecordCacheFallback(ctx context.Context, operation string)
}

type nopRecorder struct{}

func (nopRecorder) RecordCacheHit(context.Context, string)      {}
func (nopRecorder) RecordCacheMiss(context.Context, string)     {}
func (nopRecorder) RecordCacheFallback(context.Context, string) {}
