package cache

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Tiered is the cache used by services. It never returns remote-tier errors.
type Tiered struct {
	remote   Backend
	local    Backend
	log      logrus.FieldLogger
	recorder Recorder
	group    singleflight.Group
}

// Option configures a Tiered cache
type Option func(*Tiered)

// WithLogger sets the logger used for remote-tier warnings
func WithLogger(log logrus.FieldLogger) Option {
	return func(t *Tiered) { t.log = log }
}

// WithRecorder sets the metrics sink
func WithRecorder(r Recorder) Option {
	return func(t *Tiered) { t.recorder = r }
}

// NewTiered builds a cache over remote and local. remote may be nil, in which
// case the cache runs on the local tier alone.
func NewTiered(remote, local Backend, opts ...Option) *Tiered {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	t := &Tiered{
		remote:   remote,
		local:    local,
		log:      discard,
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tiered) remoteFailed(ctx context.Context, op, key string, err error) {
	t.recorder.RecordCacheFallback(ctx, op)
	t.log.WithError(err).WithFields(logrus.Fields{
		"tier":      TierRemote,
		"operation": op,
		"key":       key,
	}).Warn("remote cache unavailable, using local tier")
}

// Get returns the cached bytes for key
func (t *Tiered) Get(ctx context.Context, key string) ([]byte, bool) {
	if t.remote != nil {
		value, ok, err := t.remote.Get(ctx, key)
		if err == nil {
			t.record(ctx, TierRemote, ok)
			return value, ok
		}
		t.remoteFailed(ctx, "get", key, err)
	}

	value, ok, _ := t.local.Get(ctx, key)
	t.record(ctx, TierLocal, ok)
	return value, ok
}

func (t *Tiered) record(ctx context.Context, tier string, hit bool) {
	if hit {
		t.recorder.RecordCacheHit(ctx, tier)
	} else {
		t.recorder.RecordCacheMiss(ctx, tier)
	}
}

// Set writes value to both tiers
func (t *Tiered) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if t.remote != nil {
		if err := t.remote.Set(ctx, key, value, ttl); err != nil {
			t.remoteFailed(ctx, "set", key, err)
		}
	}
	t.local.Set(ctx, key, value, ttl)
}

// Delete removes keys from both tiers
func (t *Tiered) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if t.remote != nil {
		if err := t.remote.Delete(ctx, keys...); err != nil {
			t.remoteFailed(ctx, "delete", keys[0], err)
		}
	}
	t.local.Delete(ctx, keys...)
}

// DeletePattern removes every key matching pattern from both tiers
func (t *Tiered) DeletePattern(ctx context.Context, pattern string) {
	if t.remote != nil {
		if err := t.remote.DeletePattern(ctx, pattern); err != nil {
			t.remoteFailed(ctx, "delete_pattern", pattern, err)
		}
	}
	if err := t.local.DeletePattern(ctx, pattern); err != nil {
		t.log.WithError(err).WithField("pattern", pattern).Error("local cache pattern delete failed")
	}
}

// Clear empties both tiers
func (t *Tiered) Clear(ctx context.Context) {
	if t.remote != nil {
		if err := t.remote.Clear(ctx); err != nil {
			t.remoteFailed(ctx, "clear", "*", err)
		}
	}
	t.local.Clear(ctx)
}

// GetJSON decodes a cached JSON value into dest. A value that fails to
// decode is dropped and reported as a miss.
func (t *Tiered) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	data, ok := t.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		t.log.WithError(err).WithField("key", key).Warn("dropping undecodable cache entry")
		t.Delete(ctx, key)
		return false
	}
	return true
}

// SetJSON encodes value as JSON and stores it
func (t *Tiered) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	t.Set(ctx, key, data, ttl)
	return nil
}

// Stats describes the cache for the admin stats endpoint
type Stats struct {
	RemoteEnabled   bool  `json:"remoteEnabled"`
	RemoteAvailable bool  `json:"remoteAvailable"`
	RemoteKeys      int64 `json:"remoteKeys"`
	LocalKeys       int64 `json:"localKeys"`
}

// Stats reports tier availability and sizes
func (t *Tiered) Stats(ctx context.Context) Stats {
	var s Stats
	if t.remote != nil {
		s.RemoteEnabled = true
		if n, err := t.remote.Len(ctx); err == nil {
			s.RemoteAvailable = true
			s.RemoteKeys = n
		}
	}
	s.LocalKeys, _ = t.local.Len(ctx)
	return s
}
