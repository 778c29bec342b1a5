package cache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type memoryEntry struct {
	value    []byte
	storedAt time.Time
	ttl      time.Duration
}

func (e memoryEntry) expired(now time.Time) bool {
	return e.ttl > 0 && now.Sub(e.storedAt) > e.ttl
}

// MemoryBackend is the in-process tier. It is bounded by key count with LRU
// eviction, and expires entries lazily on access. Sweep removes expired
// entries eagerly.
type MemoryBackend struct {
	entries *lru.Cache[string, memoryEntry]
	maxKeys int
	now     func() time.Time
}

// NewMemoryBackend creates a local tier holding at most maxKeys entries
func NewMemoryBackend(maxKeys int) (*MemoryBackend, error) {
	entries, err := lru.New[string, memoryEntry](maxKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to create local cache: %w", err)
	}
	return &MemoryBackend{entries: entries, maxKeys: maxKeys, now: time.Now}, nil
}

// SetClock replaces the time source, for tests
func (m *MemoryBackend) SetClock(now func() time.Time) {
	m.now = now
}

func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := m.entries.Get(key)
	if !ok {
		return nil, false, nil
	}
	if e.expired(m.now()) {
		m.entries.Remove(key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *MemoryBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.entries.Add(key, memoryEntry{value: value, storedAt: m.now(), ttl: ttl})
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		m.entries.Remove(key)
	}
	return nil
}

func (m *MemoryBackend) DeletePattern(_ context.Context, pattern string) error {
	re, err := compilePattern(pattern)
	if err != nil {
		return fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	for _, key := range m.entries.Keys() {
		if re.MatchString(key) {
			m.entries.Remove(key)
		}
	}
	return nil
}

func (m *MemoryBackend) Clear(context.Context) error {
	m.entries.Purge()
	return nil
}

func (m *MemoryBackend) Len(context.Context) (int64, error) {
	return int64(m.entries.Len()), nil
}

// Keys returns the keys currently held, expired or not
func (m *MemoryBackend) Keys() []string {
	return m.entries.Keys()
}

// MaxKeys is the configured bound
func (m *MemoryBackend) MaxKeys() int {
	return m.maxKeys
}

// Sweep removes every expired entry and returns how many were removed
func (m *MemoryBackend) Sweep() int {
	now := m.now()
	removed := 0
	for _, key := range m.entries.Keys() {
		if e, ok := m.entries.Peek(key); ok && e.expired(now) {
			m.entries.Remove(key)
			removed++
		}
	}
	return removed
}
