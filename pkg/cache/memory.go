package cache

import (
	"context"
	"path"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultMemorySize   = 10_000
	DefaultMemoryMaxTTL = time.Hour
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is an in-process Cache backed by an expirable LRU.
// Entries live for the shorter of their own ttl and the cache-wide max TTL.
type Memory struct {
	lru *expirable.LRU[string, memoryEntry]
	now func() time.Time

	// nx serializes SetNX check-and-add.
	nx sync.Mutex
}

// MemoryOption configures a Memory cache.
type MemoryOption func(*memoryConfig)

type memoryConfig struct {
	size   int
	maxTTL time.Duration
	now    func() time.Time
}

// WithSize bounds the number of entries. Zero disables the bound.
func WithSize(size int) MemoryOption {
	return func(c *memoryConfig) {
		c.size = size
	}
}

// WithMaxTTL caps how long any entry may live.
func WithMaxTTL(ttl time.Duration) MemoryOption {
	return func(c *memoryConfig) {
		c.maxTTL = ttl
	}
}

// WithClock overrides time.Now for expiry checks.
func WithClock(now func() time.Time) MemoryOption {
	return func(c *memoryConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// NewMemory creates an in-process cache.
func NewMemory(opts ...MemoryOption) *Memory {
	cfg := memoryConfig{
		size:   DefaultMemorySize,
		maxTTL: DefaultMemoryMaxTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Memory{
		lru: expirable.NewLRU[string, memoryEntry](cfg.size, nil, cfg.maxTTL),
		now: cfg.now,
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	e, ok := m.lru.Get(key)
	if !ok {
		return nil, ErrMiss
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		m.lru.Remove(key)
		return nil, ErrMiss
	}
	return e.value, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return ErrEmptyKey
	}
	e := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.lru.Add(key, e)
	return nil
}

func (m *Memory) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}
	m.nx.Lock()
	defer m.nx.Unlock()
	if _, err := m.Get(ctx, key); err == nil {
		return false, nil
	}
	return true, m.Set(ctx, key, value, ttl)
}

func (m *Memory) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		m.lru.Remove(k)
	}
	return nil
}

func (m *Memory) Clean(_ context.Context, pattern string) error {
	if _, err := path.Match(pattern, ""); err != nil {
		return ErrBadPattern
	}
	for _, k := range m.lru.Keys() {
		if ok, _ := path.Match(pattern, k); ok {
			m.lru.Remove(k)
		}
	}
	return nil
}

// Len reports the number of live and not yet swept entries.
func (m *Memory) Len() int {
	return m.lru.Len()
}
