package ratelimiter

import (
	"context"
	"sync"
	"time"
)

type bucketState struct {
	tokens     int
	lastRefill time.Time
	lastAccess time.Time
}

// MemoryStore keeps buckets in process memory. Buckets untouched for
// StaleAfter are dropped by a background sweep.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*bucketState

	now        func() time.Time
	interval   time.Duration
	staleAfter time.Duration
	stop       chan struct{}
	stopOnce   sync.Once
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithCleanupInterval sets the sweep period. Zero disables the sweep.
func WithCleanupInterval(d time.Duration) MemoryStoreOption {
	return func(s *MemoryStore) { s.interval = d }
}

// WithStaleAfter sets how long an idle bucket survives. Default one hour.
func WithStaleAfter(d time.Duration) MemoryStoreOption {
	return func(s *MemoryStore) {
		if d > 0 {
			s.staleAfter = d
		}
	}
}

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore starts the sweep unless disabled. Call Close to stop it.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		buckets:    make(map[string]*bucketState),
		now:        time.Now,
		interval:   5 * time.Minute,
		staleAfter: time.Hour,
		stop:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.interval > 0 {
		go s.sweep()
	}
	return s
}

func (s *MemoryStore) ConsumeTokens(_ context.Context, key string, tokens int, cfg Config) (int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	b, ok := s.buckets[key]
	if !ok {
		b = &bucketState{tokens: cfg.Capacity, lastRefill: now}
		s.buckets[key] = b
	}
	b.tokens, b.lastRefill = cfg.refill(b.tokens, b.lastRefill, now)
	b.tokens -= tokens
	b.lastAccess = now

	return b.tokens, b.lastRefill.Add(cfg.RefillInterval), nil
}

func (s *MemoryStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.buckets, key)
	s.mu.Unlock()
	return nil
}

// Len returns the number of tracked keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

// RemoveStale drops buckets idle for longer than the stale threshold.
func (s *MemoryStore) RemoveStale() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, b := range s.buckets {
		if now.Sub(b.lastAccess) > s.staleAfter {
			delete(s.buckets, key)
		}
	}
}

func (s *MemoryStore) sweep() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.RemoveStale()
		case <-s.stop:
			return
		}
	}
}

// Close stops the sweep. Safe to call more than once.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}

var _ Store = (*MemoryStore)(nil)
