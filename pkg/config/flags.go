package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrymomot/authkit/pkg/logger"
	"github.com/dmitrymomot/authkit/pkg/scopes"
)

// ChangeFunc is called after a key has been updated.
type ChangeFunc func(key string, value any)

type subscription struct {
	id      uint64
	pattern string
	fn      ChangeFunc
}

// Flags is a concurrency-safe snapshot of runtime settings addressed by dotted
// keys such as "user.signup.enabled". Readers always see the latest stored
// value; subscribers run after the value is stored.
type Flags struct {
	mu     sync.RWMutex
	values map[string]any
	subs   []subscription
	nextID uint64
	logger *slog.Logger
}

// FlagsOption configures Flags.
type FlagsOption func(*Flags)

// WithFlagsLogger sets the logger used to report subscriber panics.
func WithFlagsLogger(l *slog.Logger) FlagsOption {
	return func(f *Flags) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFlags creates a snapshot seeded with defaults.
func NewFlags(defaults map[string]any, opts ...FlagsOption) *Flags {
	f := &Flags{
		values: make(map[string]any, len(defaults)),
		logger: logger.Discard(),
	}
	for k, v := range defaults {
		f.values[k] = v
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Set stores value under key and then notifies matching subscribers
// synchronously on the calling goroutine.
func (f *Flags) Set(key string, value any) {
	f.mu.Lock()
	f.values[key] = value
	var notify []ChangeFunc
	for _, s := range f.subs {
		if s.pattern == key || scopes.Match(s.pattern, key) {
			notify = append(notify, s.fn)
		}
	}
	f.mu.Unlock()

	for _, fn := range notify {
		f.call(fn, key, value)
	}
}

func (f *Flags) call(fn ChangeFunc, key string, value any) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("config subscriber panicked",
				logger.Component("config"),
				slog.String("key", key),
				slog.Any("panic", r),
			)
		}
	}()
	fn(key, value)
}

// Subscribe registers fn for keys matching pattern ("mail.**", "user.*.enabled"
// or an exact key). The returned func removes the subscription.
func (f *Flags) Subscribe(pattern string, fn ChangeFunc) (unsubscribe func()) {
	f.mu.Lock()
	f.nextID++
	id := f.nextID
	f.subs = append(f.subs, subscription{id: id, pattern: pattern, fn: fn})
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		for i, s := range f.subs {
			if s.id == id {
				f.subs = append(f.subs[:i], f.subs[i+1:]...)
				return
			}
		}
	}
}

// Get returns the raw value stored under key.
func (f *Flags) Get(key string) (any, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.values[key]
	return v, ok
}

// Snapshot returns a copy of every stored value.
func (f *Flags) Snapshot() map[string]any {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make(map[string]any, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out
}

// Bool returns the value under key as a bool. Missing or unparsable values
// are false.
func (f *Flags) Bool(key string) bool {
	v, _ := f.Get(key)
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, _ := strconv.ParseBool(b)
		return parsed
	}
	return false
}

// String returns the value under key formatted as a string.
func (f *Flags) String(key string) string {
	v, ok := f.Get(key)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Duration returns the value under key as a duration. Strings accept
// time.ParseDuration syntax plus a "d" suffix for days; integers are seconds.
func (f *Flags) Duration(key string) (time.Duration, error) {
	v, ok := f.Get(key)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	switch d := v.(type) {
	case time.Duration:
		return d, nil
	case int:
		return time.Duration(d) * time.Second, nil
	case int64:
		return time.Duration(d) * time.Second, nil
	case string:
		return ParseDuration(d)
	}
	return 0, fmt.Errorf("%w: %s is %T", ErrTypeMismatch, key, v)
}

// ParseDuration extends time.ParseDuration with a whole-day unit ("30d").
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrTypeMismatch, s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrTypeMismatch, s)
	}
	return d, nil
}
