package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	cacheMu sync.Mutex
	cached  = make(map[reflect.Type]any)

	dotenvOnce sync.Once
)

// LoadEnv loads the given .env files into the process environment without
// overriding variables that are already set. With no arguments it loads ./.env
// and silently ignores a missing file.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		dotenvOnce.Do(func() { _ = godotenv.Load() })
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return errors.Join(ErrLoadingEnvFile, err)
	}
	return nil
}

// Parse reads env tags on T without caching.
func Parse[T any]() (T, error) {
	_ = LoadEnv()
	v, err := env.ParseAs[T]()
	if err != nil {
		return v, errors.Join(ErrParsingConfig, err)
	}
	return v, nil
}

// Load parses T once per process and returns the cached copy afterwards.
//
//	var cfg redis.Config
//	if err := config.Load(&cfg); err != nil { ... }
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}
	key := reflect.TypeFor[T]()

	cacheMu.Lock()
	defer cacheMu.Unlock()

	if c, ok := cached[key]; ok {
		*v = c.(T)
		return nil
	}

	parsed, err := Parse[T]()
	if err != nil {
		return err
	}
	cached[key] = parsed
	*v = parsed
	return nil
}

// MustLoad is like Load but panics on error.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("config: failed to load %T: %v", *v, err))
	}
}

// Reset drops every cached configuration. Intended for tests.
func Reset() {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	clear(cached)
}
