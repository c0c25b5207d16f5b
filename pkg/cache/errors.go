package cache

import "errors"

var (
	ErrMiss       = errors.New("cache: miss")
	ErrEmptyKey   = errors.New("cache: empty key")
	ErrBadPattern = errors.New("cache: malformed pattern")
	ErrEncode     = errors.New("cache: failed to encode value")
	ErrDecode     = errors.New("cache: failed to decode value")
)
