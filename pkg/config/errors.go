package config

import "errors"

var (
	ErrParsingConfig  = errors.New("config: failed to parse environment into config")
	ErrLoadingEnvFile = errors.New("config: failed to load env file")
	ErrNilPointer     = errors.New("config: nil pointer provided to loader")
	ErrUnknownKey     = errors.New("config: unknown key")
	ErrTypeMismatch   = errors.New("config: value type mismatch")
)
