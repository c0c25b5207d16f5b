package authkit

import "errors"

var (
	ErrUnknownStorage     = errors.New("authkit: unknown storage backend")
	ErrMissingBackendConf = errors.New("authkit: missing backend configuration")
	ErrInitFailed         = errors.New("authkit: initialization failed")
)
