package password

import "errors"

var (
	ErrMissingSecret = errors.New("password: hash secret is not configured")
	ErrEmptyPassword = errors.New("password: empty password")
	ErrHashFailed    = errors.New("password: failed to hash password")
)
