package auth

import "errors"

// Storage-level errors returned by UserDirectory and TokenStore implementations.
var (
	ErrUserNotFound      = errors.New("auth: user not found")
	ErrTokenNotFound     = errors.New("auth: session token not found")
	ErrDuplicateEmail    = errors.New("auth: email already exists")
	ErrDuplicateUsername = errors.New("auth: username already exists")
	ErrDuplicateToken    = errors.New("auth: session token already exists")
)

var (
	ErrMissingDependency       = errors.New("auth: missing dependency")
	ErrInvalidEmail            = errors.New("auth: email is required")
	ErrTwoFactorAlreadyEnabled = errors.New("auth: two-factor authentication is already enabled")
	ErrTwoFactorNotEnabled     = errors.New("auth: two-factor authentication is not enabled")
)
