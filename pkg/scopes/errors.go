package scopes

import "errors"

// ErrInvalidScope is returned by Validate for malformed scopes.
var ErrInvalidScope = errors.New("scopes: invalid scope format")
