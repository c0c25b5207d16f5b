package token

import "errors"

var (
	ErrInvalidToken     = errors.New("token: invalid format")
	ErrSignatureInvalid = errors.New("token: signature mismatch")
	ErrMissingSecret    = errors.New("token: missing secret")
	ErrEncode           = errors.New("token: failed to encode payload")
	ErrExpired          = errors.New("token: expired")
	ErrSubjectMismatch  = errors.New("token: subject mismatch")
)
