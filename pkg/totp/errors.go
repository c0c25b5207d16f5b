package totp

import "errors"

var (
	ErrMissingSecret          = errors.New("totp: missing secret")
	ErrInvalidSecret          = errors.New("totp: invalid secret")
	ErrMissingAccountName     = errors.New("totp: missing account name")
	ErrMissingIssuer          = errors.New("totp: missing issuer")
	ErrInvalidCode            = errors.New("totp: invalid code format")
	ErrFailedToGenerateSecret = errors.New("totp: failed to generate secret")
	ErrEncryptionKeyNotSet    = errors.New("totp: encryption key not set")
	ErrFailedToEncryptSecret  = errors.New("totp: failed to encrypt secret")
	ErrFailedToDecryptSecret  = errors.New("totp: failed to decrypt secret")
)
