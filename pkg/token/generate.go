package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Generate encodes payload as JSON and appends an HMAC-SHA256 signature:
// base64url(payload) "." base64url(mac).
func Generate[T any](payload T, secret string) (string, error) {
	if secret == "" {
		return "", ErrMissingSecret
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Join(ErrEncode, err)
	}
	return base64.RawURLEncoding.EncodeToString(data) + "." +
		base64.RawURLEncoding.EncodeToString(sign(data, secret)), nil
}

// Issue wraps data in an envelope bound to subject that expires after ttl.
// Each envelope carries a random nonce so identical payloads yield distinct
// tokens.
func Issue[T any](secret, subject string, data T, ttl time.Duration, now time.Time) (string, error) {
	return Generate(Envelope[T]{
		Subject:   subject,
		ExpiresAt: now.Add(ttl).Unix(),
		Nonce:     uuid.NewString(),
		Data:      data,
	}, secret)
}

func sign(data []byte, secret string) []byte {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(data)
	return h.Sum(nil)
}
