package token

import (
	"crypto/hmac"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Envelope is the signed wrapper produced by Issue.
type Envelope[T any] struct {
	Subject   string `json:"sub"`
	ExpiresAt int64  `json:"exp"`
	Nonce     string `json:"n"`
	Data      T      `json:"d"`
}

// Parse verifies the signature and decodes the payload.
func Parse[T any](token, secret string) (T, error) {
	var payload T
	if secret == "" {
		return payload, ErrMissingSecret
	}

	enc, encSig, ok := strings.Cut(token, ".")
	if !ok || enc == "" || encSig == "" || strings.Contains(encSig, ".") {
		return payload, ErrInvalidToken
	}
	data, err := base64.RawURLEncoding.DecodeString(enc)
	if err != nil {
		return payload, errors.Join(ErrInvalidToken, err)
	}
	sig, err := base64.RawURLEncoding.DecodeString(encSig)
	if err != nil {
		return payload, errors.Join(ErrInvalidToken, err)
	}
	if !hmac.Equal(sig, sign(data, secret)) {
		return payload, ErrSignatureInvalid
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, errors.Join(ErrInvalidToken, err)
	}
	return payload, nil
}

// Verify parses an envelope produced by Issue and checks subject and expiry.
func Verify[T any](secret, subject, token string, now time.Time) (T, error) {
	var zero T
	env, err := Parse[Envelope[T]](token, secret)
	if err != nil {
		return zero, err
	}
	if env.Subject != subject {
		return zero, ErrSubjectMismatch
	}
	if now.Unix() >= env.ExpiresAt {
		return zero, ErrExpired
	}
	return env.Data, nil
}
