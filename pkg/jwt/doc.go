// Package jwt issues and verifies the HS256 bearer tokens used for sessions.
//
// The payload carries the user id under "id" plus the registered exp, iat
// and jti claims. Parsing distinguishes expiry (ErrExpiredToken) from every
// other failure (ErrInvalidToken) so callers can map them to distinct
// outcomes.
//
//	codec, err := jwt.New(secret)
//	token, err := codec.Generate(userID, 24*time.Hour)
//	claims, err := codec.Parse(token)
//
// Middleware performs stateless verification only.
package jwt
