package jwt

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTTL applies when Generate is called with a non-positive ttl.
const DefaultTTL = 30 * 24 * time.Hour

// Claims is the token payload: the subject id plus registered claims.
// A random jti keeps two tokens issued for the same user in the same second
// distinct, which the server-side token store relies on.
type Claims struct {
	UserID string `json:"id"`
	gojwt.RegisteredClaims
}

// Codec signs and verifies HS256 tokens.
type Codec struct {
	key    []byte
	issuer string
	now    func() time.Time
}

// Option configures a Codec.
type Option func(*Codec)

// WithIssuer sets the iss claim on generated tokens and requires it on parse.
func WithIssuer(issuer string) Option {
	return func(c *Codec) {
		c.issuer = issuer
	}
}

// WithTimeFunc overrides the clock used for signing and validation.
func WithTimeFunc(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a codec with the given signing key.
func New(signingKey string, opts ...Option) (*Codec, error) {
	if signingKey == "" {
		return nil, ErrMissingSigningKey
	}
	c := &Codec{
		key: []byte(signingKey),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Generate issues a signed token for userID that expires after ttl.
func (c *Codec) Generate(userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", ErrMissingSubject
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	now := c.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: gojwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    c.issuer,
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", errors.Join(ErrSigningFailed, err)
	}
	return signed, nil
}

// Parse verifies the signature and expiry of tokenString.
// Expired tokens yield ErrExpiredToken; every other failure ErrInvalidToken.
func (c *Codec) Parse(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithExpirationRequired(),
		gojwt.WithTimeFunc(c.now),
	}
	if c.issuer != "" {
		opts = append(opts, gojwt.WithIssuer(c.issuer))
	}

	claims := &Claims{}
	token, err := gojwt.ParseWithClaims(tokenString, claims, func(t *gojwt.Token) (any, error) {
		if _, ok := t.Method.(*gojwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.key, nil
	}, opts...)
	switch {
	case errors.Is(err, gojwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case err != nil:
		return nil, errors.Join(ErrInvalidToken, err)
	case !token.Valid || claims.UserID == "":
		return nil, ErrInvalidToken
	}
	return claims, nil
}
