package password

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

// bcryptInputLen is the longest input bcrypt accepts.
const bcryptInputLen = 72

// DefaultCost is the bcrypt work factor used when none is configured.
const DefaultCost = 10

var hashedPrefix = regexp.MustCompile(`^\$2[aby]\$`)

// Codec hashes and verifies secrets with a keyed HMAC-SHA512 pre-hash
// followed by bcrypt. Only the first 72 hex characters of the digest reach
// bcrypt, which rejects longer inputs; every byte of plain still affects
// them. The pre-hash binds stored hashes to the server secret.
type Codec struct {
	secret []byte
	pepper string
	cost   int
}

// Option configures a Codec.
type Option func(*Codec)

// WithCost sets the bcrypt cost. Values outside bcrypt's range are ignored.
func WithCost(cost int) Option {
	return func(c *Codec) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			c.cost = cost
		}
	}
}

// WithPepper appends a global pepper to every value before digesting.
func WithPepper(pepper string) Option {
	return func(c *Codec) {
		c.pepper = pepper
	}
}

// New creates a codec. An empty secret is a configuration error.
func New(secret string, opts ...Option) (*Codec, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	c := &Codec{
		secret: []byte(secret),
		cost:   DefaultCost,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// MustNew is like New but panics on error.
func MustNew(secret string, opts ...Option) *Codec {
	c, err := New(secret, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Digest returns the hex-encoded HMAC-SHA512 of value+pepper.
// It is deterministic, so it is also used to index opaque session tokens.
func (c *Codec) Digest(value string) string {
	mac := hmac.New(sha512.New, c.secret)
	mac.Write([]byte(value + c.pepper))
	return hex.EncodeToString(mac.Sum(nil))
}

// Hash returns a salted bcrypt hash of the digest of plain.
func (c *Codec) Hash(plain string) (string, error) {
	if plain == "" {
		return "", ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword(c.bcryptInput(plain), c.cost)
	if err != nil {
		return "", errors.Join(ErrHashFailed, fmt.Errorf("bcrypt: %w", err))
	}
	return string(hash), nil
}

// Verify reports whether plain matches the stored hash.
func (c *Codec) Verify(plain, stored string) bool {
	if plain == "" || stored == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), c.bcryptInput(plain)) == nil
}

func (c *Codec) bcryptInput(plain string) []byte {
	return []byte(c.Digest(plain))[:bcryptInputLen]
}

// LooksHashed reports whether value already carries a bcrypt prefix.
// Callers use it to avoid double-hashing on update paths.
func LooksHashed(value string) bool {
	return hashedPrefix.MatchString(value)
}
