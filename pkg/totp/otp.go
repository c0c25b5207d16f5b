package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultDigits    = 6
	DefaultPeriod    = 30
	DefaultAlgorithm = "SHA1"
	DefaultSkew      = 1
)

var (
	secretPattern = regexp.MustCompile(`^[A-Z2-7]+=*$`)
	codePattern   = regexp.MustCompile(`^\d{6}$`)
	b32           = base32.StdEncoding.WithPadding(base32.NoPadding)
)

// URIParams describes an otpauth:// enrollment URI.
type URIParams struct {
	Secret      string
	AccountName string
	Issuer      string
}

func (p URIParams) validate() error {
	switch {
	case p.Secret == "":
		return ErrMissingSecret
	case !secretPattern.MatchString(p.Secret):
		return ErrInvalidSecret
	case p.AccountName == "":
		return ErrMissingAccountName
	case p.Issuer == "":
		return ErrMissingIssuer
	}
	return nil
}

// GenerateSecret returns a random 160-bit base32 secret.
func GenerateSecret() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Join(ErrFailedToGenerateSecret, err)
	}
	return b32.EncodeToString(buf), nil
}

// URI builds the Key URI understood by authenticator apps.
func URI(p URIParams) (string, error) {
	if err := p.validate(); err != nil {
		return "", err
	}
	q := url.Values{}
	q.Set("secret", p.Secret)
	q.Set("issuer", p.Issuer)
	q.Set("algorithm", DefaultAlgorithm)
	q.Set("digits", strconv.Itoa(DefaultDigits))
	q.Set("period", strconv.Itoa(DefaultPeriod))

	label := url.PathEscape(p.Issuer) + ":" + url.PathEscape(p.AccountName)
	return "otpauth://totp/" + label + "?" + q.Encode(), nil
}

// Validator checks 6-digit TOTP codes, tolerating Skew periods of clock drift
// in either direction.
type Validator struct {
	Skew int
	Now  func() time.Time
}

// NewValidator returns a validator with the default skew and wall clock.
func NewValidator() *Validator {
	return &Validator{Skew: DefaultSkew, Now: time.Now}
}

// Validate reports whether code is valid for secret at the current time.
func (v *Validator) Validate(secret, code string) (bool, error) {
	key, err := decodeSecret(secret)
	if err != nil {
		return false, err
	}
	code = strings.TrimSpace(code)
	if !codePattern.MatchString(code) {
		return false, ErrInvalidCode
	}

	now := time.Now
	if v.Now != nil {
		now = v.Now
	}
	counter := now().Unix() / DefaultPeriod
	for i := -v.Skew; i <= v.Skew; i++ {
		want := format(hotp(key, uint64(counter+int64(i))))
		if subtle.ConstantTimeCompare([]byte(want), []byte(code)) == 1 {
			return true, nil
		}
	}
	return false, nil
}

// GenerateAt returns the code for secret in the period containing t.
func GenerateAt(secret string, t time.Time) (string, error) {
	key, err := decodeSecret(secret)
	if err != nil {
		return "", err
	}
	return format(hotp(key, uint64(t.Unix()/DefaultPeriod))), nil
}

func decodeSecret(secret string) ([]byte, error) {
	secret = strings.ToUpper(strings.TrimSpace(secret))
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if !secretPattern.MatchString(secret) {
		return nil, ErrInvalidSecret
	}
	key, err := b32.DecodeString(strings.TrimRight(secret, "="))
	if err != nil {
		return nil, errors.Join(ErrInvalidSecret, err)
	}
	return key, nil
}

// hotp is RFC 4226 with dynamic truncation.
func hotp(key []byte, counter uint64) uint32 {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], counter)
	mac := hmac.New(sha1.New, key)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	off := sum[len(sum)-1] & 0x0f
	return (binary.BigEndian.Uint32(sum[off:off+4]) & 0x7fffffff) % 1_000_000
}

func format(code uint32) string {
	return fmt.Sprintf("%0*d", DefaultDigits, code)
}
