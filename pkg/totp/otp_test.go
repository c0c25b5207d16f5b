package totp_test

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/totp"
)

// RFC 6238 appendix B secret "12345678901234567890" in base32.
const rfcSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func TestGenerateAt_RFCVectors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		unix int64
		want string
	}{
		{59, "287082"},
		{1111111109, "081804"},
		{1111111111, "050471"},
		{1234567890, "005924"},
		{2000000000, "279037"},
	}
	for _, tt := range tests {
		got, err := totp.GenerateAt(rfcSecret, time.Unix(tt.unix, 0))
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "t=%d", tt.unix)
	}
}

func TestValidator_Validate(t *testing.T) {
	t.Parallel()

	now := time.Unix(1234567890, 0)
	v := &totp.Validator{Skew: 1, Now: func() time.Time { return now }}

	current, err := totp.GenerateAt(rfcSecret, now)
	require.NoError(t, err)
	previous, err := totp.GenerateAt(rfcSecret, now.Add(-30*time.Second))
	require.NoError(t, err)
	stale, err := totp.GenerateAt(rfcSecret, now.Add(-90*time.Second))
	require.NoError(t, err)

	ok, err := v.Validate(rfcSecret, current)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = v.Validate(strings.ToLower(rfcSecret), " "+previous+" ")
	require.NoError(t, err)
	assert.True(t, ok, "skew tolerates one period and input is normalized")

	ok, err = v.Validate(rfcSecret, stale)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = v.Validate(rfcSecret, "12ab56")
	assert.ErrorIs(t, err, totp.ErrInvalidCode)
	_, err = v.Validate("not base32!", current)
	assert.ErrorIs(t, err, totp.ErrInvalidSecret)
	_, err = v.Validate("", current)
	assert.ErrorIs(t, err, totp.ErrMissingSecret)
}

func TestGenerateSecret(t *testing.T) {
	t.Parallel()

	a, err := totp.GenerateSecret()
	require.NoError(t, err)
	b, err := totp.GenerateSecret()
	require.NoError(t, err)
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)

	code, err := totp.GenerateAt(a, time.Now())
	require.NoError(t, err)
	ok, err := totp.NewValidator().Validate(a, code)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestURI(t *testing.T) {
	t.Parallel()

	uri, err := totp.URI(totp.URIParams{Secret: rfcSecret, AccountName: "jane@example.com", Issuer: "Auth Kit"})
	require.NoError(t, err)

	u, err := url.Parse(uri)
	require.NoError(t, err)
	assert.Equal(t, "otpauth", u.Scheme)
	assert.Equal(t, "totp", u.Host)
	assert.Equal(t, rfcSecret, u.Query().Get("secret"))
	assert.Equal(t, "Auth Kit", u.Query().Get("issuer"))
	assert.Equal(t, "6", u.Query().Get("digits"))

	_, err = totp.URI(totp.URIParams{AccountName: "a", Issuer: "b"})
	assert.ErrorIs(t, err, totp.ErrMissingSecret)
	_, err = totp.URI(totp.URIParams{Secret: rfcSecret, Issuer: "b"})
	assert.ErrorIs(t, err, totp.ErrMissingAccountName)
	_, err = totp.URI(totp.URIParams{Secret: rfcSecret, AccountName: "a"})
	assert.ErrorIs(t, err, totp.ErrMissingIssuer)
}

func TestCipher(t *testing.T) {
	t.Parallel()

	_, err := totp.NewCipher("")
	assert.ErrorIs(t, err, totp.ErrEncryptionKeyNotSet)

	c, err := totp.NewCipher("passphrase")
	require.NoError(t, err)

	sealed, err := c.Seal(rfcSecret)
	require.NoError(t, err)
	assert.NotContains(t, sealed, rfcSecret)

	again, err := c.Seal(rfcSecret)
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce must be random")

	opened, err := c.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, rfcSecret, opened)

	other, err := totp.NewCipher("other")
	require.NoError(t, err)
	_, err = other.Open(sealed)
	assert.ErrorIs(t, err, totp.ErrFailedToDecryptSecret)

	_, err = c.Open("%%%")
	assert.ErrorIs(t, err, totp.ErrFailedToDecryptSecret)
	_, err = c.Open("AAAA")
	assert.ErrorIs(t, err, totp.ErrFailedToDecryptSecret)
}
