package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/authkit/pkg/auth"
	"github.com/dmitrymomot/authkit/pkg/cache"
	"github.com/dmitrymomot/authkit/pkg/config"
	"github.com/dmitrymomot/authkit/pkg/email"
	"github.com/dmitrymomot/authkit/pkg/jwt"
	"github.com/dmitrymomot/authkit/pkg/metrics"
	"github.com/dmitrymomot/authkit/pkg/password"
)

const (
	testJWTKey     = "jwt-signing-key"
	testLinkSecret = "magic-link-secret"
	testPassword   = "correct horse battery staple"
)

type mailbox struct {
	mu   sync.Mutex
	msgs []email.Message
	err  error
}

func (b *mailbox) Send(_ context.Context, msg email.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.msgs = append(b.msgs, msg)
	return nil
}

func (b *mailbox) last(t *testing.T) email.Message {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	require.NotEmpty(t, b.msgs, "no mail sent")
	return b.msgs[len(b.msgs)-1]
}

func (b *mailbox) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.msgs)
}

type fixture struct {
	mgr       *auth.Manager
	users     *auth.MemoryUsers
	tokens    *auth.MemoryTokens
	flags     *config.Flags
	cache     *cache.Memory
	mail      *mailbox
	passwords *password.Codec
	codec     *jwt.Codec
	metrics   *metrics.Metrics
}

type fixtureConfig struct {
	flags  map[string]any
	tokens auth.TokenStore
	users  auth.UserDirectory
	opts   []auth.Option
}

func newFixture(t *testing.T, flags map[string]any, opts ...auth.Option) *fixture {
	t.Helper()
	return newFixtureWith(t, fixtureConfig{flags: flags, opts: opts})
}

func newFixtureWith(t *testing.T, fc fixtureConfig) *fixture {
	t.Helper()

	passwords, err := password.New("pepper-secret", password.WithCost(bcrypt.MinCost))
	require.NoError(t, err)
	codec, err := jwt.New(testJWTKey)
	require.NoError(t, err)

	values := auth.DefaultFlags()
	values[auth.FlagMailEnabled] = true
	for k, v := range fc.flags {
		values[k] = v
	}

	f := &fixture{
		users:     auth.NewMemoryUsers(),
		tokens:    auth.NewMemoryTokens(),
		flags:     config.NewFlags(values),
		cache:     cache.NewMemory(),
		mail:      &mailbox{},
		passwords: passwords,
		codec:     codec,
		metrics:   metrics.New(prometheus.NewRegistry()),
	}

	var users auth.UserDirectory = f.users
	if fc.users != nil {
		users = fc.users
	}
	var tokens auth.TokenStore = f.tokens
	if fc.tokens != nil {
		tokens = fc.tokens
	}

	opts := append([]auth.Option{auth.WithMetrics(f.metrics)}, fc.opts...)
	f.mgr, err = auth.NewManager(auth.Deps{
		Users:      users,
		Tokens:     tokens,
		Passwords:  passwords,
		JWT:        codec,
		Flags:      f.flags,
		Cache:      f.cache,
		Mailer:     f.mail,
		LinkSecret: testLinkSecret,
	}, opts...)
	require.NoError(t, err)
	return f
}

// seedUser inserts a verified, active user with testPassword.
func (f *fixture) seedUser(t *testing.T, addr string, mutate ...func(*auth.User)) *auth.User {
	t.Helper()
	hash, err := f.passwords.Hash(testPassword)
	require.NoError(t, err)

	u := &auth.User{
		ID:           "user-" + addr,
		Email:        auth.NormalizeEmail(addr),
		PasswordHash: hash,
		Verified:     true,
		Status:       auth.StatusActive,
		Role:         auth.DefaultRole,
		CreatedAt:    time.Now(),
	}
	for _, fn := range mutate {
		fn(u)
	}
	require.NoError(t, f.users.Insert(context.Background(), u))
	return u
}

func (f *fixture) login(t *testing.T, addr string) string {
	t.Helper()
	res, err := f.mgr.Login(context.Background(), auth.LoginParams{Identifier: addr, Password: testPassword})
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	return res.Token
}

// session stores a token for u directly, bypassing Login checks.
func (f *fixture) session(t *testing.T, u *auth.User) string {
	t.Helper()
	raw, err := f.codec.Generate(u.ID, time.Hour)
	require.NoError(t, err)
	require.NoError(t, f.tokens.Insert(context.Background(), auth.SessionToken{
		ID:        "tok-" + u.ID,
		UserID:    u.ID,
		TokenHash: f.passwords.Digest(raw),
		IssuedAt:  time.Now(),
	}))
	return raw
}

func TestNewManager_RequiresDependencies(t *testing.T) {
	t.Parallel()

	passwords := password.MustNew("secret")
	codec, err := jwt.New(testJWTKey)
	require.NoError(t, err)

	full := auth.Deps{
		Users:     auth.NewMemoryUsers(),
		Tokens:    auth.NewMemoryTokens(),
		Passwords: passwords,
		JWT:       codec,
	}

	mgr, err := auth.NewManager(full)
	require.NoError(t, err)
	assert.True(t, mgr.Flags().Bool(auth.FlagSignUp))

	for name, mutate := range map[string]func(*auth.Deps){
		"users":     func(d *auth.Deps) { d.Users = nil },
		"tokens":    func(d *auth.Deps) { d.Tokens = nil },
		"passwords": func(d *auth.Deps) { d.Passwords = nil },
		"jwt":       func(d *auth.Deps) { d.JWT = nil },
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			d := full
			mutate(&d)
			_, err := auth.NewManager(d)
			assert.ErrorIs(t, err, auth.ErrMissingDependency)
		})
	}
}

var errStore = errors.New("store unavailable")
