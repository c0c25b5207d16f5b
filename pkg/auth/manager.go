package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/authkit/pkg/cache"
	"github.com/dmitrymomot/authkit/pkg/config"
	"github.com/dmitrymomot/authkit/pkg/email"
	"github.com/dmitrymomot/authkit/pkg/jwt"
	"github.com/dmitrymomot/authkit/pkg/logger"
	"github.com/dmitrymomot/authkit/pkg/metrics"
	"github.com/dmitrymomot/authkit/pkg/password"
	"github.com/dmitrymomot/authkit/pkg/ratelimiter"
	"github.com/dmitrymomot/authkit/pkg/totp"
)

// Deps are the collaborators a Manager is built from. Users, Tokens,
// Passwords and JWT are required.
type Deps struct {
	Users     UserDirectory
	Tokens    TokenStore
	Passwords *password.Codec
	JWT       *jwt.Codec
	Flags     *config.Flags // defaults to DefaultFlags()
	Cache     cache.Cache   // defaults to an in-process cache
	Mailer    email.Sender  // nil disables every mail-dependent flow

	// LinkSecret signs magic-link tokens. Empty disables magic links.
	LinkSecret string
}

// LinkBuilder turns a one-shot token into the URL placed in an email.
// purpose is SubjectMagicLink or "verification".
type LinkBuilder func(purpose, token string) string

// LoginLimiter throttles login attempts per identifier. *ratelimiter.Bucket
// satisfies it.
type LoginLimiter interface {
	Allow(ctx context.Context, key string) (*ratelimiter.Result, error)
	Reset(ctx context.Context, key string) error
}

// Manager owns the session token lifecycle: login, registration, token
// resolution, renewal, logout and the account flows that issue sessions.
type Manager struct {
	users     UserDirectory
	tokens    TokenStore
	passwords *password.Codec
	jwt       *jwt.Codec
	flags     *config.Flags
	cache     cache.Cache
	mailer    email.Sender

	linkSecret   string
	links        LinkBuilder
	magicLinkTTL time.Duration
	resolveTTL   time.Duration
	cipher       *totp.Cipher
	otp          *totp.Validator
	limiter      LoginLimiter
	now          func() time.Time
	log          *slog.Logger
	metrics      *metrics.Metrics
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithMetrics records outcomes on m.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithResolveTTL caps how long a resolved token stays cached. Zero disables
// the resolve cache.
func WithResolveTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl >= 0 {
			m.resolveTTL = ttl
		}
	}
}

// WithMagicLinkTTL sets how long a magic link stays valid. Default 15 minutes.
func WithMagicLinkTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.magicLinkTTL = ttl
		}
	}
}

// WithLinkBuilder sets how tokens are rendered into email links.
func WithLinkBuilder(b LinkBuilder) Option {
	return func(m *Manager) {
		if b != nil {
			m.links = b
		}
	}
}

// WithTwoFactorCipher seals TOTP secrets at rest.
func WithTwoFactorCipher(c *totp.Cipher) Option {
	return func(m *Manager) { m.cipher = c }
}

// WithOTPValidator replaces the default TOTP validator.
func WithOTPValidator(v *totp.Validator) Option {
	return func(m *Manager) {
		if v != nil {
			m.otp = v
		}
	}
}

// WithLoginLimiter throttles Login per identifier. A successful login
// clears the identifier's bucket.
func WithLoginLimiter(l LoginLimiter) Option {
	return func(m *Manager) { m.limiter = l }
}

// NewManager validates deps and applies options.
func NewManager(d Deps, opts ...Option) (*Manager, error) {
	switch {
	case d.Users == nil:
		return nil, fmt.Errorf("%w: user directory", ErrMissingDependency)
	case d.Tokens == nil:
		return nil, fmt.Errorf("%w: token store", ErrMissingDependency)
	case d.Passwords == nil:
		return nil, fmt.Errorf("%w: password codec", ErrMissingDependency)
	case d.JWT == nil:
		return nil, fmt.Errorf("%w: jwt codec", ErrMissingDependency)
	}

	m := &Manager{
		users:        d.Users,
		tokens:       d.Tokens,
		passwords:    d.Passwords,
		jwt:          d.JWT,
		flags:        d.Flags,
		cache:        d.Cache,
		mailer:       d.Mailer,
		linkSecret:   d.LinkSecret,
		links:        func(_, token string) string { return token },
		magicLinkTTL: 15 * time.Minute,
		resolveTTL:   5 * time.Minute,
		otp:          totp.NewValidator(),
		now:          time.Now,
		log:          logger.Discard(),
	}
	if m.flags == nil {
		m.flags = config.NewFlags(DefaultFlags())
	}
	if m.cache == nil {
		m.cache = cache.NewMemory()
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With(logger.Component("auth"))
	return m, nil
}

// Flags exposes the runtime flags the manager reads on every call.
func (m *Manager) Flags() *config.Flags {
	return m.flags
}

func (m *Manager) mailEnabled() bool {
	return m.mailer != nil && m.flags.Bool(FlagMailEnabled)
}

func (m *Manager) sessionTTL() time.Duration {
	ttl, err := m.flags.Duration(FlagJWTExpiresIn)
	if err != nil || ttl <= 0 {
		return jwt.DefaultTTL
	}
	return ttl
}

// issueSession signs a JWT for user and records its digest.
func (m *Manager) issueSession(ctx context.Context, user *User) (*LoginResult, error) {
	raw, err := m.jwt.Generate(user.ID, m.sessionTTL())
	if err != nil {
		return nil, fmt.Errorf("auth: issue token: %w", err)
	}
	if err := m.tokens.Insert(ctx, m.sessionRecord(user.ID, raw)); err != nil {
		return nil, fmt.Errorf("auth: store session token: %w", err)
	}
	if err := m.users.TouchLogin(ctx, user.ID, m.now()); err != nil {
		m.log.WarnContext(ctx, "failed to record last login",
			logger.UserID(user.ID), logger.Error(err))
	}
	return &LoginResult{Token: raw, UserID: user.ID}, nil
}

func (m *Manager) sessionRecord(userID, raw string) SessionToken {
	return SessionToken{
		ID:        newID(),
		UserID:    userID,
		TokenHash: m.passwords.Digest(raw),
		IssuedAt:  m.now(),
	}
}

// findUser maps a directory miss to notFound and wraps everything else.
func (m *Manager) findUser(ctx context.Context, id string, notFound error) (*User, error) {
	user, err := m.users.FindByID(ctx, id)
	if errors.Is(err, ErrUserNotFound) {
		return nil, notFound
	}
	if err != nil {
		return nil, fmt.Errorf("auth: find user: %w", err)
	}
	return user, nil
}

// send hands msg to the mailer; failures are logged, never returned.
func (m *Manager) send(ctx context.Context, msg email.Message) {
	if m.mailer == nil {
		return
	}
	if err := m.mailer.Send(ctx, msg); err != nil {
		m.log.ErrorContext(ctx, "failed to send email",
			slog.String("template", msg.Template), logger.Error(err))
	}
}
