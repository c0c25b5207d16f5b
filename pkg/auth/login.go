package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/authkit/pkg/autherr"
	"github.com/dmitrymomot/authkit/pkg/email"
	"github.com/dmitrymomot/authkit/pkg/logger"
	"github.com/dmitrymomot/authkit/pkg/token"
)

// Login authenticates by password, or sends a magic link when no password is
// given and passwordless login is enabled. Checks run in a fixed order so the
// reported failure is deterministic.
func (m *Manager) Login(ctx context.Context, p LoginParams) (*LoginResult, error) {
	res, err := m.login(ctx, p)
	switch {
	case err == nil && res.Passwordless:
		m.metrics.Login("magic_link")
	case err == nil:
		m.metrics.Login("ok")
	default:
		if kind := autherr.KindOf(err); kind != "" {
			m.metrics.Login(string(kind))
		} else {
			m.metrics.Login("error")
		}
	}
	return res, err
}

func (m *Manager) login(ctx context.Context, p LoginParams) (*LoginResult, error) {
	throttleKey := "login:" + strings.ToLower(strings.TrimSpace(p.Identifier))
	if m.limiter != nil {
		res, err := m.limiter.Allow(ctx, throttleKey)
		if err != nil {
			return nil, fmt.Errorf("auth: login throttle: %w", err)
		}
		if !res.Allowed() {
			m.log.WarnContext(ctx, "login throttled", slog.String("identifier", p.Identifier))
			return nil, autherr.ErrRateLimitExceeded
		}
	}

	res, err := m.authenticate(ctx, p)
	if err == nil && m.limiter != nil {
		if rerr := m.limiter.Reset(ctx, throttleKey); rerr != nil {
			m.log.WarnContext(ctx, "failed to reset login throttle", logger.Error(rerr))
		}
	}
	return res, err
}

func (m *Manager) authenticate(ctx context.Context, p LoginParams) (*LoginResult, error) {
	user, err := m.lookupIdentifier(ctx, p.Identifier)
	if errors.Is(err, ErrUserNotFound) {
		return nil, autherr.ErrAuthenticationFailed
	}
	if err != nil {
		return nil, fmt.Errorf("auth: find user: %w", err)
	}

	if !user.Verified {
		return nil, autherr.ErrUserNotVerified
	}
	if !user.Active() {
		return nil, autherr.ErrUserNotActive
	}

	switch {
	case p.Password != "" && user.Passwordless:
		return nil, autherr.ErrPasswordLessOnly
	case p.Password != "":
		if !m.passwords.Verify(p.Password, user.PasswordHash) {
			return nil, autherr.ErrAuthenticationFailed
		}
	case m.flags.Bool(FlagPasswordless):
		if !m.mailEnabled() || m.linkSecret == "" {
			return nil, autherr.ErrPasswordLessNotAvailable
		}
		if err := m.sendMagicLink(ctx, user); err != nil {
			m.log.ErrorContext(ctx, "magic link not delivered", logger.UserID(user.ID), logger.Error(err))
		}
		return &LoginResult{Passwordless: true, Email: user.Email}, nil
	default:
		return nil, autherr.ErrPasswordLessNotAllowed
	}

	if err := m.checkSecondFactor(ctx, user, p.OTP); err != nil {
		return nil, err
	}

	m.log.DebugContext(ctx, "user logged in", logger.UserID(user.ID))
	return m.issueSession(ctx, user)
}

func (m *Manager) lookupIdentifier(ctx context.Context, identifier string) (*User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrUserNotFound
	}
	if m.flags.Bool(FlagUsername) {
		return m.users.FindByEmailOrUsername(ctx, identifier)
	}
	return m.users.FindByEmail(ctx, NormalizeEmail(identifier))
}

func (m *Manager) checkSecondFactor(ctx context.Context, user *User, code string) error {
	if !user.TwoFactor.Enabled {
		return nil
	}
	if strings.TrimSpace(code) == "" {
		return autherr.ErrMissingTwoFactorCode
	}
	secret, err := m.openSecret(user.TwoFactor.Secret)
	if err != nil {
		return fmt.Errorf("auth: open two-factor secret: %w", err)
	}
	ok, err := m.otp.Validate(secret, code)
	if err != nil || !ok {
		if err != nil {
			m.log.DebugContext(ctx, "rejected malformed otp", logger.UserID(user.ID), logger.Error(err))
		}
		return autherr.ErrInvalidTwoFactorCode
	}
	return nil
}

type magicLinkPayload struct {
	ID     string `json:"id"`
	UserID string `json:"uid"`
	Email  string `json:"email"`
}

func (m *Manager) sendMagicLink(ctx context.Context, user *User) error {
	tok, err := token.Issue(m.linkSecret, SubjectMagicLink, magicLinkPayload{
		ID:     newID(),
		UserID: user.ID,
		Email:  user.Email,
	}, m.magicLinkTTL, m.now())
	if err != nil {
		return fmt.Errorf("auth: issue magic link: %w", err)
	}

	err = m.mailer.Send(ctx, email.Message{
		To:       user.Email,
		Subject:  "Your sign-in link",
		Template: email.TemplateMagicLink,
		Data: map[string]any{
			"link":       m.links(SubjectMagicLink, tok),
			"expires_in": m.magicLinkTTL.String(),
		},
	})
	if err != nil {
		return fmt.Errorf("auth: send magic link: %w", err)
	}
	return nil
}

func magicLinkUsedKey(id string) string {
	return "auth:magic:" + id
}

// ConsumeMagicLink exchanges a magic-link token for a session. Each link
// works once within its lifetime; a replay returns autherr.ErrInvalidToken.
func (m *Manager) ConsumeMagicLink(ctx context.Context, magicToken string) (*LoginResult, error) {
	if m.linkSecret == "" {
		return nil, autherr.ErrInvalidToken
	}
	p, err := token.Verify[magicLinkPayload](m.linkSecret, SubjectMagicLink, magicToken, m.now())
	if errors.Is(err, token.ErrExpired) {
		return nil, autherr.ErrTokenHasExpired
	}
	if err != nil {
		return nil, autherr.ErrInvalidToken
	}

	user, err := m.findUser(ctx, p.UserID, autherr.ErrUserIsNotRegistered)
	if err != nil {
		return nil, err
	}
	if user.Email != p.Email {
		return nil, autherr.ErrInvalidToken
	}
	if !user.Verified {
		return nil, autherr.ErrUserNotVerified
	}
	if !user.Active() {
		return nil, autherr.ErrUserNotActive
	}

	claimed, err := m.cache.SetNX(ctx, magicLinkUsedKey(p.ID), []byte{1}, m.magicLinkTTL)
	if err != nil {
		return nil, fmt.Errorf("auth: claim magic link: %w", err)
	}
	if !claimed {
		return nil, autherr.ErrInvalidToken
	}
	m.metrics.Login("ok")
	return m.issueSession(ctx, user)
}
