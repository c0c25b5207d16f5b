package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrymomot/authkit/pkg/autherr"
	"github.com/dmitrymomot/authkit/pkg/cache"
	"github.com/dmitrymomot/authkit/pkg/jwt"
	"github.com/dmitrymomot/authkit/pkg/logger"
)

const resolvePrefix = "auth:resolve:"

// resolveKey scopes cache entries by user so a purge can drop all of them.
func resolveKey(userID, digest string) string {
	return resolvePrefix + userID + ":" + digest
}

func resolvePattern(userID string) string {
	return resolvePrefix + userID + ":*"
}

// ResolveToken maps a bearer JWT to its user. The token must verify, be
// unexpired and still have a server-side session record.
func (m *Manager) ResolveToken(ctx context.Context, raw string) (*User, error) {
	user, err := m.resolve(ctx, raw)
	if err != nil {
		if kind := autherr.KindOf(err); kind != "" {
			m.metrics.Resolve(string(kind))
		} else {
			m.metrics.Resolve("error")
		}
		return nil, err
	}
	m.metrics.Resolve("ok")
	return user, nil
}

func (m *Manager) resolve(ctx context.Context, raw string) (*User, error) {
	claims, err := m.jwt.Parse(raw)
	if errors.Is(err, jwt.ErrExpiredToken) {
		return nil, autherr.ErrTokenHasExpired
	}
	if err != nil {
		return nil, autherr.ErrInvalidToken
	}

	digest := m.passwords.Digest(raw)
	key := resolveKey(claims.UserID, digest)

	if m.resolveTTL > 0 {
		cached, err := cache.GetJSON[User](ctx, m.cache, key)
		switch {
		case err == nil:
			m.metrics.ResolveCache(true)
			return &cached, nil
		case errors.Is(err, cache.ErrMiss):
			m.metrics.ResolveCache(false)
		default:
			m.log.WarnContext(ctx, "resolve cache read failed", logger.Error(err))
		}
	}

	if _, err := m.tokens.Find(ctx, claims.UserID, digest); err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return nil, autherr.ErrTokenHasExpired
		}
		return nil, fmt.Errorf("auth: find session token: %w", err)
	}

	user, err := m.findUser(ctx, claims.UserID, autherr.ErrUserIsNotRegistered)
	if err != nil {
		return nil, err
	}
	if !user.Verified {
		return nil, autherr.ErrUserNotVerified.WithStatus(http.StatusUnauthorized)
	}
	if !user.Active() {
		return nil, autherr.ErrUserNotActive.WithStatus(http.StatusUnauthorized)
	}

	public := user.Public()
	if m.resolveTTL > 0 {
		ttl := m.resolveTTL
		if claims.ExpiresAt != nil {
			if left := claims.ExpiresAt.Sub(m.now()); left < ttl {
				ttl = left
			}
		}
		if ttl > 0 {
			if err := cache.SetJSON(ctx, m.cache, key, *public, ttl); err != nil {
				m.log.WarnContext(ctx, "resolve cache write failed", logger.Error(err))
			}
		}
	}
	return public, nil
}

// Renew exchanges a live session token for a fresh one. Presenting a token
// that has no session record means it was already rotated or revoked: every
// session of the user is purged and ErrAccountHasBeenHacked is returned.
func (m *Manager) Renew(ctx context.Context, userID, current string) (string, error) {
	oldHash := m.passwords.Digest(current)

	_, err := m.tokens.Find(ctx, userID, oldHash)
	if errors.Is(err, ErrTokenNotFound) {
		return "", m.breach(ctx, userID)
	}
	if err != nil {
		m.metrics.Renewal("error")
		return "", fmt.Errorf("auth: find session token: %w", err)
	}

	next, err := m.jwt.Generate(userID, m.sessionTTL())
	if err != nil {
		m.metrics.Renewal("error")
		return "", fmt.Errorf("auth: issue token: %w", err)
	}

	err = m.tokens.ReplaceToken(ctx, userID, oldHash, m.sessionRecord(userID, next))
	if errors.Is(err, ErrTokenNotFound) {
		// Lost a race with another renewal or a logout of the same token.
		return "", m.breach(ctx, userID)
	}
	if err != nil {
		m.metrics.Renewal("error")
		return "", fmt.Errorf("auth: replace session token: %w", err)
	}

	m.forget(ctx, resolveKey(userID, oldHash))
	m.metrics.Renewal("ok")
	return next, nil
}

// breach purges every session of userID. The purge is always attempted;
// its failure is logged and joined to the returned security error.
func (m *Manager) breach(ctx context.Context, userID string) error {
	m.metrics.Renewal(string(autherr.KindAccountHasBeenHacked))
	m.metrics.BreachPurge()
	m.log.WarnContext(ctx, "session token replay detected, purging all sessions",
		logger.UserID(userID))

	if err := m.purge(ctx, userID); err != nil {
		m.log.ErrorContext(ctx, "failed to purge sessions", logger.UserID(userID), logger.Error(err))
		return errors.Join(autherr.ErrAccountHasBeenHacked, err)
	}
	return autherr.ErrAccountHasBeenHacked
}

// purge drops every session record and resolve cache entry of userID.
func (m *Manager) purge(ctx context.Context, userID string) error {
	var errs []error
	if err := m.tokens.DeleteAll(ctx, userID); err != nil {
		errs = append(errs, fmt.Errorf("auth: delete session tokens: %w", err))
	}
	if err := m.cache.Clean(ctx, resolvePattern(userID)); err != nil {
		errs = append(errs, fmt.Errorf("auth: clean resolve cache: %w", err))
	}
	return errors.Join(errs...)
}

// Logout revokes one session. Revoking an unknown token is not an error.
func (m *Manager) Logout(ctx context.Context, userID, raw string) error {
	hash := m.passwords.Digest(raw)
	if err := m.tokens.Delete(ctx, userID, hash); err != nil {
		return fmt.Errorf("auth: delete session token: %w", err)
	}
	m.forget(ctx, resolveKey(userID, hash))
	m.metrics.Logout()
	return nil
}

// LogoutAll revokes every session of userID.
func (m *Manager) LogoutAll(ctx context.Context, userID string) error {
	if err := m.purge(ctx, userID); err != nil {
		return err
	}
	m.metrics.Logout()
	return nil
}

func (m *Manager) forget(ctx context.Context, key string) {
	if err := m.cache.Del(ctx, key); err != nil {
		m.log.WarnContext(ctx, "failed to drop resolve cache entry", logger.Error(err))
	}
}

// forgetUser drops cached resolutions after the user record changed.
func (m *Manager) forgetUser(ctx context.Context, userID string) {
	if err := m.cache.Clean(ctx, resolvePattern(userID)); err != nil {
		m.log.WarnContext(ctx, "failed to clean resolve cache", logger.UserID(userID), logger.Error(err))
	}
}

