package auth

import (
	"context"
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authkit/pkg/autherr"
	"github.com/dmitrymomot/authkit/pkg/email"
	"github.com/dmitrymomot/authkit/pkg/logger"
)

const verificationPurpose = "verification"

func newID() string {
	return uuid.NewString()
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GravatarURL returns the identicon avatar for an address.
func GravatarURL(address string) string {
	sum := md5.Sum([]byte(NormalizeEmail(address)))
	return "https://www.gravatar.com/avatar/" + hex.EncodeToString(sum[:]) + "?d=identicon"
}

// Register creates an account. With verification enabled the account starts
// unverified and a verification email is queued; delivery failures are
// logged and do not fail the registration.
func (m *Manager) Register(ctx context.Context, p RegisterParams) (*User, error) {
	user, err := m.register(ctx, p)
	if err != nil {
		if kind := autherr.KindOf(err); kind != "" {
			m.metrics.Registration(string(kind))
		} else {
			m.metrics.Registration("error")
		}
		return nil, err
	}
	m.metrics.Registration("ok")
	return user, nil
}

func (m *Manager) register(ctx context.Context, p RegisterParams) (*User, error) {
	if !m.flags.Bool(FlagSignUp) {
		return nil, autherr.ErrSignUpNotAvailable
	}

	addr := NormalizeEmail(p.Email)
	if addr == "" {
		return nil, ErrInvalidEmail
	}
	if err := ensureAbsent(m.users.FindByEmail(ctx, addr)); err != nil {
		if errors.Is(err, errExists) {
			return nil, autherr.ErrEmailAlreadyExists
		}
		return nil, err
	}

	username := strings.TrimSpace(p.Username)
	if m.flags.Bool(FlagUsername) {
		if username == "" {
			return nil, autherr.ErrUsernameCantEmpty
		}
		if err := ensureAbsent(m.users.FindByUsername(ctx, username)); err != nil {
			if errors.Is(err, errExists) {
				return nil, autherr.ErrUsernameAlreadyExists
			}
			return nil, err
		}
	}

	role := m.flags.String(FlagDefaultRole)
	if role == "" {
		role = DefaultRole
	}
	avatar := p.Avatar
	if avatar == "" {
		avatar = GravatarURL(addr)
	}

	user := &User{
		ID:        newID(),
		Email:     addr,
		Username:  username,
		Verified:  true,
		Status:    StatusActive,
		Role:      role,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Avatar:    avatar,
		TenantID:  p.TenantID,
		CreatedAt: m.now(),
	}

	plain := p.Password
	switch {
	case plain != "":
	case m.flags.Bool(FlagPasswordless):
		placeholder, err := randomToken()
		if err != nil {
			return nil, fmt.Errorf("auth: generate placeholder password: %w", err)
		}
		plain = placeholder
		user.Passwordless = true
	default:
		return nil, autherr.ErrPasswordCantEmpty
	}
	hash, err := m.passwords.Hash(plain)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}
	user.PasswordHash = hash

	verify := m.flags.Bool(FlagVerification)
	if verify {
		tok, err := randomToken()
		if err != nil {
			return nil, fmt.Errorf("auth: generate verification token: %w", err)
		}
		user.Verified = false
		user.VerificationToken = tok
	}

	if err := m.users.Insert(ctx, user); err != nil {
		switch {
		case errors.Is(err, ErrDuplicateEmail):
			return nil, autherr.ErrEmailAlreadyExists
		case errors.Is(err, ErrDuplicateUsername):
			return nil, autherr.ErrUsernameAlreadyExists
		}
		return nil, fmt.Errorf("auth: insert user: %w", err)
	}

	if verify && m.mailEnabled() {
		m.send(ctx, email.Message{
			To:       user.Email,
			Subject:  "Verify your account",
			Template: email.TemplateVerification,
			Data:     map[string]any{"link": m.links(verificationPurpose, user.VerificationToken)},
		})
	}

	m.log.InfoContext(ctx, "user registered", logger.UserID(user.ID), logger.Role(user.Role))
	return user.Public(), nil
}

var errExists = errors.New("exists")

// ensureAbsent turns a lookup result into nil when nothing was found.
func ensureAbsent(_ *User, err error) error {
	switch {
	case err == nil:
		return errExists
	case errors.Is(err, ErrUserNotFound):
		return nil
	}
	return fmt.Errorf("auth: find user: %w", err)
}

// VerifyAccount confirms an email address and signs the user in.
func (m *Manager) VerifyAccount(ctx context.Context, verificationToken string) (*LoginResult, error) {
	verificationToken = strings.TrimSpace(verificationToken)
	if verificationToken == "" {
		return nil, autherr.ErrInvalidVerification
	}
	user, err := m.users.FindByVerificationToken(ctx, verificationToken)
	if errors.Is(err, ErrUserNotFound) {
		return nil, autherr.ErrInvalidVerification
	}
	if err != nil {
		return nil, fmt.Errorf("auth: find user: %w", err)
	}
	if !user.Active() {
		return nil, autherr.ErrUserNotActive
	}

	if err := m.users.UpdateVerification(ctx, user.ID, true, ""); err != nil {
		return nil, fmt.Errorf("auth: update verification: %w", err)
	}
	m.log.InfoContext(ctx, "user verified", logger.UserID(user.ID))
	return m.issueSession(ctx, user)
}
