package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrymomot/authkit/pkg/autherr"
	"github.com/dmitrymomot/authkit/pkg/logger"
	"github.com/dmitrymomot/authkit/pkg/qrcode"
	"github.com/dmitrymomot/authkit/pkg/totp"
)

func (m *Manager) sealSecret(secret string) (string, error) {
	if m.cipher == nil {
		return secret, nil
	}
	return m.cipher.Seal(secret)
}

func (m *Manager) openSecret(stored string) (string, error) {
	if m.cipher == nil {
		return stored, nil
	}
	return m.cipher.Open(stored)
}

// SetupTwoFactor generates a fresh TOTP secret with its otpauth URI and QR
// code. Nothing is persisted until EnableTwoFactor confirms a code.
func (m *Manager) SetupTwoFactor(ctx context.Context, userID, issuer string) (*TwoFactorSetup, error) {
	user, err := m.findUser(ctx, userID, autherr.ErrUserIsNotRegistered)
	if err != nil {
		return nil, err
	}
	if user.TwoFactor.Enabled {
		return nil, ErrTwoFactorAlreadyEnabled
	}

	secret, err := totp.GenerateSecret()
	if err != nil {
		return nil, fmt.Errorf("auth: generate totp secret: %w", err)
	}
	uri, err := totp.URI(totp.URIParams{Secret: secret, AccountName: user.Email, Issuer: issuer})
	if err != nil {
		return nil, fmt.Errorf("auth: build totp uri: %w", err)
	}
	qr, err := qrcode.DataURI(uri, qrcode.DefaultSize)
	if err != nil {
		return nil, fmt.Errorf("auth: render qr code: %w", err)
	}
	return &TwoFactorSetup{Secret: secret, URI: uri, QRCode: qr}, nil
}

// EnableTwoFactor stores secret once code proves the authenticator is set up.
func (m *Manager) EnableTwoFactor(ctx context.Context, userID, secret, code string) error {
	user, err := m.findUser(ctx, userID, autherr.ErrUserIsNotRegistered)
	if err != nil {
		return err
	}
	if user.TwoFactor.Enabled {
		return ErrTwoFactorAlreadyEnabled
	}
	if strings.TrimSpace(code) == "" {
		return autherr.ErrMissingTwoFactorCode
	}
	if ok, err := m.otp.Validate(secret, code); err != nil || !ok {
		return autherr.ErrInvalidTwoFactorCode
	}

	sealed, err := m.sealSecret(secret)
	if err != nil {
		return fmt.Errorf("auth: seal totp secret: %w", err)
	}
	if err := m.users.UpdateTwoFactor(ctx, userID, TwoFactor{Enabled: true, Secret: sealed}); err != nil {
		return fmt.Errorf("auth: update two-factor: %w", err)
	}
	m.forgetUser(ctx, userID)
	m.log.InfoContext(ctx, "two-factor enabled", logger.UserID(userID))
	return nil
}

// DisableTwoFactor removes the enrollment after checking a current code.
func (m *Manager) DisableTwoFactor(ctx context.Context, userID, code string) error {
	user, err := m.findUser(ctx, userID, autherr.ErrUserIsNotRegistered)
	if err != nil {
		return err
	}
	if !user.TwoFactor.Enabled {
		return ErrTwoFactorNotEnabled
	}
	if err := m.checkSecondFactor(ctx, user, code); err != nil {
		return err
	}
	if err := m.users.UpdateTwoFactor(ctx, userID, TwoFactor{}); err != nil {
		return fmt.Errorf("auth: update two-factor: %w", err)
	}
	m.forgetUser(ctx, userID)
	m.log.InfoContext(ctx, "two-factor disabled", logger.UserID(userID))
	return nil
}
