package auth

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/authkit/pkg/autherr"
	"github.com/dmitrymomot/authkit/pkg/logger"
)

// DisableUser blocks the account and revokes all of its sessions.
func (m *Manager) DisableUser(ctx context.Context, userID string) error {
	user, err := m.findUser(ctx, userID, autherr.ErrUserIsNotRegistered)
	if err != nil {
		return err
	}
	if user.Status == StatusDisabled {
		return autherr.ErrUserAlreadyDisabled
	}
	if err := m.users.UpdateStatus(ctx, userID, StatusDisabled); err != nil {
		return fmt.Errorf("auth: update status: %w", err)
	}
	if err := m.purge(ctx, userID); err != nil {
		return err
	}
	m.log.InfoContext(ctx, "user disabled", logger.UserID(userID))
	return nil
}

// EnableUser reactivates a disabled account.
func (m *Manager) EnableUser(ctx context.Context, userID string) error {
	user, err := m.findUser(ctx, userID, autherr.ErrUserIsNotRegistered)
	if err != nil {
		return err
	}
	if user.Status == StatusActive {
		return autherr.ErrUserAlreadyEnabled
	}
	if err := m.users.UpdateStatus(ctx, userID, StatusActive); err != nil {
		return fmt.Errorf("auth: update status: %w", err)
	}
	m.forgetUser(ctx, userID)
	m.log.InfoContext(ctx, "user enabled", logger.UserID(userID))
	return nil
}
