package acl

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/authkit/pkg/logger"
)

// Seed stores the default permission catalogue and roles when both
// repositories are empty. Non-empty stores are left untouched.
func Seed(ctx context.Context, roles RoleRepository, perms PermissionRepository, log *slog.Logger) error {
	if log == nil {
		log = logger.Discard()
	}

	permCount, err := perms.Count(ctx)
	if err != nil {
		return fmt.Errorf("acl: count permissions: %w", err)
	}
	if permCount > 0 {
		return nil
	}
	roleCount, err := roles.Count(ctx)
	if err != nil {
		return fmt.Errorf("acl: count roles: %w", err)
	}
	if roleCount > 0 {
		return nil
	}

	if err := perms.Insert(ctx, DefaultPermissions()...); err != nil {
		return fmt.Errorf("acl: seed permissions: %w", err)
	}
	if err := roles.Insert(ctx, DefaultRoles()...); err != nil {
		return fmt.Errorf("acl: seed roles: %w", err)
	}

	log.Info("seeded roles and permissions", logger.Component("acl"))
	return nil
}
