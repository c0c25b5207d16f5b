package acl

import "context"

// RoleRepository loads and stores roles.
type RoleRepository interface {
	// FindByCodes returns the roles whose codes are listed. Unknown codes are
	// silently omitted.
	FindByCodes(ctx context.Context, codes []string) ([]Role, error)
	Count(ctx context.Context) (int64, error)
	Insert(ctx context.Context, roles ...Role) error
}

// PermissionRepository loads and stores the permission catalogue.
type PermissionRepository interface {
	FindAll(ctx context.Context) ([]Permission, error)
	Count(ctx context.Context) (int64, error)
	Insert(ctx context.Context, permissions ...Permission) error
}
