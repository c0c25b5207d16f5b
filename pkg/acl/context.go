package acl

import (
	"context"
	"slices"

	"github.com/dmitrymomot/authkit/pkg/autherr"
)

type rolesCtxKey struct{}

// WithRoles stores the caller's role codes in ctx.
func WithRoles(ctx context.Context, roles ...string) context.Context {
	return context.WithValue(ctx, rolesCtxKey{}, slices.Clone(roles))
}

// RolesFromContext returns the role codes stored by WithRoles.
func RolesFromContext(ctx context.Context) ([]string, bool) {
	roles, ok := ctx.Value(rolesCtxKey{}).([]string)
	return roles, ok
}

// AuthorizeContext authorizes the roles stored in ctx. A context without
// roles is denied unless items is empty.
func (e *Engine) AuthorizeContext(ctx context.Context, items ...string) error {
	if len(items) == 0 {
		return nil
	}
	roles, ok := RolesFromContext(ctx)
	if !ok {
		e.metrics.ACLDecision(false)
		return autherr.ErrNoPermission
	}
	return e.Authorize(ctx, roles, items...)
}
