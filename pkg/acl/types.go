package acl

import (
	"slices"

	"github.com/dmitrymomot/authkit/pkg/scopes"
)

// Permission is a grantable capability. Code is a dotted path ("user.read")
// or a wildcard pattern ("user.*", "**").
type Permission struct {
	Code        string `json:"code" bson:"code"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`
}

// Role groups permissions and may inherit other roles by code.
type Role struct {
	Code        string   `json:"code" bson:"code"`
	Name        string   `json:"name" bson:"name"`
	Description string   `json:"description,omitempty" bson:"description,omitempty"`
	Permissions []string `json:"permissions,omitempty" bson:"permissions,omitempty"`
	Inherits    []string `json:"inherits,omitempty" bson:"inherits,omitempty"`
}

// Can reports whether the role grants permission directly, ignoring
// inheritance.
func (r Role) Can(permission string) bool {
	return scopes.HasScope(r.Permissions, permission)
}

// Clone returns a deep copy.
func (r Role) Clone() Role {
	r.Permissions = slices.Clone(r.Permissions)
	r.Inherits = slices.Clone(r.Inherits)
	return r
}

// Default seed data applied to empty repositories.
const (
	RoleSysAdmin = "SYSADMIN"
	RoleUser     = "USER"
)

// DefaultPermissions returns the permissions seeded into an empty store.
func DefaultPermissions() []Permission {
	return []Permission{
		{Code: scopes.MultiWildcard, Description: "Full Permissions"},
		{Code: "user.read", Description: "Read User Info"},
	}
}

// DefaultRoles returns the roles seeded into an empty store.
func DefaultRoles() []Role {
	return []Role{
		{Code: RoleSysAdmin, Name: "System Admin", Permissions: []string{scopes.MultiWildcard}},
		{Code: RoleUser, Name: "User", Permissions: []string{"user.read"}},
	}
}
