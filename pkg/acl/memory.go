package acl

import (
	"context"
	"slices"
	"sync"
)

// MemoryRoles is a RoleRepository kept in process memory. Stored and
// returned roles are deep copies.
type MemoryRoles struct {
	mu    sync.RWMutex
	roles map[string]Role
	calls int
}

// NewMemoryRoles creates a repository holding roles.
func NewMemoryRoles(roles ...Role) *MemoryRoles {
	m := &MemoryRoles{roles: make(map[string]Role, len(roles))}
	for _, r := range roles {
		m.roles[r.Code] = r.Clone()
	}
	return m
}

func (m *MemoryRoles) FindByCodes(_ context.Context, codes []string) ([]Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	out := make([]Role, 0, len(codes))
	for _, c := range codes {
		if r, ok := m.roles[c]; ok {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

func (m *MemoryRoles) Count(context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.roles)), nil
}

func (m *MemoryRoles) Insert(_ context.Context, roles ...Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range roles {
		if r.Code == "" {
			return ErrEmptyCode
		}
		if _, ok := m.roles[r.Code]; ok {
			return ErrDuplicateRole
		}
	}
	for _, r := range roles {
		m.roles[r.Code] = r.Clone()
	}
	return nil
}

// Put inserts or replaces a role.
func (m *MemoryRoles) Put(r Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roles[r.Code] = r.Clone()
}

// Delete removes a role by code.
func (m *MemoryRoles) Delete(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.roles, code)
}

// Lookups reports how many FindByCodes calls have been served.
func (m *MemoryRoles) Lookups() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

// MemoryPermissions is a PermissionRepository kept in process memory.
type MemoryPermissions struct {
	mu    sync.RWMutex
	perms []Permission
}

func NewMemoryPermissions(perms ...Permission) *MemoryPermissions {
	return &MemoryPermissions{perms: slices.Clone(perms)}
}

func (m *MemoryPermissions) FindAll(context.Context) ([]Permission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.perms), nil
}

func (m *MemoryPermissions) Count(context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.perms)), nil
}

func (m *MemoryPermissions) Insert(_ context.Context, perms ...Permission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range perms {
		if p.Code == "" {
			return ErrEmptyCode
		}
		if slices.ContainsFunc(m.perms, func(e Permission) bool { return e.Code == p.Code }) {
			return ErrDuplicatePermission
		}
	}
	m.perms = append(m.perms, perms...)
	return nil
}
