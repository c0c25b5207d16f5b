package scopes_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/authkit/pkg/scopes"
)

func TestMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pattern string
		scope   string
		want    bool
	}{
		{"user.read", "user.read", true},
		{"user.read", "user.delete", false},
		{"user.read", "user", false},
		{"**", "anything.at.all", true},
		{"**", "user", true},
		{"**", "", false},
		{"", "", false},
		{"user.*", "user.read", true},
		{"user.*", "user.read.self", false},
		{"user.*", "user", false},
		{"*.read", "user.read", true},
		{"*.read", "user.write", false},
		{"*", "user", true},
		{"*", "user.read", false},
		{"user.**", "user.read", true},
		{"user.**", "user.read.self", true},
		{"user.**", "user", false},
		{"user.**", "users.read", false},
		{"user.*.self", "user.read.self", true},
		{"user.*.self", "user.read.other", false},
		{"a.**.z", "a.b.z", true},
		{"a.**.z", "a.b.c.z", true},
		{"a.**.z", "a.z", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"|"+tt.scope, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, scopes.Match(tt.pattern, tt.scope))
		})
	}
}

func TestHasScope(t *testing.T) {
	t.Parallel()

	granted := []string{"user.read", "post.*"}
	assert.True(t, scopes.HasScope(granted, "user.read"))
	assert.True(t, scopes.HasScope(granted, "post.create"))
	assert.False(t, scopes.HasScope(granted, "user.delete"))
	assert.False(t, scopes.HasScope(nil, "user.read"))
}

func TestHasAnyAndAllScopes(t *testing.T) {
	t.Parallel()

	granted := []string{"user.read", "post.**"}

	assert.True(t, scopes.HasAnyScopes(granted, []string{"user.delete", "post.a.b"}))
	assert.False(t, scopes.HasAnyScopes(granted, []string{"user.delete"}))
	assert.True(t, scopes.HasAnyScopes(granted, nil))

	assert.True(t, scopes.HasAllScopes(granted, []string{"user.read", "post.edit"}))
	assert.False(t, scopes.HasAllScopes(granted, []string{"user.read", "user.delete"}))
	assert.True(t, scopes.HasAllScopes(nil, nil))
}

func TestIsScope(t *testing.T) {
	t.Parallel()

	assert.True(t, scopes.IsScope("user.read"))
	assert.True(t, scopes.IsScope("**"))
	assert.False(t, scopes.IsScope("SYSADMIN"))
}

func TestValidate(t *testing.T) {
	t.Parallel()

	for _, ok := range []string{"user.read", "**", "user.*", "user.**", "*.read"} {
		assert.NoError(t, scopes.Validate(ok), ok)
	}
	for _, bad := range []string{"", "user.", ".read", "user..read", "**.read", "us*r.read"} {
		assert.ErrorIs(t, scopes.Validate(bad), scopes.ErrInvalidScope, bad)
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	assert.Nil(t, scopes.Normalize(nil))
	assert.Nil(t, scopes.Normalize([]string{""}))
	assert.Equal(t,
		[]string{"**", "post.create", "user.read"},
		scopes.Normalize([]string{"user.read", "**", "user.read", "post.create", ""}),
	)
}
