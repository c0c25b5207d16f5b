package logger_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/logger"
)

func TestErrors(t *testing.T) {
	err1 := errors.New("first")
	err2 := errors.New("second")

	attr := logger.Errors(err1, nil, err2)
	require.Equal(t, "errors", attr.Key)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, err1, g[0].Value.Any())
	assert.Equal(t, err2, g[1].Value.Any())

	empty := logger.Errors(nil)
	assert.True(t, empty.Equal(slog.Attr{}))
}

func TestError(t *testing.T) {
	err := errors.New("boom")
	attr := logger.Error(err)
	require.Equal(t, "error", attr.Key)
	assert.Equal(t, err, attr.Value.Any())

	assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
}

func TestUserID(t *testing.T) {
	attr := logger.UserID("123")
	require.Equal(t, "user_id", attr.Key)
	assert.Equal(t, "123", attr.Value.String())

	assert.True(t, logger.UserID("").Equal(slog.Attr{}))
}

func TestRoles(t *testing.T) {
	attr := logger.Roles([]string{"USER", "SYSADMIN"})
	require.Equal(t, "roles", attr.Key)
	assert.Equal(t, []string{"USER", "SYSADMIN"}, attr.Value.Any())

	assert.Equal(t, "role", logger.Role("USER").Key)
	assert.Equal(t, "permission", logger.Permission("user.read").Key)
	assert.Equal(t, "kind", logger.Kind("INVALID_TOKEN").Key)
}
