package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/logger"
)

type userKey struct{}

func userFromContext(ctx context.Context) (slog.Attr, bool) {
	id, _ := ctx.Value(userKey{}).(string)
	return logger.UserID(id), id != ""
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestContextHandler(t *testing.T) {
	t.Parallel()

	newLogger := func(buf *bytes.Buffer, extractors ...logger.ContextExtractor) *slog.Logger {
		return slog.New(logger.NewContextHandler(slog.NewJSONHandler(buf, nil), extractors...))
	}
	ctx := context.WithValue(context.Background(), userKey{}, "ctx-user")

	t.Run("adds context attribute", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		newLogger(buf, userFromContext).InfoContext(ctx, "resolved")
		assert.Equal(t, "ctx-user", decodeLines(t, buf)[0]["user_id"])
	})

	t.Run("call site key wins", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		newLogger(buf, userFromContext).InfoContext(ctx, "purged", logger.UserID("explicit"))
		assert.Equal(t, 1, strings.Count(buf.String(), `"user_id"`))
		assert.Equal(t, "explicit", decodeLines(t, buf)[0]["user_id"])
	})

	t.Run("bound key wins", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		newLogger(buf, userFromContext).With(logger.UserID("bound")).InfoContext(ctx, "renewed")
		assert.Equal(t, 1, strings.Count(buf.String(), `"user_id"`))
		assert.Equal(t, "bound", decodeLines(t, buf)[0]["user_id"])
	})

	t.Run("empty attribute skipped", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		empty := func(context.Context) (slog.Attr, bool) { return slog.Attr{}, true }
		newLogger(buf, empty, nil).InfoContext(ctx, "msg")
		entry := decodeLines(t, buf)[0]
		assert.NotContains(t, entry, "")
		assert.Len(t, entry, 3)
	})

	t.Run("grouped records get context attribute", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		newLogger(buf, userFromContext).WithGroup("acl").InfoContext(ctx, "memo miss")
		group, ok := decodeLines(t, buf)[0]["acl"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "ctx-user", group["user_id"])
	})

	t.Run("level passes through", func(t *testing.T) {
		t.Parallel()
		h := logger.NewContextHandler(slog.NewJSONHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn}))
		assert.False(t, h.Enabled(ctx, slog.LevelInfo))
		assert.True(t, h.Enabled(ctx, slog.LevelError))
	})
}
