package email_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/email"
)

func validMessage() email.Message {
	return email.Message{
		To:       "user@example.com",
		Subject:  "Sign in",
		Template: email.TemplateMagicLink,
		Data:     map[string]any{"link": "https://example.com/magic?t=abc", "name": "Ann"},
	}
}

func TestMessageValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, validMessage().Validate())

	tests := []struct {
		name   string
		mutate func(*email.Message)
	}{
		{"empty recipient", func(m *email.Message) { m.To = "" }},
		{"malformed recipient", func(m *email.Message) { m.To = "not-an-email" }},
		{"empty subject", func(m *email.Message) { m.Subject = " " }},
		{"empty template", func(m *email.Message) { m.Template = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			msg := validMessage()
			tt.mutate(&msg)
			assert.ErrorIs(t, msg.Validate(), email.ErrInvalidMessage)
		})
	}
}

func TestPlainRenderer(t *testing.T) {
	t.Parallel()

	body, err := email.PlainRenderer(validMessage())
	require.NoError(t, err)
	assert.Contains(t, body, "<h1>Sign in</h1>")
	assert.Contains(t, body, `href="https://example.com/magic?t=abc"`)
	assert.Contains(t, body, "<strong>name</strong>: Ann")

	msg := validMessage()
	msg.Data = map[string]any{"name": "<script>"}
	body, err = email.PlainRenderer(msg)
	require.NoError(t, err)
	assert.NotContains(t, body, "<script>")
}

func TestNewPostmark(t *testing.T) {
	t.Parallel()

	valid := email.Config{
		PostmarkServerToken:  "server",
		PostmarkAccountToken: "account",
		SenderEmail:          "noreply@example.com",
		SupportEmail:         "support@example.com",
	}

	p, err := email.NewPostmark(valid)
	require.NoError(t, err)
	assert.NotNil(t, p)

	tests := []struct {
		name   string
		mutate func(*email.Config)
		msg    string
	}{
		{"missing server token", func(c *email.Config) { c.PostmarkServerToken = "" }, "PostmarkServerToken is required"},
		{"missing account token", func(c *email.Config) { c.PostmarkAccountToken = "" }, "PostmarkAccountToken is required"},
		{"bad sender", func(c *email.Config) { c.SenderEmail = "nope" }, "SenderEmail"},
		{"bad support", func(c *email.Config) { c.SupportEmail = "" }, "SupportEmail"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid
			tt.mutate(&cfg)
			p, err := email.NewPostmark(cfg)
			assert.Nil(t, p)
			assert.ErrorIs(t, err, email.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestPostmarkRejectsInvalidMessage(t *testing.T) {
	t.Parallel()

	p, err := email.NewPostmark(email.Config{
		PostmarkServerToken:  "server",
		PostmarkAccountToken: "account",
		SenderEmail:          "noreply@example.com",
		SupportEmail:         "support@example.com",
	})
	require.NoError(t, err)

	err = p.Send(context.Background(), email.Message{To: "user@example.com"})
	assert.ErrorIs(t, err, email.ErrInvalidMessage)
}

func TestDevSender(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "mail")
	sender := email.NewDevSender(dir)

	require.NoError(t, sender.Send(context.Background(), validMessage()))
	require.NoError(t, sender.Send(context.Background(), validMessage()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	var jsonFile string
	for _, e := range entries {
		assert.Contains(t, e.Name(), "magic_link")
		if strings.HasSuffix(e.Name(), ".json") {
			jsonFile = e.Name()
		}
	}
	require.NotEmpty(t, jsonFile)

	raw, err := os.ReadFile(filepath.Join(dir, jsonFile))
	require.NoError(t, err)

	var meta map[string]any
	require.NoError(t, json.Unmarshal(raw, &meta))
	assert.Equal(t, "user@example.com", meta["to"])
	assert.Equal(t, "magic_link", meta["template"])
}

func TestDevSenderInvalidMessage(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "mail")
	err := email.NewDevSender(dir).Send(context.Background(), email.Message{})
	assert.ErrorIs(t, err, email.ErrInvalidMessage)

	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr))
}
