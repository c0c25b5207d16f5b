package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"regexp"
	"sort"
	"strings"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Well-known template names used by the auth flows.
const (
	TemplateMagicLink    = "magic_link"
	TemplateVerification = "verification"
)

// Message is a transactional email addressed to a single recipient.
// Template names the content kind; Data carries its variables.
type Message struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject"`
	Template string         `json:"template"`
	Data     map[string]any `json:"data,omitempty"`
}

// Validate reports whether the message can be handed to a provider.
func (m Message) Validate() error {
	if strings.TrimSpace(m.To) == "" {
		return fmt.Errorf("%w: recipient is required", ErrInvalidMessage)
	}
	if !emailRegex.MatchString(m.To) {
		return fmt.Errorf("%w: recipient must be a valid email address", ErrInvalidMessage)
	}
	if strings.TrimSpace(m.Subject) == "" {
		return fmt.Errorf("%w: subject is required", ErrInvalidMessage)
	}
	if strings.TrimSpace(m.Template) == "" {
		return fmt.Errorf("%w: template is required", ErrInvalidMessage)
	}
	return nil
}

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, msg Message) error

// Send calls f(ctx, msg).
func (f SenderFunc) Send(ctx context.Context, msg Message) error { return f(ctx, msg) }

// Renderer turns a message into an HTML body.
type Renderer func(msg Message) (string, error)

var plainLayout = template.Must(template.New("layout").Parse(
	`<!doctype html><html><body><h1>{{.Subject}}</h1>` +
		`{{with .Link}}<p><a href="{{.}}">{{.}}</a></p>{{end}}` +
		`{{range .Fields}}<p><strong>{{.Key}}</strong>: {{.Value}}</p>{{end}}` +
		`</body></html>`))

type field struct {
	Key   string
	Value any
}

// PlainRenderer renders a minimal HTML body: the subject, the "link" value
// as an anchor, and the remaining data fields sorted by key.
func PlainRenderer(msg Message) (string, error) {
	view := struct {
		Subject string
		Link    string
		Fields  []field
	}{Subject: msg.Subject}

	keys := make([]string, 0, len(msg.Data))
	for k := range msg.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k == "link" {
			view.Link = fmt.Sprint(msg.Data[k])
			continue
		}
		view.Fields = append(view.Fields, field{Key: k, Value: msg.Data[k]})
	}

	var buf bytes.Buffer
	if err := plainLayout.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	return buf.String(), nil
}
