package email

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"
	"time"
)

// DevSender writes each message to disk as a rendered .html file and a
// .json metadata file instead of delivering it.
type DevSender struct {
	dir    string
	render Renderer
	now    func() time.Time
	seq    atomic.Uint64
}

// NewDevSender creates a sender that stores messages under dir.
// The directory is created on first send.
func NewDevSender(dir string) *DevSender {
	return &DevSender{dir: dir, render: PlainRenderer, now: time.Now}
}

type devMetadata struct {
	Timestamp string         `json:"timestamp"`
	To        string         `json:"to"`
	Subject   string         `json:"subject"`
	Template  string         `json:"template"`
	Data      map[string]any `json:"data,omitempty"`
}

// Send implements Sender.
func (d *DevSender) Send(_ context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("%w: failed to create directory: %v", ErrFailedToSendEmail, err)
	}

	body, err := d.render(msg)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFailedToSendEmail, err)
	}

	now := d.now()
	base := fmt.Sprintf("%s_%04d_%s", now.Format("2006_01_02_150405"), d.seq.Add(1), sanitizeFilename(msg.Template))

	if err := os.WriteFile(filepath.Join(d.dir, base+".html"), []byte(body), 0o644); err != nil {
		return fmt.Errorf("%w: failed to write HTML file: %v", ErrFailedToSendEmail, err)
	}

	meta, err := json.MarshalIndent(devMetadata{
		Timestamp: now.Format(time.RFC3339),
		To:        msg.To,
		Subject:   msg.Subject,
		Template:  msg.Template,
		Data:      msg.Data,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: failed to marshal metadata: %v", ErrFailedToSendEmail, err)
	}
	if err := os.WriteFile(filepath.Join(d.dir, base+".json"), meta, 0o644); err != nil {
		return fmt.Errorf("%w: failed to write JSON file: %v", ErrFailedToSendEmail, err)
	}
	return nil
}

var sanitizeRegex = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = sanitizeRegex.ReplaceAllString(s, "")
	const maxLength = 100
	if len(s) > maxLength {
		s = s[:maxLength]
	}
	if s == "" {
		s = "email"
	}
	return strings.ToLower(s)
}
