package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"
)

// Postmark delivers messages through Postmark's transactional API.
type Postmark struct {
	client *postmark.Client
	config Config
	render Renderer
}

// PostmarkOption customizes a Postmark sender.
type PostmarkOption func(*Postmark)

// WithRenderer replaces PlainRenderer.
func WithRenderer(r Renderer) PostmarkOption {
	return func(p *Postmark) {
		if r != nil {
			p.render = r
		}
	}
}

// NewPostmark creates a Postmark-backed sender. Both tokens are required.
func NewPostmark(cfg Config, opts ...PostmarkOption) (*Postmark, error) {
	if cfg.PostmarkServerToken == "" {
		return nil, fmt.Errorf("%w: PostmarkServerToken is required", ErrInvalidConfig)
	}
	if cfg.PostmarkAccountToken == "" {
		return nil, fmt.Errorf("%w: PostmarkAccountToken is required", ErrInvalidConfig)
	}
	if !emailRegex.MatchString(cfg.SenderEmail) {
		return nil, fmt.Errorf("%w: SenderEmail must be a valid email address", ErrInvalidConfig)
	}
	if !emailRegex.MatchString(cfg.SupportEmail) {
		return nil, fmt.Errorf("%w: SupportEmail must be a valid email address", ErrInvalidConfig)
	}

	p := &Postmark{
		client: postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		config: cfg,
		render: PlainRenderer,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Send renders msg and submits it. Replies go to the support address.
func (p *Postmark) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	body, err := p.render(msg)
	if err != nil {
		return errors.Join(ErrFailedToSendEmail, err)
	}

	resp, err := p.client.SendEmail(ctx, postmark.Email{
		From:       p.config.SenderEmail,
		ReplyTo:    p.config.SupportEmail,
		To:         msg.To,
		Subject:    msg.Subject,
		Tag:        msg.Template,
		HTMLBody:   body,
		TrackOpens: true,
		TrackLinks: "HtmlOnly",
	})
	if err != nil {
		return errors.Join(ErrFailedToSendEmail, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(
			ErrFailedToSendEmail,
			fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message),
		)
	}
	return nil
}
