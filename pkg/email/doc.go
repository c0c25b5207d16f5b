// Package email sends transactional messages such as magic links and
// account verification notices.
//
// Sender is the single delivery contract. Postmark delivers through the
// Postmark API, DevSender writes messages to disk for local work, and
// Dispatcher wraps any Sender with a bounded background queue so callers
// never wait on delivery:
//
//	sender, err := email.NewPostmark(cfg)
//	if err != nil {
//		return err
//	}
//	mailer := email.NewDispatcher(sender, email.WithWorkers(4), email.WithLogger(log))
//	defer mailer.Close(context.Background())
//
//	_ = mailer.Send(ctx, email.Message{
//		To:       "user@example.com",
//		Subject:  "Sign in",
//		Template: email.TemplateMagicLink,
//		Data:     map[string]any{"link": link},
//	})
//
// Message bodies come from a Renderer. PlainRenderer produces a minimal
// HTML page; applications that own real templates pass their own.
package email
