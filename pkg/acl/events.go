package acl

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/authkit/pkg/broadcast"
	"github.com/dmitrymomot/authkit/pkg/logger"
)

// EventType names a change that affects permission resolution.
type EventType string

const (
	EventRoleChanged       EventType = "role.changed"
	EventPermissionChanged EventType = "permission.changed"
)

// Event announces that a role or permission was created, updated or removed.
type Event struct {
	Type EventType `json:"type"`
	Code string    `json:"code,omitempty"`
}

// Listen invalidates the memo for every change event received from sub until
// ctx is cancelled or the subscription closes. It blocks; run it in its own
// goroutine.
func (e *Engine) Listen(ctx context.Context, sub broadcast.Subscriber[Event]) {
	defer func() { _ = sub.Close() }()

	ch := sub.Receive(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			switch msg.Data.Type {
			case EventRoleChanged, EventPermissionChanged:
				e.Invalidate()
				e.logger.Debug("acl memo invalidated",
					logger.Component("acl"),
					logger.Event(string(msg.Data.Type)),
					slog.String("code", msg.Data.Code),
				)
			default:
				e.logger.Warn("acl ignored unknown event",
					logger.Component("acl"),
					logger.Event(string(msg.Data.Type)),
				)
			}
		}
	}
}

// Notify publishes ev through b so every listening engine invalidates, and
// invalidates this engine immediately. A nil broadcaster only invalidates
// locally.
func (e *Engine) Notify(ctx context.Context, b broadcast.Broadcaster[Event], ev Event) error {
	e.Invalidate()
	if b == nil {
		return nil
	}
	return b.Broadcast(ctx, broadcast.Message[Event]{Data: ev})
}
