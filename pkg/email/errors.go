package email

import "errors"

var (
	ErrFailedToSendEmail = errors.New("email: failed to send email")
	ErrInvalidConfig     = errors.New("email: invalid config")
	ErrInvalidMessage    = errors.New("email: invalid message")
	ErrRenderFailed      = errors.New("email: failed to render message")
	ErrDispatcherClosed  = errors.New("email: dispatcher is closed")
	ErrQueueFull         = errors.New("email: dispatch queue is full")
)
