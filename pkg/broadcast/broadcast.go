package broadcast

import (
	"context"
	"sync"
)

// Message wraps a payload of type T.
type Message[T any] struct {
	Data T `json:"data"`
}

// Subscriber receives broadcast messages until closed.
type Subscriber[T any] interface {
	// Receive returns the delivery channel. It is closed after Close or when
	// the subscription context ends.
	Receive(ctx context.Context) <-chan Message[T]
	// Close is idempotent.
	Close() error
}

// Broadcaster fans messages out to every active subscriber. Slow consumers
// lose messages instead of blocking the sender.
type Broadcaster[T any] interface {
	Subscribe(ctx context.Context) Subscriber[T]
	Broadcast(ctx context.Context, msg Message[T]) error
	Close() error
}

type subscriber[T any] struct {
	mu     sync.RWMutex
	ch     chan Message[T]
	closed bool
	onStop func()
}

func newSubscriber[T any](bufferSize int) *subscriber[T] {
	return &subscriber[T]{ch: make(chan Message[T], bufferSize)}
}

func (s *subscriber[T]) Receive(context.Context) <-chan Message[T] {
	return s.ch
}

func (s *subscriber[T]) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.ch)
	stop := s.onStop
	s.mu.Unlock()

	if stop != nil {
		stop()
	}
	return nil
}

// send delivers without blocking and reports whether the message was queued.
func (s *subscriber[T]) send(msg Message[T]) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- msg:
		return true
	default:
		return false
	}
}
