package broadcast

import (
	"context"
	"sync"
)

// Memory is an in-process Broadcaster.
type Memory[T any] struct {
	mu          sync.RWMutex
	subscribers map[*subscriber[T]]struct{}
	bufferSize  int
	closed      bool
	wg          sync.WaitGroup
}

// NewMemory creates an in-process broadcaster; bufferSize is per subscriber
// and at least 1.
func NewMemory[T any](bufferSize int) *Memory[T] {
	return &Memory[T]{
		subscribers: make(map[*subscriber[T]]struct{}),
		bufferSize:  max(bufferSize, 1),
	}
}

func (b *Memory[T]) Subscribe(ctx context.Context) Subscriber[T] {
	sub := newSubscriber[T](b.bufferSize)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		_ = sub.Close()
		return sub
	}
	b.subscribers[sub] = struct{}{}

	if ctx.Done() != nil {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			<-ctx.Done()
			b.remove(sub)
		}()
	}
	return sub
}

// Broadcast never blocks. A subscriber whose buffer is full misses the message.
func (b *Memory[T]) Broadcast(_ context.Context, msg Message[T]) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	for sub := range b.subscribers {
		sub.send(msg)
	}
	return nil
}

func (b *Memory[T]) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	for sub := range b.subscribers {
		_ = sub.Close()
	}
	clear(b.subscribers)
	b.mu.Unlock()
	return nil
}

// Wait blocks until every context-bound cleanup goroutine has exited.
func (b *Memory[T]) Wait() {
	b.wg.Wait()
}

func (b *Memory[T]) remove(sub *subscriber[T]) {
	b.mu.Lock()
	delete(b.subscribers, sub)
	b.mu.Unlock()
	_ = sub.Close()
}
