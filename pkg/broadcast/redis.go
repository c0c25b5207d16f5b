package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/authkit/pkg/logger"
)

// Redis is a Broadcaster over Redis pub/sub, so every process subscribed to
// the same channel observes each message.
type Redis[T any] struct {
	client     redis.UniversalClient
	channel    string
	bufferSize int
	logger     *slog.Logger

	mu     sync.Mutex
	closed bool
	subs   map[*subscriber[T]]struct{}
}

// RedisOption configures a Redis broadcaster.
type RedisOption func(*redisOptions)

type redisOptions struct {
	bufferSize int
	logger     *slog.Logger
}

// WithBufferSize sets the per-subscriber buffer.
func WithBufferSize(n int) RedisOption {
	return func(o *redisOptions) {
		o.bufferSize = n
	}
}

// WithLogger sets the logger used for undecodable payloads.
func WithLogger(l *slog.Logger) RedisOption {
	return func(o *redisOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewRedis creates a broadcaster publishing JSON-encoded messages on channel.
func NewRedis[T any](client redis.UniversalClient, channel string, opts ...RedisOption) *Redis[T] {
	o := redisOptions{bufferSize: 16, logger: logger.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Redis[T]{
		client:     client,
		channel:    channel,
		bufferSize: max(o.bufferSize, 1),
		logger:     o.logger,
		subs:       make(map[*subscriber[T]]struct{}),
	}
}

func (b *Redis[T]) Subscribe(ctx context.Context) Subscriber[T] {
	sub := newSubscriber[T](b.bufferSize)

	ps := b.client.Subscribe(ctx, b.channel)
	// Wait for the subscription confirmation so messages published right
	// after Subscribe returns are not lost.
	if _, err := ps.Receive(ctx); err != nil {
		b.logger.Error("broadcast subscribe failed",
			logger.Component("broadcast"),
			slog.String("channel", b.channel),
			logger.Error(err),
		)
		_ = ps.Close()
		_ = sub.Close()
		return sub
	}

	done := make(chan struct{})
	var once sync.Once
	sub.onStop = func() {
		once.Do(func() {
			close(done)
			_ = ps.Close()
			b.forget(sub)
		})
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		_ = sub.Close()
		return sub
	}
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	go func() {
		defer func() { _ = sub.Close() }()
		ch := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				var msg Message[T]
				if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
					b.logger.Warn("broadcast payload dropped",
						logger.Component("broadcast"),
						slog.String("channel", b.channel),
						logger.Error(err),
					)
					continue
				}
				sub.send(msg)
			}
		}
	}()

	return sub
}

func (b *Redis[T]) Broadcast(ctx context.Context, msg Message[T]) error {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return ErrClosed
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return errors.Join(ErrEncode, err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return errors.Join(ErrPublish, err)
	}
	return nil
}

// Close closes every subscriber created by this broadcaster. The Redis
// client itself is owned by the caller.
func (b *Redis[T]) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	subs := make([]*subscriber[T], 0, len(b.subs))
	for s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		_ = s.Close()
	}
	return nil
}

func (b *Redis[T]) forget(sub *subscriber[T]) {
	b.mu.Lock()
	delete(b.subs, sub)
	b.mu.Unlock()
}
