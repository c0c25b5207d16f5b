package email

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/authkit/pkg/logger"
	"github.com/dmitrymomot/authkit/pkg/metrics"
)

// Dispatcher delivers messages in the background through a bounded queue
// drained by a fixed set of workers. Enqueue never blocks on delivery;
// failures are logged and counted.
type Dispatcher struct {
	sender  Sender
	queue   chan Message
	log     *slog.Logger
	metrics *metrics.Metrics
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// DispatcherOption customizes a Dispatcher.
type DispatcherOption func(*dispatcherOptions)

type dispatcherOptions struct {
	workers   int
	queueSize int
	timeout   time.Duration
	log       *slog.Logger
	metrics   *metrics.Metrics
}

// WithWorkers sets the number of delivery goroutines.
func WithWorkers(n int) DispatcherOption {
	return func(o *dispatcherOptions) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithQueueSize sets the buffered queue capacity.
func WithQueueSize(n int) DispatcherOption {
	return func(o *dispatcherOptions) {
		if n > 0 {
			o.queueSize = n
		}
	}
}

// WithSendTimeout bounds a single delivery attempt.
func WithSendTimeout(d time.Duration) DispatcherOption {
	return func(o *dispatcherOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithLogger sets the logger used for delivery failures.
func WithLogger(l *slog.Logger) DispatcherOption {
	return func(o *dispatcherOptions) {
		if l != nil {
			o.log = l
		}
	}
}

// WithMetrics records delivery outcomes.
func WithMetrics(m *metrics.Metrics) DispatcherOption {
	return func(o *dispatcherOptions) { o.metrics = m }
}

// NewDispatcher starts the workers immediately. Call Close to drain them.
func NewDispatcher(sender Sender, opts ...DispatcherOption) *Dispatcher {
	o := dispatcherOptions{
		workers:   2,
		queueSize: 256,
		timeout:   30 * time.Second,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	d := &Dispatcher{
		sender:  sender,
		queue:   make(chan Message, o.queueSize),
		log:     o.log.With(logger.Component("email.dispatcher")),
		metrics: o.metrics,
		timeout: o.timeout,
	}
	for range o.workers {
		d.wg.Add(1)
		go d.work()
	}
	return d
}

// Send enqueues msg and returns without waiting for delivery.
// It satisfies Sender so callers can treat delivery as fire-and-forget.
func (d *Dispatcher) Send(_ context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}

	select {
	case d.queue <- msg:
		return nil
	default:
		d.metrics.MailDispatched("dropped")
		d.log.Warn("email queue is full, message dropped",
			slog.String("template", msg.Template))
		return ErrQueueFull
	}
}

// Close stops accepting messages and waits for queued ones to be delivered
// or for ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for msg := range d.queue {
		d.deliver(msg)
	}
}

func (d *Dispatcher) deliver(msg Message) {
	defer func() {
		if r := recover(); r != nil {
			d.metrics.MailDispatched("failed")
			d.log.Error("email sender panicked", slog.Any("panic", r),
				slog.String("template", msg.Template))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.sender.Send(ctx, msg); err != nil {
		d.metrics.MailDispatched("failed")
		d.log.Error("failed to deliver email",
			logger.Error(err),
			slog.String("template", msg.Template))
		return
	}
	d.metrics.MailDispatched("sent")
}
