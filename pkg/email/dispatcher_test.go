package email_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/email"
	"github.com/dmitrymomot/authkit/pkg/logger"
	"github.com/dmitrymomot/authkit/pkg/metrics"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []email.Message
	err  error
}

func (r *recordingSender) Send(_ context.Context, msg email.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func TestDispatcherDeliversQueuedMessages(t *testing.T) {
	t.Parallel()

	rec := &recordingSender{}
	m := metrics.New(prometheus.NewRegistry())
	d := email.NewDispatcher(rec,
		email.WithWorkers(3),
		email.WithLogger(logger.Discard()),
		email.WithMetrics(m))

	for range 10 {
		require.NoError(t, d.Send(context.Background(), validMessage()))
	}

	require.NoError(t, d.Close(context.Background()))
	assert.Equal(t, 10, rec.count())
	assert.InDelta(t, 10, testutil.ToFloat64(m.MailDispatchedTotal.WithLabelValues("sent")), 0)
}

func TestDispatcherLogsFailures(t *testing.T) {
	t.Parallel()

	rec := &recordingSender{err: errors.New("smtp down")}
	m := metrics.New(prometheus.NewRegistry())
	d := email.NewDispatcher(rec, email.WithLogger(logger.Discard()), email.WithMetrics(m))

	require.NoError(t, d.Send(context.Background(), validMessage()))
	require.NoError(t, d.Close(context.Background()))

	assert.InDelta(t, 1, testutil.ToFloat64(m.MailDispatchedTotal.WithLabelValues("failed")), 0)
}

func TestDispatcherRecoversSenderPanic(t *testing.T) {
	t.Parallel()

	d := email.NewDispatcher(email.SenderFunc(func(context.Context, email.Message) error {
		panic("boom")
	}), email.WithWorkers(1), email.WithLogger(logger.Discard()))

	require.NoError(t, d.Send(context.Background(), validMessage()))
	require.NoError(t, d.Send(context.Background(), validMessage()))
	require.NoError(t, d.Close(context.Background()))
}

func TestDispatcherRejectsAfterClose(t *testing.T) {
	t.Parallel()

	d := email.NewDispatcher(&recordingSender{}, email.WithLogger(logger.Discard()))
	require.NoError(t, d.Close(context.Background()))
	require.NoError(t, d.Close(context.Background()))

	assert.ErrorIs(t, d.Send(context.Background(), validMessage()), email.ErrDispatcherClosed)
}

func TestDispatcherQueueFull(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	blocking := email.SenderFunc(func(context.Context, email.Message) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return nil
	})

	d := email.NewDispatcher(blocking,
		email.WithWorkers(1),
		email.WithQueueSize(1),
		email.WithLogger(logger.Discard()))

	require.NoError(t, d.Send(context.Background(), validMessage()))
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("worker did not pick up the first message")
	}

	require.NoError(t, d.Send(context.Background(), validMessage()))
	assert.ErrorIs(t, d.Send(context.Background(), validMessage()), email.ErrQueueFull)

	close(release)
	require.NoError(t, d.Close(context.Background()))
}

func TestDispatcherValidatesBeforeQueueing(t *testing.T) {
	t.Parallel()

	rec := &recordingSender{}
	d := email.NewDispatcher(rec, email.WithLogger(logger.Discard()))
	assert.ErrorIs(t, d.Send(context.Background(), email.Message{}), email.ErrInvalidMessage)
	require.NoError(t, d.Close(context.Background()))
	assert.Zero(t, rec.count())
}
