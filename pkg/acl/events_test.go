package acl_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/acl"
	"github.com/dmitrymomot/authkit/pkg/broadcast"
)

func TestEngine_ListenInvalidates(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	engine, repo := newEngine(t)
	events := broadcast.NewMemory[acl.Event](4)
	t.Cleanup(func() { _ = events.Close() })

	done := make(chan struct{})
	sub := events.Subscribe(ctx)
	go func() {
		defer close(done)
		engine.Listen(ctx, sub)
	}()

	ok, err := engine.Can(ctx, []string{"USER"}, "user.update")
	require.NoError(t, err)
	require.False(t, ok)

	repo.Put(acl.Role{Code: "USER", Name: "User", Permissions: []string{"user.read", "user.update"}})

	// A peer engine publishes the change; this engine only learns of it
	// through the subscription.
	peer := acl.NewEngine(repo)
	require.NoError(t, peer.Notify(ctx, events, acl.Event{Type: acl.EventRoleChanged, Code: "USER"}))

	assert.Eventually(t, func() bool {
		ok, err := engine.Can(ctx, []string{"USER"}, "user.update")
		return err == nil && ok
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Listen did not return after cancellation")
	}
}

func TestEngine_NotifyWithoutBroadcaster(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine, repo := newEngine(t)

	_, err := engine.EffectivePermissions(ctx, []string{"USER"})
	require.NoError(t, err)

	repo.Put(acl.Role{Code: "USER", Name: "User", Permissions: []string{"user.write"}})
	require.NoError(t, engine.Notify(ctx, nil, acl.Event{Type: acl.EventPermissionChanged}))

	perms, err := engine.EffectivePermissions(ctx, []string{"USER"})
	require.NoError(t, err)
	assert.Equal(t, []string{"user.write"}, perms)
}
