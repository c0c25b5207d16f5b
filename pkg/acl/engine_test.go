package acl_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/acl"
	"github.com/dmitrymomot/authkit/pkg/autherr"
)

func testRoles() []acl.Role {
	return []acl.Role{
		{Code: "SYSADMIN", Name: "System Admin", Permissions: []string{"**"}},
		{Code: "USER", Name: "User", Permissions: []string{"user.read"}},
		{Code: "EDITOR", Name: "Editor", Permissions: []string{"post.write", "post.*"}, Inherits: []string{"USER"}},
		{Code: "MODERATOR", Name: "Moderator", Permissions: []string{"comment.**"}, Inherits: []string{"EDITOR"}},
		{Code: "A", Name: "A", Permissions: []string{"a.read"}, Inherits: []string{"B"}},
		{Code: "B", Name: "B", Permissions: []string{"b.read"}, Inherits: []string{"A"}},
		{Code: "ORPHAN", Name: "Orphan", Permissions: []string{"orphan.read"}, Inherits: []string{"GHOST"}},
	}
}

func newEngine(t *testing.T, opts ...acl.Option) (*acl.Engine, *acl.MemoryRoles) {
	t.Helper()
	repo := acl.NewMemoryRoles(testRoles()...)
	return acl.NewEngine(repo, opts...), repo
}

func TestEngine_Can(t *testing.T) {
	t.Parallel()
	engine, _ := newEngine(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		roles      []string
		permission string
		want       bool
	}{
		{name: "direct grant", roles: []string{"USER"}, permission: "user.read", want: true},
		{name: "absent grant", roles: []string{"USER"}, permission: "user.delete", want: false},
		{name: "global wildcard", roles: []string{"SYSADMIN"}, permission: "anything.at.all", want: true},
		{name: "inherited grant", roles: []string{"EDITOR"}, permission: "user.read", want: true},
		{name: "transitive grant", roles: []string{"MODERATOR"}, permission: "user.read", want: true},
		{name: "single segment wildcard", roles: []string{"EDITOR"}, permission: "post.delete", want: true},
		{name: "single segment wildcard too deep", roles: []string{"EDITOR"}, permission: "post.delete.all", want: false},
		{name: "trailing wildcard deep", roles: []string{"MODERATOR"}, permission: "comment.delete.any", want: true},
		{name: "trailing wildcard needs a segment", roles: []string{"MODERATOR"}, permission: "comment", want: false},
		{name: "cycle union", roles: []string{"A"}, permission: "b.read", want: true},
		{name: "unknown role", roles: []string{"NOPE"}, permission: "user.read", want: false},
		{name: "missing parent ignored", roles: []string{"ORPHAN"}, permission: "orphan.read", want: true},
		{name: "no roles", roles: nil, permission: "user.read", want: false},
		{name: "union across roles", roles: []string{"USER", "A"}, permission: "a.read", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := engine.Can(ctx, tt.roles, tt.permission)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEngine_EffectivePermissions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("transitive union", func(t *testing.T) {
		t.Parallel()
		engine, _ := newEngine(t)
		perms, err := engine.EffectivePermissions(ctx, []string{"MODERATOR"})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"comment.**", "post.write", "post.*", "user.read"}, perms)
	})

	t.Run("cycle terminates", func(t *testing.T) {
		t.Parallel()
		engine, _ := newEngine(t)
		perms, err := engine.EffectivePermissions(ctx, []string{"A"})
		require.NoError(t, err)
		assert.Equal(t, []string{"a.read", "b.read"}, perms)
	})

	t.Run("order independent and idempotent", func(t *testing.T) {
		t.Parallel()
		engine, _ := newEngine(t)
		first, err := engine.EffectivePermissions(ctx, []string{"USER", "EDITOR", "A"})
		require.NoError(t, err)
		second, err := engine.EffectivePermissions(ctx, []string{"A", "USER", "EDITOR", "USER"})
		require.NoError(t, err)
		third, err := engine.EffectivePermissions(ctx, []string{"EDITOR", "A", "USER"})
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, first, third)
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		engine, _ := newEngine(t)
		perms, err := engine.EffectivePermissions(ctx, []string{"", ""})
		require.NoError(t, err)
		assert.Empty(t, perms)
	})

	t.Run("result is a copy", func(t *testing.T) {
		t.Parallel()
		engine, _ := newEngine(t)
		perms, err := engine.EffectivePermissions(ctx, []string{"USER"})
		require.NoError(t, err)
		perms[0] = "tampered"
		again, err := engine.EffectivePermissions(ctx, []string{"USER"})
		require.NoError(t, err)
		assert.Equal(t, []string{"user.read"}, again)
	})
}

func TestEngine_Memoization(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine, repo := newEngine(t)

	_, err := engine.EffectivePermissions(ctx, []string{"EDITOR", "USER"})
	require.NoError(t, err)
	lookups := repo.Lookups()

	_, err = engine.EffectivePermissions(ctx, []string{"USER", "EDITOR"})
	require.NoError(t, err)
	assert.Equal(t, lookups, repo.Lookups(), "permuted set must hit memo")

	repo.Put(acl.Role{Code: "USER", Name: "User", Permissions: []string{"user.read", "user.update"}})
	ok, err := engine.Can(ctx, []string{"EDITOR", "USER"}, "user.update")
	require.NoError(t, err)
	assert.False(t, ok, "stale memo is acceptable before invalidation")

	engine.Invalidate()
	ok, err = engine.Can(ctx, []string{"EDITOR", "USER"}, "user.update")
	require.NoError(t, err)
	assert.True(t, ok)
}

type failingRoles struct{ err error }

func (f failingRoles) FindByCodes(context.Context, []string) ([]acl.Role, error) { return nil, f.err }
func (f failingRoles) Count(context.Context) (int64, error)                       { return 0, f.err }
func (f failingRoles) Insert(context.Context, ...acl.Role) error                  { return f.err }

func TestEngine_RepositoryErrorPropagates(t *testing.T) {
	t.Parallel()
	boom := errors.New("db down")
	engine := acl.NewEngine(failingRoles{err: boom})
	ctx := context.Background()

	_, err := engine.Can(ctx, []string{"USER"}, "user.read")
	assert.ErrorIs(t, err, boom)

	_, err = engine.HasRole(ctx, []string{"USER"}, "ADMIN")
	assert.ErrorIs(t, err, boom)

	err = engine.Authorize(ctx, []string{"USER"}, "user.read")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, autherr.ErrNoPermission)
}

// gatedRoles holds FindByCodes until release is closed and fails when the
// context it was handed is done by then.
type gatedRoles struct {
	*acl.MemoryRoles
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedRoles) FindByCodes(ctx context.Context, codes []string) ([]acl.Role, error) {
	g.once.Do(func() { close(g.entered) })
	<-g.release
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return g.MemoryRoles.FindByCodes(ctx, codes)
}

func TestEngine_CancelledCallerDoesNotFailSharedLoad(t *testing.T) {
	t.Parallel()

	repo := &gatedRoles{
		MemoryRoles: acl.NewMemoryRoles(testRoles()...),
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	engine := acl.NewEngine(repo)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	type result struct {
		perms []string
		err   error
	}
	leader := make(chan result, 1)
	go func() {
		perms, err := engine.EffectivePermissions(cancelled, []string{"EDITOR"})
		leader <- result{perms, err}
	}()
	<-repo.entered

	joiner := make(chan result, 1)
	go func() {
		perms, err := engine.EffectivePermissions(context.Background(), []string{"EDITOR"})
		joiner <- result{perms, err}
	}()
	time.Sleep(20 * time.Millisecond)
	close(repo.release)

	for _, ch := range []chan result{leader, joiner} {
		res := <-ch
		require.NoError(t, res.err)
		assert.Contains(t, res.perms, "user.read")
	}
}

func TestEngine_HasRole(t *testing.T) {
	t.Parallel()
	engine, _ := newEngine(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		roles  []string
		target string
		want   bool
	}{
		{name: "direct", roles: []string{"USER"}, target: "USER", want: true},
		{name: "inherited", roles: []string{"EDITOR"}, target: "USER", want: true},
		{name: "transitive", roles: []string{"MODERATOR"}, target: "USER", want: true},
		{name: "not inherited", roles: []string{"USER"}, target: "EDITOR", want: false},
		{name: "cycle member", roles: []string{"A"}, target: "B", want: true},
		{name: "cycle non member", roles: []string{"A"}, target: "SYSADMIN", want: false},
		{name: "declared but missing parent", roles: []string{"ORPHAN"}, target: "GHOST", want: true},
		{name: "empty target", roles: []string{"USER"}, target: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := engine.HasRole(ctx, tt.roles, tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEngine_HasAccessAndAuthorize(t *testing.T) {
	t.Parallel()
	engine, _ := newEngine(t)
	ctx := context.Background()

	ok, err := engine.HasAccess(ctx, []string{"USER"}, "SYSADMIN", "user.read")
	require.NoError(t, err)
	assert.True(t, ok, "permission item satisfies the OR")

	ok, err = engine.HasAccess(ctx, []string{"EDITOR"}, "SYSADMIN", "USER")
	require.NoError(t, err)
	assert.True(t, ok, "inherited role item satisfies the OR")

	ok, err = engine.HasAccess(ctx, []string{"USER"}, "SYSADMIN", "user.delete")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, engine.Authorize(ctx, []string{"SYSADMIN"}, "billing.refund"))
	assert.NoError(t, engine.Authorize(ctx, []string{"USER"}))
	assert.ErrorIs(t, engine.Authorize(ctx, []string{"USER"}, "user.delete"), autherr.ErrNoPermission)
}

func TestEngine_AuthorizeContext(t *testing.T) {
	t.Parallel()
	engine, _ := newEngine(t)

	ctx := acl.WithRoles(context.Background(), "EDITOR")
	roles, ok := acl.RolesFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, []string{"EDITOR"}, roles)

	assert.NoError(t, engine.AuthorizeContext(ctx, "post.publish"))
	assert.ErrorIs(t, engine.AuthorizeContext(ctx, "SYSADMIN"), autherr.ErrNoPermission)
	assert.ErrorIs(t, engine.AuthorizeContext(context.Background(), "user.read"), autherr.ErrNoPermission)
	assert.NoError(t, engine.AuthorizeContext(context.Background()))
}

func TestEngine_CycleWarning(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	var mu sync.Mutex
	log := slog.New(slog.NewJSONHandler(&lockedWriter{w: &buf, mu: &mu}, nil))
	engine, _ := newEngine(t, acl.WithLogger(log))

	_, err := engine.EffectivePermissions(context.Background(), []string{"A"})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, buf.String(), "role inheritance cycle detected")
}

func TestEngine_ConcurrentAccess(t *testing.T) {
	t.Parallel()
	engine, repo := newEngine(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				switch (i + j) % 5 {
				case 0:
					ok, err := engine.Can(ctx, []string{"MODERATOR"}, "user.read")
					assert.NoError(t, err)
					assert.True(t, ok)
				case 1:
					ok, err := engine.Can(ctx, []string{"USER"}, "post.write")
					assert.NoError(t, err)
					assert.False(t, ok)
				case 2:
					_, err := engine.HasRole(ctx, []string{"A"}, "B")
					assert.NoError(t, err)
				case 3:
					engine.Invalidate()
				case 4:
					repo.Put(acl.Role{Code: "EXTRA", Name: "Extra", Permissions: []string{"extra.read"}})
				}
			}
		}()
	}
	wg.Wait()
}

type lockedWriter struct {
	w  *bytes.Buffer
	mu *sync.Mutex
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
