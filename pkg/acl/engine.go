package acl

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/authkit/pkg/autherr"
	"github.com/dmitrymomot/authkit/pkg/logger"
	"github.com/dmitrymomot/authkit/pkg/metrics"
	"github.com/dmitrymomot/authkit/pkg/scopes"
)

const (
	DefaultMemoSize = 1024
	DefaultMemoTTL  = 10 * time.Minute
)

// Engine resolves effective permissions through role inheritance and answers
// authorization questions. Resolutions are memoized per distinct role-code set
// until Invalidate is called or the memo TTL elapses.
type Engine struct {
	roles   RoleRepository
	memo    *expirable.LRU[string, []string]
	group   singleflight.Group
	gen     atomic.Uint64
	logger  *slog.Logger
	metrics *metrics.Metrics

	memoSize int
	memoTTL  time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for data-integrity warnings.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics records memo and decision counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithMemo sets the memo capacity and TTL backstop. A zero ttl keeps
// entries until invalidated or evicted.
func WithMemo(size int, ttl time.Duration) Option {
	return func(e *Engine) {
		e.memoSize = size
		e.memoTTL = ttl
	}
}

// NewEngine creates an engine reading roles from repo.
func NewEngine(repo RoleRepository, opts ...Option) *Engine {
	e := &Engine{
		roles:    repo,
		logger:   logger.Discard(),
		memoSize: DefaultMemoSize,
		memoTTL:  DefaultMemoTTL,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.memo = expirable.NewLRU[string, []string](e.memoSize, nil, e.memoTTL)
	return e
}

// EffectivePermissions returns the deduplicated union of permissions granted
// by roleCodes and everything they inherit, transitively. Unknown codes
// contribute nothing. The returned slice is sorted and owned by the caller.
func (e *Engine) EffectivePermissions(ctx context.Context, roleCodes []string) ([]string, error) {
	codes := scopes.Normalize(roleCodes)
	if len(codes) == 0 {
		return nil, nil
	}
	key := strings.Join(codes, ",")

	if perms, ok := e.memo.Get(key); ok {
		e.metrics.ACLMemo(true)
		return slices.Clone(perms), nil
	}
	e.metrics.ACLMemo(false)

	gen := e.gen.Load()
	// Callers arriving after an invalidation never join a flight started
	// before it.
	flight := strconv.FormatUint(gen, 10) + "|" + key
	// The flight is shared, so one caller's cancellation must not fail the
	// callers that joined it.
	fctx := context.WithoutCancel(ctx)
	v, err, _ := e.group.Do(flight, func() (any, error) {
		graph, err := e.loadGraph(fctx, codes)
		if err != nil {
			return nil, err
		}
		e.reportCycles(graph, codes)

		var perms []string
		for _, r := range graph {
			perms = append(perms, r.Permissions...)
		}
		perms = scopes.Normalize(perms)

		if e.gen.Load() == gen {
			e.memo.Add(key, perms)
		}
		return perms, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]string)), nil
}

// Can reports whether any effective permission of roleCodes matches
// permission under segment wildcard rules.
func (e *Engine) Can(ctx context.Context, roleCodes []string, permission string) (bool, error) {
	perms, err := e.EffectivePermissions(ctx, roleCodes)
	if err != nil {
		return false, err
	}
	return scopes.HasScope(perms, permission), nil
}

// HasRole reports whether target is one of roleCodes or is reachable through
// their inheritance chains.
func (e *Engine) HasRole(ctx context.Context, roleCodes []string, target string) (bool, error) {
	if target == "" {
		return false, nil
	}
	if slices.Contains(roleCodes, target) {
		return true, nil
	}

	visited := make(map[string]struct{}, len(roleCodes))
	frontier := make([]string, 0, len(roleCodes))
	for _, c := range roleCodes {
		if _, ok := visited[c]; !ok && c != "" {
			visited[c] = struct{}{}
			frontier = append(frontier, c)
		}
	}

	for len(frontier) > 0 {
		roles, err := e.roles.FindByCodes(ctx, frontier)
		if err != nil {
			return false, err
		}
		frontier = frontier[:0]
		for _, r := range roles {
			for _, parent := range r.Inherits {
				if parent == target {
					return true, nil
				}
				if _, ok := visited[parent]; !ok {
					visited[parent] = struct{}{}
					frontier = append(frontier, parent)
				}
			}
		}
	}
	return false, nil
}

// HasAccess treats each item containing a dot (or a bare wildcard) as a
// permission and everything else as a role code, and returns true if any
// item is satisfied.
func (e *Engine) HasAccess(ctx context.Context, roleCodes []string, items ...string) (bool, error) {
	for _, item := range items {
		var (
			ok  bool
			err error
		)
		if scopes.IsScope(item) {
			ok, err = e.Can(ctx, roleCodes, item)
		} else {
			ok, err = e.HasRole(ctx, roleCodes, item)
		}
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Authorize returns autherr.ErrNoPermission unless HasAccess succeeds.
// An empty item list always passes.
func (e *Engine) Authorize(ctx context.Context, roleCodes []string, items ...string) error {
	if len(items) == 0 {
		return nil
	}
	ok, err := e.HasAccess(ctx, roleCodes, items...)
	if err != nil {
		return fmt.Errorf("acl: authorize: %w", err)
	}
	e.metrics.ACLDecision(ok)
	if !ok {
		return autherr.ErrNoPermission
	}
	return nil
}

// Invalidate drops every memoized resolution. In-flight resolutions started
// before the call will not be stored.
func (e *Engine) Invalidate() {
	e.gen.Add(1)
	e.memo.Purge()
	e.metrics.ACLInvalidation()
}

// loadGraph fetches every role reachable from codes, one bulk query per
// inheritance level.
func (e *Engine) loadGraph(ctx context.Context, codes []string) (map[string]Role, error) {
	graph := make(map[string]Role)
	requested := make(map[string]struct{}, len(codes))
	frontier := slices.Clone(codes)
	for _, c := range frontier {
		requested[c] = struct{}{}
	}

	for len(frontier) > 0 {
		roles, err := e.roles.FindByCodes(ctx, frontier)
		if err != nil {
			return nil, err
		}
		frontier = frontier[:0]
		for _, r := range roles {
			graph[r.Code] = r
			for _, parent := range r.Inherits {
				if _, ok := requested[parent]; !ok {
					requested[parent] = struct{}{}
					frontier = append(frontier, parent)
				}
			}
		}
	}
	return graph, nil
}

// reportCycles logs each inheritance cycle reachable from roots. Cycles do
// not fail resolution; the visited set already guarantees termination.
func (e *Engine) reportCycles(graph map[string]Role, roots []string) {
	const (
		unseen = iota
		onPath
		done
	)
	state := make(map[string]int, len(graph))
	var path []string

	var visit func(code string)
	visit = func(code string) {
		r, ok := graph[code]
		if !ok {
			return
		}
		state[code] = onPath
		path = append(path, code)
		for _, parent := range r.Inherits {
			switch state[parent] {
			case onPath:
				start := slices.Index(path, parent)
				cycle := append(slices.Clone(path[start:]), parent)
				e.logger.Warn("role inheritance cycle detected",
					logger.Component("acl"),
					logger.Roles(cycle),
				)
			case unseen:
				visit(parent)
			}
		}
		path = path[:len(path)-1]
		state[code] = done
	}

	for _, root := range roots {
		if state[root] == unseen {
			visit(root)
		}
	}
}
