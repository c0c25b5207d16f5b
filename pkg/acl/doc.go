// Package acl is the access-control engine: it resolves a caller's effective
// permissions through role inheritance and evaluates permission and role
// requirements against them.
//
// Permission codes are dotted paths matched with segment wildcards (see
// package scopes): "*" stands for one segment and a trailing "**" for one or
// more segments, while "**" on its own grants everything.
//
// Resolution loads the reachable role graph with one bulk repository call per
// inheritance level. Cycles terminate and are logged as data-integrity
// warnings. Results are memoized per distinct role-code set; call Invalidate,
// or feed change events to Listen, whenever roles or permissions change.
//
//	engine := acl.NewEngine(roleRepo, acl.WithLogger(log))
//	go engine.Listen(ctx, events.Subscribe(ctx))
//
//	if err := engine.Authorize(ctx, []string{user.Role}, "user.read", "SYSADMIN"); err != nil {
//	    return err // autherr.ErrNoPermission
//	}
package acl
