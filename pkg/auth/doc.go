// Package auth manages credentials and session tokens.
//
// A Manager issues a signed JWT on login and records only its keyed digest
// in a TokenStore. Every later request resolves the JWT back to a user by
// checking the signature, the expiry and the presence of that record, so
// logout and renewal revoke tokens immediately even though the JWT itself
// is still well-formed.
//
//	mgr, err := auth.NewManager(auth.Deps{
//		Users:      users,
//		Tokens:     tokens,
//		Passwords:  passwords,
//		JWT:        codec,
//		Flags:      flags,
//		Cache:      cache.NewRedis(rdb),
//		Mailer:     dispatcher,
//		LinkSecret: cfg.LinkSecret,
//	}, auth.WithLogger(log), auth.WithMetrics(m))
//
//	res, err := mgr.Login(ctx, auth.LoginParams{Identifier: "a@b.co", Password: "pw"})
//	user, err := mgr.ResolveToken(ctx, res.Token)
//	next, err := mgr.Renew(ctx, user.ID, res.Token)
//
// # Renewal and replay
//
// Renew atomically swaps the old record for the new one. Presenting a token
// whose record is gone is treated as replay of a stolen token: all sessions
// of the user are purged and autherr.ErrAccountHasBeenHacked is returned.
//
// # Login order
//
// Login reports the first failing check in this order: unknown identifier,
// unverified, inactive, passwordless account given a password, wrong
// password (or the passwordless path when no password is given), then the
// second factor.
//
// # Runtime flags
//
// Behavior toggles are read from config.Flags on each call under the Flag*
// keys, so they can change without rebuilding the Manager.
//
// # HTTP
//
// Middleware resolves bearer tokens and stores the user and role codes in
// the request context; RequireAccess then authorizes against an acl.Engine.
package auth
