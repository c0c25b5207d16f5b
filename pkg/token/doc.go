// Package token produces compact signed tokens for one-shot links such as
// passwordless login.
//
//	link, err := token.Issue(secret, "magic_link", payload, 15*time.Minute, time.Now())
//	payload, err := token.Verify[Payload](secret, "magic_link", link, time.Now())
//
// The payload is readable by anyone holding the token; only integrity is
// protected.
package token
