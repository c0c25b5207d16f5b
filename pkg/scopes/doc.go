// Package scopes implements dot-segmented permission codes with wildcard
// patterns.
//
// A granted permission is a pattern. "*" stands for exactly one segment and
// "**" for one or more trailing segments; "**" alone grants everything:
//
//	scopes.Match("user.*", "user.read")        // true
//	scopes.Match("user.*", "user.read.self")   // false
//	scopes.Match("user.**", "user.read.self")  // true
//	scopes.Match("**", "anything.at.all")      // true
//
// HasScope, HasAnyScopes and HasAllScopes evaluate a requested scope against a
// set of granted patterns. Normalize deduplicates and sorts a set so it can be
// compared or cached.
package scopes
