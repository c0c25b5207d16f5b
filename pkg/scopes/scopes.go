package scopes

import (
	"slices"
	"strings"
)

const (
	// Delimiter separates scope segments (e.g., "user.read").
	Delimiter = "."

	// SingleWildcard matches exactly one segment.
	SingleWildcard = "*"

	// MultiWildcard matches one or more segments. On its own it matches every scope.
	MultiWildcard = "**"
)

// Match reports whether scope is granted by pattern.
//
// Matching is segment based:
//   - "user.read" matches only "user.read"
//   - "user.*" matches "user.read" but not "user.read.self" or "user"
//   - "user.**" matches "user.read" and "user.read.self" but not "user"
//   - "**" matches any scope
func Match(pattern, scope string) bool {
	if pattern == scope {
		return scope != ""
	}
	if pattern == MultiWildcard {
		return scope != ""
	}
	if !strings.Contains(pattern, SingleWildcard) {
		return false
	}
	return matchSegments(strings.Split(pattern, Delimiter), strings.Split(scope, Delimiter))
}

func matchSegments(pattern, scope []string) bool {
	for i, p := range pattern {
		if p == MultiWildcard {
			rest := pattern[i+1:]
			// "**" consumes at least one segment, then tries every split point.
			for j := i + 1; j <= len(scope); j++ {
				if len(rest) == 0 && j == len(scope) {
					return true
				}
				if len(rest) > 0 && matchSegments(rest, scope[j:]) {
					return true
				}
			}
			return false
		}
		if i >= len(scope) || scope[i] == "" {
			return false
		}
		if p != SingleWildcard && p != scope[i] {
			return false
		}
	}
	return len(pattern) == len(scope)
}

// HasScope reports whether any granted pattern matches scope.
func HasScope(granted []string, scope string) bool {
	for _, g := range granted {
		if Match(g, scope) {
			return true
		}
	}
	return false
}

// HasAnyScopes reports whether at least one required scope is granted.
// An empty required list is trivially satisfied.
func HasAnyScopes(granted, required []string) bool {
	if len(required) == 0 {
		return true
	}
	for _, r := range required {
		if HasScope(granted, r) {
			return true
		}
	}
	return false
}

// HasAllScopes reports whether every required scope is granted.
func HasAllScopes(granted, required []string) bool {
	for _, r := range required {
		if !HasScope(granted, r) {
			return false
		}
	}
	return true
}

// IsScope reports whether s looks like a scope rather than a role code:
// scopes always contain the segment delimiter or are a bare wildcard.
func IsScope(s string) bool {
	return strings.Contains(s, Delimiter) || s == MultiWildcard || s == SingleWildcard
}

// Validate checks the scope grammar: non-empty segments, and "**" only as
// the last segment.
func Validate(scope string) error {
	if scope == "" {
		return ErrInvalidScope
	}
	segments := strings.Split(scope, Delimiter)
	for i, seg := range segments {
		if seg == "" {
			return ErrInvalidScope
		}
		if seg == MultiWildcard && i != len(segments)-1 {
			return ErrInvalidScope
		}
		if seg != SingleWildcard && seg != MultiWildcard && strings.Contains(seg, SingleWildcard) {
			return ErrInvalidScope
		}
	}
	return nil
}

// Normalize removes duplicates and empty entries and sorts the result.
// Returns nil for empty input.
func Normalize(scopes []string) []string {
	if len(scopes) == 0 {
		return nil
	}
	out := make([]string, 0, len(scopes))
	for _, s := range scopes {
		if s != "" {
			out = append(out, s)
		}
	}
	slices.Sort(out)
	out = slices.Compact(out)
	if len(out) == 0 {
		return nil
	}
	return out
}
