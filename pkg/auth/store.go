package auth

import (
	"context"
	"time"
)

// UserDirectory persists user accounts. Lookups return ErrUserNotFound when
// nothing matches; Insert returns ErrDuplicateEmail or ErrDuplicateUsername
// on uniqueness conflicts.
type UserDirectory interface {
	FindByEmailOrUsername(ctx context.Context, identifier string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	FindByVerificationToken(ctx context.Context, token string) (*User, error)
	Insert(ctx context.Context, user *User) error
	UpdateStatus(ctx context.Context, id string, status Status) error
	UpdateVerification(ctx context.Context, id string, verified bool, token string) error
	UpdateTwoFactor(ctx context.Context, id string, tf TwoFactor) error
	TouchLogin(ctx context.Context, id string, at time.Time) error
}

// TokenStore persists hashed session tokens.
//
// ReplaceToken swaps the row identified by (userID, oldHash) for next in one
// atomic step and returns ErrTokenNotFound when no such row exists, so at most
// one concurrent renewal of the same token succeeds. Delete is idempotent.
type TokenStore interface {
	Find(ctx context.Context, userID, hash string) (*SessionToken, error)
	Insert(ctx context.Context, token SessionToken) error
	ReplaceToken(ctx context.Context, userID, oldHash string, next SessionToken) error
	Delete(ctx context.Context, userID, hash string) error
	DeleteAll(ctx context.Context, userID string) error
}
