package auth_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/authkit/pkg/auth"
)

type mockUsers struct {
	mock.Mock
}

func (m *mockUsers) user(args mock.Arguments) (*auth.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

func (m *mockUsers) FindByEmailOrUsername(ctx context.Context, identifier string) (*auth.User, error) {
	return m.user(m.Called(ctx, identifier))
}

func (m *mockUsers) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	return m.user(m.Called(ctx, email))
}

func (m *mockUsers) FindByUsername(ctx context.Context, username string) (*auth.User, error) {
	return m.user(m.Called(ctx, username))
}

func (m *mockUsers) FindByID(ctx context.Context, id string) (*auth.User, error) {
	return m.user(m.Called(ctx, id))
}

func (m *mockUsers) FindByVerificationToken(ctx context.Context, token string) (*auth.User, error) {
	return m.user(m.Called(ctx, token))
}

func (m *mockUsers) Insert(ctx context.Context, user *auth.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUsers) UpdateStatus(ctx context.Context, id string, status auth.Status) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *mockUsers) UpdateVerification(ctx context.Context, id string, verified bool, token string) error {
	return m.Called(ctx, id, verified, token).Error(0)
}

func (m *mockUsers) UpdateTwoFactor(ctx context.Context, id string, tf auth.TwoFactor) error {
	return m.Called(ctx, id, tf).Error(0)
}

func (m *mockUsers) TouchLogin(ctx context.Context, id string, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

// flakyTokens wraps a MemoryTokens and fails selected operations.
type flakyTokens struct {
	*auth.MemoryTokens
	deleteAllErr error
	findErr      error
}

func (f *flakyTokens) Find(ctx context.Context, userID, hash string) (*auth.SessionToken, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.MemoryTokens.Find(ctx, userID, hash)
}

func (f *flakyTokens) DeleteAll(ctx context.Context, userID string) error {
	if f.deleteAllErr != nil {
		return f.deleteAllErr
	}
	return f.MemoryTokens.DeleteAll(ctx, userID)
}
