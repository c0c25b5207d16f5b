package auth

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryUsers is an in-process UserDirectory for tests and single-node setups.
type MemoryUsers struct {
	mu    sync.RWMutex
	users map[string]*User
}

// NewMemoryUsers creates an empty directory.
func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{users: make(map[string]*User)}
}

func cloneUser(u *User) *User {
	c := *u
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		c.LastLoginAt = &t
	}
	return &c
}

func (s *MemoryUsers) find(match func(*User) bool) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, ErrUserNotFound
}

func (s *MemoryUsers) FindByEmailOrUsername(_ context.Context, identifier string) (*User, error) {
	email := NormalizeEmail(identifier)
	return s.find(func(u *User) bool {
		return u.Email == email || (u.Username != "" && u.Username == identifier)
	})
}

func (s *MemoryUsers) FindByEmail(_ context.Context, email string) (*User, error) {
	email = NormalizeEmail(email)
	return s.find(func(u *User) bool { return u.Email == email })
}

func (s *MemoryUsers) FindByUsername(_ context.Context, username string) (*User, error) {
	if username == "" {
		return nil, ErrUserNotFound
	}
	return s.find(func(u *User) bool { return u.Username == username })
}

func (s *MemoryUsers) FindByID(_ context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (s *MemoryUsers) FindByVerificationToken(_ context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrUserNotFound
	}
	return s.find(func(u *User) bool { return u.VerificationToken == token })
}

func (s *MemoryUsers) Insert(_ context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return ErrDuplicateEmail
		}
		if user.Username != "" && u.Username == user.Username {
			return ErrDuplicateUsername
		}
	}
	s.users[user.ID] = cloneUser(user)
	return nil
}

func (s *MemoryUsers) update(id string, fn func(*User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return ErrUserNotFound
	}
	fn(u)
	return nil
}

func (s *MemoryUsers) UpdateStatus(_ context.Context, id string, status Status) error {
	return s.update(id, func(u *User) { u.Status = status })
}

func (s *MemoryUsers) UpdateVerification(_ context.Context, id string, verified bool, token string) error {
	return s.update(id, func(u *User) {
		u.Verified = verified
		u.VerificationToken = token
	})
}

func (s *MemoryUsers) UpdateTwoFactor(_ context.Context, id string, tf TwoFactor) error {
	return s.update(id, func(u *User) { u.TwoFactor = tf })
}

func (s *MemoryUsers) TouchLogin(_ context.Context, id string, at time.Time) error {
	return s.update(id, func(u *User) { u.LastLoginAt = &at })
}

// MemoryTokens is an in-process TokenStore.
type MemoryTokens struct {
	mu     sync.Mutex
	tokens map[string]map[string]SessionToken // userID -> hash -> token
}

// NewMemoryTokens creates an empty store.
func NewMemoryTokens() *MemoryTokens {
	return &MemoryTokens{tokens: make(map[string]map[string]SessionToken)}
}

func (s *MemoryTokens) Find(_ context.Context, userID, hash string) (*SessionToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[userID][hash]
	if !ok {
		return nil, ErrTokenNotFound
	}
	return &t, nil
}

func (s *MemoryTokens) Insert(_ context.Context, token SessionToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byHash, ok := s.tokens[token.UserID]
	if !ok {
		byHash = make(map[string]SessionToken)
		s.tokens[token.UserID] = byHash
	}
	if _, exists := byHash[token.TokenHash]; exists {
		return ErrDuplicateToken
	}
	byHash[token.TokenHash] = token
	return nil
}

func (s *MemoryTokens) ReplaceToken(_ context.Context, userID, oldHash string, next SessionToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byHash := s.tokens[userID]
	if _, ok := byHash[oldHash]; !ok {
		return ErrTokenNotFound
	}
	delete(byHash, oldHash)
	next.UserID = userID
	byHash[next.TokenHash] = next
	return nil
}

func (s *MemoryTokens) Delete(_ context.Context, userID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens[userID], hash)
	return nil
}

func (s *MemoryTokens) DeleteAll(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, userID)
	return nil
}

// Count returns the number of live tokens held for userID.
func (s *MemoryTokens) Count(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens[userID])
}
