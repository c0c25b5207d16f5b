package pgstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrymomot/authkit/pkg/auth"
	"github.com/dmitrymomot/authkit/pkg/pg"
)

const (
	queryFindToken    = `SELECT id, user_id, token, issued_at FROM session_tokens WHERE user_id = $1 AND token = $2`
	queryInsertToken  = `INSERT INTO session_tokens (id, user_id, token, issued_at) VALUES ($1, $2, $3, $4)`
	queryReplaceToken = `UPDATE session_tokens SET token = $3, issued_at = $4 WHERE user_id = $1 AND token = $2`
	queryDeleteToken  = `DELETE FROM session_tokens WHERE user_id = $1 AND token = $2`
	queryDeleteTokens = `DELETE FROM session_tokens WHERE user_id = $1`
)

// Tokens implements auth.TokenStore on PostgreSQL. A renewed token keeps
// its row id.
type Tokens struct {
	db *sql.DB
}

// NewTokens expects the session_tokens table from Migrations.
func NewTokens(db *sql.DB) *Tokens {
	return &Tokens{db: db}
}

func (s *Tokens) Find(ctx context.Context, userID, hash string) (*auth.SessionToken, error) {
	var t auth.SessionToken
	err := s.db.QueryRowContext(ctx, queryFindToken, userID, hash).
		Scan(&t.ID, &t.UserID, &t.TokenHash, &t.IssuedAt)
	if pg.IsNotFoundError(err) {
		return nil, auth.ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pgstore: find token: %w", err)
	}
	return &t, nil
}

func (s *Tokens) Insert(ctx context.Context, token auth.SessionToken) error {
	_, err := s.db.ExecContext(ctx, queryInsertToken, token.ID, token.UserID, token.TokenHash, token.IssuedAt)
	if pg.IsDuplicateKeyError(err) {
		return auth.ErrDuplicateToken
	}
	if err != nil {
		return fmt.Errorf("pgstore: insert token: %w", err)
	}
	return nil
}

// ReplaceToken is a single conditional UPDATE; under concurrent renewals
// of one token only the first matches a row.
func (s *Tokens) ReplaceToken(ctx context.Context, userID, oldHash string, next auth.SessionToken) error {
	res, err := s.db.ExecContext(ctx, queryReplaceToken, userID, oldHash, next.TokenHash, next.IssuedAt)
	if pg.IsDuplicateKeyError(err) {
		return auth.ErrDuplicateToken
	}
	if err != nil {
		return fmt.Errorf("pgstore: replace token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgstore: replace token: %w", err)
	}
	if n == 0 {
		return auth.ErrTokenNotFound
	}
	return nil
}

func (s *Tokens) Delete(ctx context.Context, userID, hash string) error {
	if _, err := s.db.ExecContext(ctx, queryDeleteToken, userID, hash); err != nil {
		return fmt.Errorf("pgstore: delete token: %w", err)
	}
	return nil
}

func (s *Tokens) DeleteAll(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, queryDeleteTokens, userID); err != nil {
		return fmt.Errorf("pgstore: delete tokens: %w", err)
	}
	return nil
}

var _ auth.TokenStore = (*Tokens)(nil)
