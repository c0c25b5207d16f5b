package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/dmitrymomot/authkit/pkg/auth"
)

// Tokens implements auth.TokenStore. A renewed token keeps its document id.
type Tokens struct {
	coll *mongo.Collection
}

// NewTokens uses the tokens collection of db.
func NewTokens(db *mongo.Database) *Tokens {
	return &Tokens{coll: db.Collection(TokensCollection)}
}

func (s *Tokens) Find(ctx context.Context, userID, hash string) (*auth.SessionToken, error) {
	var t auth.SessionToken
	err := s.coll.FindOne(ctx, bson.M{"user_id": userID, "token": hash}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, auth.ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongostore: find token: %w", err)
	}
	return &t, nil
}

func (s *Tokens) Insert(ctx context.Context, token auth.SessionToken) error {
	_, err := s.coll.InsertOne(ctx, token)
	if mongo.IsDuplicateKeyError(err) {
		return auth.ErrDuplicateToken
	}
	if err != nil {
		return fmt.Errorf("mongostore: insert token: %w", err)
	}
	return nil
}

// ReplaceToken is a single conditional update, so concurrent renewals of the
// same token match at most once.
func (s *Tokens) ReplaceToken(ctx context.Context, userID, oldHash string, next auth.SessionToken) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"user_id": userID, "token": oldHash},
		bson.M{"$set": bson.M{"token": next.TokenHash, "issued_at": next.IssuedAt}},
	)
	if err != nil {
		return fmt.Errorf("mongostore: replace token: %w", err)
	}
	if res.MatchedCount == 0 {
		return auth.ErrTokenNotFound
	}
	return nil
}

func (s *Tokens) Delete(ctx context.Context, userID, hash string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"user_id": userID, "token": hash}); err != nil {
		return fmt.Errorf("mongostore: delete token: %w", err)
	}
	return nil
}

func (s *Tokens) DeleteAll(ctx context.Context, userID string) error {
	if _, err := s.coll.DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
		return fmt.Errorf("mongostore: delete tokens: %w", err)
	}
	return nil
}

var _ auth.TokenStore = (*Tokens)(nil)
