package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/dmitrymomot/authkit/pkg/auth"
)

// Users implements auth.UserDirectory.
type Users struct {
	coll *mongo.Collection
}

// NewUsers uses the users collection of db.
func NewUsers(db *mongo.Database) *Users {
	return &Users{coll: db.Collection(UsersCollection)}
}

func (s *Users) findOne(ctx context.Context, filter bson.M) (*auth.User, error) {
	var u auth.User
	err := s.coll.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, auth.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongostore: find user: %w", err)
	}
	return &u, nil
}

func (s *Users) FindByEmailOrUsername(ctx context.Context, identifier string) (*auth.User, error) {
	return s.findOne(ctx, bson.M{"$or": bson.A{
		bson.M{"email": auth.NormalizeEmail(identifier)},
		bson.M{"username": identifier},
	}})
}

func (s *Users) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	return s.findOne(ctx, bson.M{"email": auth.NormalizeEmail(email)})
}

func (s *Users) FindByUsername(ctx context.Context, username string) (*auth.User, error) {
	if username == "" {
		return nil, auth.ErrUserNotFound
	}
	return s.findOne(ctx, bson.M{"username": username})
}

func (s *Users) FindByID(ctx context.Context, id string) (*auth.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *Users) FindByVerificationToken(ctx context.Context, token string) (*auth.User, error) {
	if token == "" {
		return nil, auth.ErrUserNotFound
	}
	return s.findOne(ctx, bson.M{"verification_token": token})
}

func (s *Users) Insert(ctx context.Context, user *auth.User) error {
	_, err := s.coll.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		if user.Username != "" {
			if _, ferr := s.FindByUsername(ctx, user.Username); ferr == nil {
				return auth.ErrDuplicateUsername
			}
		}
		return auth.ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("mongostore: insert user: %w", err)
	}
	return nil
}

func (s *Users) update(ctx context.Context, id string, set bson.M, unset bson.M) error {
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("mongostore: update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

func (s *Users) UpdateStatus(ctx context.Context, id string, status auth.Status) error {
	return s.update(ctx, id, bson.M{"status": status}, nil)
}

func (s *Users) UpdateVerification(ctx context.Context, id string, verified bool, token string) error {
	if token == "" {
		return s.update(ctx, id, bson.M{"verified": verified}, bson.M{"verification_token": ""})
	}
	return s.update(ctx, id, bson.M{"verified": verified, "verification_token": token}, nil)
}

func (s *Users) UpdateTwoFactor(ctx context.Context, id string, tf auth.TwoFactor) error {
	return s.update(ctx, id, bson.M{"two_factor": tf}, nil)
}

func (s *Users) TouchLogin(ctx context.Context, id string, at time.Time) error {
	return s.update(ctx, id, bson.M{"last_login_at": at}, nil)
}

var _ auth.UserDirectory = (*Users)(nil)
