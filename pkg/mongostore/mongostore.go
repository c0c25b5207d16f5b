package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection names.
const (
	UsersCollection       = "users"
	TokensCollection      = "tokens"
	RolesCollection       = "roles"
	PermissionsCollection = "permissions"
)

var ErrIndexes = errors.New("mongostore: failed to create indexes")

// EnsureIndexes creates the unique and lookup indexes the stores rely on.
// It is safe to call on every start.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{
				Keys: bson.D{{Key: "username", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.M{"username": bson.M{"$exists": true}}),
			},
			{
				Keys: bson.D{{Key: "verification_token", Value: 1}},
				Options: options.Index().
					SetPartialFilterExpression(bson.M{"verification_token": bson.M{"$exists": true}}),
			},
		},
		TokensCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "token", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		RolesCollection: {
			{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		PermissionsCollection: {
			{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
	for name, models := range specs {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return errors.Join(ErrIndexes, fmt.Errorf("%s: %w", name, err))
		}
	}
	return nil
}

// Stores bundles every collection-backed repository.
type Stores struct {
	Users       *Users
	Tokens      *Tokens
	Roles       *Roles
	Permissions *Permissions
}

// New builds all stores on db.
func New(db *mongo.Database) *Stores {
	return &Stores{
		Users:       NewUsers(db),
		Tokens:      NewTokens(db),
		Roles:       NewRoles(db),
		Permissions: NewPermissions(db),
	}
}

func optionsUpsert() *options.UpdateOneOptionsBuilder {
	return options.UpdateOne().SetUpsert(true)
}
