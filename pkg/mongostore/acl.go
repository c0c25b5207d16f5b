package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/dmitrymomot/authkit/pkg/acl"
)

// Roles implements acl.RoleRepository.
type Roles struct {
	coll *mongo.Collection
}

// NewRoles uses the roles collection of db.
func NewRoles(db *mongo.Database) *Roles {
	return &Roles{coll: db.Collection(RolesCollection)}
}

func (s *Roles) FindByCodes(ctx context.Context, codes []string) ([]acl.Role, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	cur, err := s.coll.Find(ctx, bson.M{"code": bson.M{"$in": codes}})
	if err != nil {
		return nil, fmt.Errorf("mongostore: find roles: %w", err)
	}
	var roles []acl.Role
	if err := cur.All(ctx, &roles); err != nil {
		return nil, fmt.Errorf("mongostore: decode roles: %w", err)
	}
	return roles, nil
}

func (s *Roles) Count(ctx context.Context) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("mongostore: count roles: %w", err)
	}
	return n, nil
}

func (s *Roles) Insert(ctx context.Context, roles ...acl.Role) error {
	if len(roles) == 0 {
		return nil
	}
	docs := make([]any, len(roles))
	for i, r := range roles {
		docs[i] = r
	}
	_, err := s.coll.InsertMany(ctx, docs)
	if mongo.IsDuplicateKeyError(err) {
		return acl.ErrDuplicateRole
	}
	if err != nil {
		return fmt.Errorf("mongostore: insert roles: %w", err)
	}
	return nil
}

// Upsert replaces a role by code, creating it when absent. Callers must
// invalidate engine memos afterwards.
func (s *Roles) Upsert(ctx context.Context, role acl.Role) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"code": role.Code},
		bson.M{"$set": role},
		optionsUpsert(),
	)
	if err != nil {
		return fmt.Errorf("mongostore: upsert role: %w", err)
	}
	return nil
}

// Permissions implements acl.PermissionRepository.
type Permissions struct {
	coll *mongo.Collection
}

// NewPermissions uses the permissions collection of db.
func NewPermissions(db *mongo.Database) *Permissions {
	return &Permissions{coll: db.Collection(PermissionsCollection)}
}

func (s *Permissions) FindAll(ctx context.Context) ([]acl.Permission, error) {
	cur, err := s.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("mongostore: find permissions: %w", err)
	}
	var perms []acl.Permission
	if err := cur.All(ctx, &perms); err != nil {
		return nil, fmt.Errorf("mongostore: decode permissions: %w", err)
	}
	return perms, nil
}

func (s *Permissions) Count(ctx context.Context) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("mongostore: count permissions: %w", err)
	}
	return n, nil
}

func (s *Permissions) Insert(ctx context.Context, perms ...acl.Permission) error {
	if len(perms) == 0 {
		return nil
	}
	docs := make([]any, len(perms))
	for i, p := range perms {
		docs[i] = p
	}
	_, err := s.coll.InsertMany(ctx, docs)
	if mongo.IsDuplicateKeyError(err) {
		return acl.ErrDuplicatePermission
	}
	if err != nil {
		return fmt.Errorf("mongostore: insert permissions: %w", err)
	}
	return nil
}

var (
	_ acl.RoleRepository       = (*Roles)(nil)
	_ acl.PermissionRepository = (*Permissions)(nil)
)
