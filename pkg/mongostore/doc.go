// Package mongostore persists users, session tokens, roles and permissions
// in MongoDB. Each store implements the matching auth or acl interface.
//
//	db, err := mongo.NewWithDatabase(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	if err := mongostore.EnsureIndexes(ctx, db); err != nil {
//		return err
//	}
//	stores := mongostore.New(db)
package mongostore
