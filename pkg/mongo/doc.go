// Package mongo connects to MongoDB with retries and exposes a readiness check.
//
//	db, err := mongo.NewWithDatabase(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	check := mongo.Healthcheck(db.Client(), mongo.WithHealthTimeout(cfg.HealthTimeout))
//
// Collections for users, roles, permissions and session tokens live in the
// mongostore package.
package mongo
