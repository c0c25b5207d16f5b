// Package pg opens PostgreSQL pools with retries, bridges them to
// database/sql and applies goose migrations.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	db := pg.OpenDB(pool)
//	if err := pg.Migrate(ctx, db, pgstore.Migrations(), cfg, log); err != nil {
//		return err
//	}
package pg
