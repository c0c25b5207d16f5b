// Package pgstore keeps session tokens in PostgreSQL. Apply Migrations with
// pg.Migrate before use.
package pgstore
