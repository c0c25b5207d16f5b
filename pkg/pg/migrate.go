package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
)

// Migrate applies the goose SQL migrations stored at the root of fsys,
// recording versions in cfg.MigrationsTable.
func Migrate(ctx context.Context, db *sql.DB, fsys fs.FS, cfg Config, log *slog.Logger) error {
	table := cfg.MigrationsTable
	if table == "" {
		table = "authkit_migrations"
	}
	store, err := database.NewStore(database.DialectPostgres, table)
	if err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}

	provider, err := goose.NewProvider("", db, fsys,
		goose.WithStore(store),
		goose.WithLogger(newSlogAdapter(log)),
	)
	if err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}
	for _, r := range results {
		log.InfoContext(ctx, "applied migration",
			slog.String("source", r.Source.Path),
			slog.Duration("duration", r.Duration))
	}
	return nil
}

// migrateSlogAdapter routes goose output through slog.
type migrateSlogAdapter struct {
	log *slog.Logger
}

func newSlogAdapter(log *slog.Logger) goose.Logger {
	return &migrateSlogAdapter{log: log}
}

func (a *migrateSlogAdapter) Fatalf(format string, v ...any) {
	a.log.Error(fmt.Sprintf(format, v...))
}

func (a *migrateSlogAdapter) Printf(format string, v ...any) {
	a.log.Info(fmt.Sprintf(format, v...))
}
