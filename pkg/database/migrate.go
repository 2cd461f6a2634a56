package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"ticket-booking/pkg/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies every pending migration through a short-lived database/sql handle.
func Migrate(ctx context.Context, config utils.DatabaseConfig) error {
	return MigrateDSN(ctx, config.DSN())
}

// MigrateDSN is Migrate for a raw connection string or URL.
func MigrateDSN(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open db for migrations: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, migrationsDir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	return nil
}
