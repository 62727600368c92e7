package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var Migrations embed.FS

const migrationsDir = "migrations"

// Dialect maps a storage driver name to goose's dialect.
func Dialect(driver string) string {
	if driver == "postgres" {
		return "postgres"
	}
	return "sqlite3"
}

// Migrate applies every pending embedded migration.
func Migrate(ctx context.Context, sqlDB *sql.DB, driver string) error {
	if err := prepare(driver); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, sqlDB, migrationsDir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// Rollback reverts the most recent migration.
func Rollback(ctx context.Context, sqlDB *sql.DB, driver string) error {
	if err := prepare(driver); err != nil {
		return err
	}
	if err := goose.DownContext(ctx, sqlDB, migrationsDir); err != nil {
		return fmt.Errorf("goose down: %w", err)
	}
	return nil
}

func prepare(driver string) error {
	goose.SetBaseFS(Migrations)
	goose.SetTableName("schema_migrations")
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(Dialect(driver)); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	return nil
}
