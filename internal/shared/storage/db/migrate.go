package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const migrationsDir = "migrations"

// RunMigrations applies the embedded app_users schema via goose. A nil database is a no-op.
func RunMigrations(ctx context.Context, database *sql.DB) error {
	return Migrate(ctx, database, "up")
}

// Migrate runs a goose command (up, down, status, version, redo) against the embedded migrations.
func Migrate(ctx context.Context, database *sql.DB, command string) error {
	if database == nil {
		return nil
	}
	goose.SetBaseFS(migrationFiles)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	switch command {
	case "up":
		return goose.UpContext(ctx, database, migrationsDir)
	case "down":
		return goose.DownContext(ctx, database, migrationsDir)
	case "redo":
		return goose.RedoContext(ctx, database, migrationsDir)
	case "status":
		return goose.StatusContext(ctx, database, migrationsDir)
	case "version":
		return goose.VersionContext(ctx, database, migrationsDir)
	default:
		return fmt.Errorf("unknown migrate command %q", command)
	}
}
