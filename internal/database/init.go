package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/spread-edge/internal/config"
)

//go:embed schema/*.sql
var schemaFS embed.FS

const createMigrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
    version    TEXT PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Initialize creates a database connection pool and applies pending schema files
func Initialize(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	applied, err := db.Migrate(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}
	if log != nil && len(applied) > 0 {
		log.WithField("versions", applied).Info("Applied database schema")
	}

	return db, nil
}

// SchemaVersions lists the embedded schema files in apply order
func SchemaVersions() ([]string, error) {
	entries, err := fs.ReadDir(schemaFS, "schema")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded schema: %w", err)
	}
	var versions []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			versions = append(versions, strings.TrimSuffix(e.Name(), ".sql"))
		}
	}
	sort.Strings(versions)
	return versions, nil
}

// Migrate applies embedded schema files not yet recorded in schema_migrations
func (db *DB) Migrate(ctx context.Context) ([]string, error) {
	versions, err := SchemaVersions()
	if err != nil {
		return nil, err
	}

	if _, err := db.pool.Exec(ctx, createMigrationsTable); err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var applied []string
	for _, version := range versions {
		var exists bool
		err := db.pool.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)", version).Scan(&exists)
		if err != nil {
			return applied, fmt.Errorf("failed to check schema %s: %w", version, err)
		}
		if exists {
			continue
		}

		body, err := schemaFS.ReadFile("schema/" + version + ".sql")
		if err != nil {
			return applied, fmt.Errorf("failed to read schema %s: %w", version, err)
		}

		err = db.WithTransaction(ctx, func(txCtx context.Context) error {
			if _, err := db.Exec(txCtx, string(body)); err != nil {
				return err
			}
			_, err := db.Exec(txCtx, "INSERT INTO schema_migrations (version) VALUES ($1) ON CONFLICT DO NOTHING", version)
			return err
		})
		if err != nil {
			return applied, fmt.Errorf("failed to apply schema %s: %w", version, err)
		}
		applied = append(applied, version)
	}
	return applied, nil
}
