// Package schema holds the versioned SQL migrations for the admin backend.
package schema

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// Migrations returns all migrations in version order
func Migrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create geographic hierarchy tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS city_corporations (
					id BIGSERIAL PRIMARY KEY,
					code VARCHAR(20) NOT NULL UNIQUE,
					name VARCHAR(255) NOT NULL
				);

				CREATE TABLE IF NOT EXISTS zones (
					id BIGSERIAL PRIMARY KEY,
					zone_number INTEGER NOT NULL,
					name VARCHAR(255) NOT NULL,
					city_corporation_id BIGINT NOT NULL REFERENCES city_corporations(id) ON DELETE CASCADE,
					UNIQUE(city_corporation_id, zone_number)
				);

				CREATE TABLE IF NOT EXISTS wards (
					id BIGSERIAL PRIMARY KEY,
					ward_number INTEGER NOT NULL,
					zone_id BIGINT NOT NULL REFERENCES zones(id) ON DELETE CASCADE
				);

				CREATE INDEX IF NOT EXISTS idx_zones_city_corporation_id ON zones(city_corporation_id);
				CREATE INDEX IF NOT EXISTS idx_wards_zone_id ON wards(zone_id);
			`,
		},
		{
			Version:     2,
			Description: "Create users table",
			SQL: `
				CREATE TABLE IF NOT EXISTS users (
					id BIGSERIAL PRIMARY KEY,
					first_name VARCHAR(100) NOT NULL,
					last_name VARCHAR(100) NOT NULL,
					phone VARCHAR(20) NOT NULL UNIQUE,
					role VARCHAR(20) NOT NULL DEFAULT 'CUSTOMER',
					city_corporation_code VARCHAR(20),
					zone_id BIGINT REFERENCES zones(id) ON DELETE SET NULL,
					ward_id BIGINT REFERENCES wards(id) ON DELETE SET NULL,
					permissions JSONB,
					status VARCHAR(20) NOT NULL DEFAULT 'ACTIVE',
					created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_users_role ON users(role);
				CREATE INDEX IF NOT EXISTS idx_users_zone_id ON users(zone_id);
				CREATE INDEX IF NOT EXISTS idx_users_ward_id ON users(ward_id);
				CREATE INDEX IF NOT EXISTS idx_users_city_corporation_code ON users(city_corporation_code);
			`,
		},
		{
			Version:     3,
			Description: "Create user_zones table",
			SQL: `
				CREATE TABLE IF NOT EXISTS user_zones (
					user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					zone_id BIGINT NOT NULL REFERENCES zones(id) ON DELETE CASCADE,
					assigned_by BIGINT REFERENCES users(id) ON DELETE SET NULL,
					assigned_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
					PRIMARY KEY (user_id, zone_id)
				);

				CREATE INDEX IF NOT EXISTS idx_user_zones_zone_id ON user_zones(zone_id);
			`,
		},
		{
			Version:     4,
			Description: "Create activity_logs table",
			SQL: `
				CREATE TABLE IF NOT EXISTS activity_logs (
					id BIGSERIAL PRIMARY KEY,
					actor_id BIGINT NOT NULL,
					action VARCHAR(50) NOT NULL,
					entity_type VARCHAR(50) NOT NULL,
					entity_id BIGINT NOT NULL,
					old_value JSONB,
					new_value JSONB,
					ip_address VARCHAR(45),
					user_agent TEXT,
					created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_activity_logs_actor_id ON activity_logs(actor_id);
				CREATE INDEX IF NOT EXISTS idx_activity_logs_entity ON activity_logs(entity_type, entity_id);
				CREATE INDEX IF NOT EXISTS idx_activity_logs_created_at ON activity_logs(created_at DESC);
			`,
		},
		{
			Version:     5,
			Description: "Add assignment position to user_zones",
			SQL: `
				ALTER TABLE user_zones ADD COLUMN IF NOT EXISTS position INTEGER NOT NULL DEFAULT 0;
			`,
		},
	}
}

const createMigrationsTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	)
`

// Apply runs every migration that has not been recorded in
// schema_migrations. Each migration runs in its own transaction.
func Apply(ctx context.Context, db *sql.DB, log logrus.FieldLogger) error {
	if _, err := db.ExecContext(ctx, createMigrationsTable); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return err
	}

	for _, migration := range Migrations() {
		if applied[migration.Version] {
			continue
		}

		log.WithFields(logrus.Fields{
			"version":     migration.Version,
			"description": migration.Description,
		}).Info("running migration")

		if err := apply(ctx, db, migration); err != nil {
			return err
		}
	}
	return nil
}

func appliedVersions(ctx context.Context, db *sql.DB) (map[int]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func apply(ctx context.Context, db *sql.DB, migration Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to execute migration %d: %w", migration.Version, err)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, description) VALUES ($1, $2)",
		migration.Version, migration.Description,
	); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
	}
	return nil
}
