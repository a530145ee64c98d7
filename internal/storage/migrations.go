package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version the application
// expects. Failing to reach it is fatal.
const ExpectedSchemaVersion = 2

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema: memories and config",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS memories (
					id TEXT PRIMARY KEY,
					type TEXT NOT NULL,
					payload TEXT NOT NULL,
					pattern_type TEXT NOT NULL DEFAULT '',
					pattern_data TEXT,
					pattern_threshold REAL NOT NULL DEFAULT 0,
					vendor_id TEXT NOT NULL DEFAULT '',
					context TEXT NOT NULL,
					confidence REAL NOT NULL DEFAULT 0,
					success_rate REAL NOT NULL DEFAULT 0,
					usage_count INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME NOT NULL,
					last_used DATETIME
				)`,
				`CREATE INDEX idx_memories_vendor ON memories(vendor_id)`,
				`CREATE INDEX idx_memories_type ON memories(type)`,

				`CREATE TABLE IF NOT EXISTS config (
					key TEXT PRIMARY KEY,
					value REAL NOT NULL,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Threshold adjustment audit trail",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS threshold_audit (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					previous REAL NOT NULL,
					new REAL NOT NULL,
					triggers TEXT NOT NULL,
					metrics TEXT NOT NULL,
					adjusted_at DATETIME NOT NULL
				)`)
			if err != nil {
				return fmt.Errorf("failed to create threshold_audit: %w", err)
			}
			return nil
		},
	},
}

// Migrate brings the database schema up to the expected version.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= current {
			continue
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.Error("failed to roll back migration", "version", migration.Version, "error", rbErr)
			}
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Description, err)
		}

		if _, err := tx.Exec(
			`INSERT INTO schema_migrations (version, description) VALUES (?, ?)`,
			migration.Version, migration.Description); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.Error("failed to roll back migration", "version", migration.Version, "error", rbErr)
			}
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}

		slog.Info("applied migration", "version", migration.Version, "description", migration.Description)
	}

	return nil
}
