package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application
// expects. If the database cannot be migrated to this version, it's a fatal
// error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Products mirror",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS products (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					description TEXT,
					original_description TEXT,
					seo_title TEXT,
					seo_description TEXT,
					seo_tags TEXT,
					source_url TEXT,
					category TEXT,
					subcategory TEXT,
					gender TEXT,
					metadata TEXT,
					enriched_at DATETIME,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_products_updated ON products(updated_at)`,
				`CREATE INDEX idx_products_enriched ON products(enriched_at)`,
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
		Description: "Reseed proposals with single-pending constraint",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS reseed_proposals (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					product_id TEXT NOT NULL,
					from_category TEXT,
					to_category TEXT,
					from_subcategory TEXT,
					to_subcategory TEXT,
					clear_subcategory INTEGER NOT NULL DEFAULT 0,
					from_gender TEXT,
					to_gender TEXT,
					confidence REAL NOT NULL DEFAULT 0,
					support INTEGER NOT NULL DEFAULT 0,
					margin REAL NOT NULL DEFAULT 0,
					reasons TEXT,
					source TEXT,
					run_key TEXT,
					status TEXT NOT NULL DEFAULT 'pending',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (product_id) REFERENCES products(id)
				)`,
				// At most one pending proposal per product at a time.
				`CREATE UNIQUE INDEX idx_reseed_proposals_pending
					ON reseed_proposals(product_id) WHERE status = 'pending'`,
				`CREATE INDEX idx_reseed_proposals_status ON reseed_proposals(status)`,
				`CREATE INDEX idx_reseed_proposals_run_key ON reseed_proposals(run_key)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query '%s': %w", query, err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Run audit rows with singleton running marker",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				// running_marker is 1 while running and NULL otherwise; the
				// unique index over it serializes run creation across
				// processes without any application-level lock.
				`CREATE TABLE IF NOT EXISTS auto_reseed_runs (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					run_trigger TEXT NOT NULL,
					status TEXT NOT NULL,
					reason TEXT,
					started_at DATETIME NOT NULL,
					completed_at DATETIME,
					pending_count INTEGER NOT NULL DEFAULT 0,
					scanned INTEGER NOT NULL DEFAULT 0,
					proposed INTEGER NOT NULL DEFAULT 0,
					enqueued INTEGER NOT NULL DEFAULT 0,
					source TEXT,
					run_key TEXT,
					error TEXT,
					running_marker INTEGER GENERATED ALWAYS AS
						(CASE WHEN status = 'running' THEN 1 END) VIRTUAL
				)`,
				`CREATE UNIQUE INDEX idx_auto_reseed_runs_running
					ON auto_reseed_runs(running_marker)`,
				`CREATE INDEX idx_auto_reseed_runs_status ON auto_reseed_runs(status)`,
				`CREATE INDEX idx_auto_reseed_runs_started ON auto_reseed_runs(started_at)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query '%s': %w", query, err)
				}
			}
			return nil
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
