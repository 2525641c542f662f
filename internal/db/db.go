package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hpungsan/thoughts/internal/config"
	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 2

// Init initializes the SQLite database at baseDir/thoughts.db.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.thoughts.
func Init(baseDir string) (*sql.DB, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	// Best-effort, may not work on all platforms
	_ = os.Chmod(baseDir, 0700)

	// Pragmas in the connection string apply to all pooled connections
	dbPath := filepath.Join(baseDir, "thoughts.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	_ = os.Chmod(dbPath, 0600)

	return db, nil
}

// ConfigurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values).
func ConfigurePool(db *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: initial thoughts table.
	// AUTOINCREMENT keeps ids from being reused after a row is removed.
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS thoughts (
		  id          INTEGER PRIMARY KEY AUTOINCREMENT,
		  fields_json TEXT NOT NULL,
		  situation   TEXT NOT NULL DEFAULT '',
		  thought     TEXT NOT NULL DEFAULT '',
		  is_draft    INTEGER NOT NULL,
		  created_at  TEXT NOT NULL,
		  updated_at  TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_thoughts_updated
		ON thoughts(updated_at DESC, id DESC);

		CREATE INDEX IF NOT EXISTS idx_thoughts_draft_updated
		ON thoughts(is_draft, updated_at DESC);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(db, 1); err != nil {
			return err
		}
	}

	// Migration 1 -> 2: track the field schema revision per row.
	// Rows written before this migration carry revision 1 fields only.
	if version < 2 {
		if _, err := db.Exec(`ALTER TABLE thoughts ADD COLUMN schema_revision INTEGER NOT NULL DEFAULT 1`); err != nil {
			return fmt.Errorf("migration 2 failed: %w", err)
		}
		if err := SetUserVersion(db, 2); err != nil {
			return err
		}
	}

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
