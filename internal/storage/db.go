package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB is the device-local state database: session draft slots and the
// cancellation suppression flag. Everything in it must survive process
// restart; rows are namespaced per customer so shared devices never leak
// session state across accounts.
type DB struct {
	db  *sql.DB
	log *slog.Logger
}

// Open opens (or creates) the SQLite state database at dir/liftlog.db.
func Open(dir string, log *slog.Logger) (*DB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "liftlog.db")
	db, err := sql.Open("sqlite", dbPath+"?_journal=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	_, err = db.Exec(`
	CREATE TABLE IF NOT EXISTS session_drafts (
		customer_id TEXT NOT NULL,
		template_id TEXT NOT NULL,
		draft_json  TEXT NOT NULL,
		updated_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (customer_id, template_id)
	);
	CREATE TABLE IF NOT EXISTS cancel_suppression (
		customer_id TEXT PRIMARY KEY,
		expires_at  INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating state tables: %w", err)
	}

	return &DB{db: db, log: log}, nil
}

// Close closes the state database.
func (s *DB) Close() error {
	return s.db.Close()
}
