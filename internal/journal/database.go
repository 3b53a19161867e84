// Package journal records playback lifecycle events in SQLite and answers
// usage questions about them.
package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver
)

// MemoryPath opens a private in-memory database
const MemoryPath = ":memory:"

// Open opens the SQLite database at dbPath, creating parent directories and
// the schema when needed
func Open(dbPath string) (*sql.DB, error) {
	if dbPath != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	if dbPath == MemoryPath {
		// every connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA user_version = 1",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}
	return db, nil
}

func ensureSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS playback_events (
    id        INTEGER PRIMARY KEY,
    timestamp INTEGER NOT NULL,
    sound     TEXT    NOT NULL,
    event     TEXT    NOT NULL CHECK (event IN ('open','start','stop','close'))
);

CREATE INDEX IF NOT EXISTS idx_playback_timestamp ON playback_events(timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_playback_sound ON playback_events(sound);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// DefaultPath returns the journal location under the XDG data directory
func DefaultPath() (string, error) {
	path, err := xdg.DataFile(filepath.Join("hsound", "journal.db"))
	if err != nil {
		return "", fmt.Errorf("failed to locate journal: %w", err)
	}
	return path, nil
}
