package db

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS presets (
	name TEXT NOT NULL,
	kind TEXT NOT NULL,
	channel INTEGER NOT NULL DEFAULT 0,
	rtu INTEGER NOT NULL DEFAULT 0,
	point INTEGER NOT NULL DEFAULT 0,
	var_id TEXT NOT NULL DEFAULT '',
	is_on BOOLEAN NOT NULL DEFAULT FALSE,
	unreliable BOOLEAN NOT NULL DEFAULT FALSE,
	malfunction BOOLEAN NOT NULL DEFAULT FALSE,
	intermediate BOOLEAN NOT NULL DEFAULT FALSE,
	value REAL NOT NULL DEFAULT 0,
	unit TEXT NOT NULL DEFAULT '',
	saved_at TEXT NOT NULL,
	PRIMARY KEY (name, kind, channel, rtu, point, var_id)
);

CREATE TABLE IF NOT EXISTS recent_documents (
	path TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	opened_at TEXT NOT NULL
);
`

// Open opens the SQLite database at path and makes sure the schema exists.
// Use ":memory:" for a throwaway database.
func Open(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would get its own empty database
		conn.SetMaxOpenConns(1)
	}
	if err := ApplySchema(conn); err != nil {
		conn.Close()
		return nil, err
	}
	log.Debug().Str("path", path).Msg("Database ready")
	return conn, nil
}

func ApplySchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
