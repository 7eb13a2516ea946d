// Package sqlite implements the store interfaces on an embedded SQLite
// database (modernc.org/sqlite, pure Go). An alternative to the file backend
// for installs that prefer one database file over a tree of JSON files.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/accraft8/blimsey/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS profiles (
	user_id    TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS interactions (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id  TEXT NOT NULL,
	ts       TEXT NOT NULL,
	message  TEXT NOT NULL,
	response TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_interactions_user ON interactions(user_id, id);
`

// NewSQLiteStores opens (or creates) the database and returns both stores.
func NewSQLiteStores(path string) (*store.Stores, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	return &store.Stores{
		Profiles:     NewProfileStore(db),
		Interactions: NewInteractionStore(db),
	}, nil
}

// OpenDB opens the SQLite database and applies the schema.
func OpenDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// modernc sqlite serializes writes itself; a single connection avoids
	// SQLITE_BUSY under concurrent per-user turns.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}
