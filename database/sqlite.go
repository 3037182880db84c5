package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	media_type TEXT NOT NULL,
	owner_id TEXT NOT NULL,
	storage_path TEXT NOT NULL DEFAULT '',
	raw_length INTEGER NOT NULL,
	clean_length INTEGER NOT NULL,
	page_count INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_owner ON documents(owner_id);

CREATE TABLE IF NOT EXISTS sections (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	category TEXT NOT NULL,
	content TEXT NOT NULL,
	UNIQUE(document_id, position),
	FOREIGN KEY(document_id) REFERENCES documents(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS chunks (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL,
	section_id TEXT,
	position INTEGER NOT NULL,
	section_category TEXT NOT NULL,
	content TEXT NOT NULL,
	UNIQUE(document_id, position),
	FOREIGN KEY(document_id) REFERENCES documents(id) ON DELETE CASCADE,
	FOREIGN KEY(section_id) REFERENCES sections(id) ON DELETE CASCADE
);
`

// OpenSQLite opens the database at path with WAL and foreign keys enabled
// and creates the schema if needed.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// foreign_keys is per connection.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if err := InitSQLiteSchema(ctx, db, false); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// InitSQLiteSchema creates the tables. With reinit, existing tables are dropped first.
func InitSQLiteSchema(ctx context.Context, db *sql.DB, reinit bool) error {
	if reinit {
		for _, table := range []string{"chunks", "sections", "documents"} {
			if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
				return fmt.Errorf("drop %s: %w", table, err)
			}
		}
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}
