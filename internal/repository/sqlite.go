package repository

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// SQLite allows a single writer, and every ":memory:" connection is its own database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS incidents (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			emitter TEXT NOT NULL,
			classification TEXT NOT NULL,
			company TEXT NOT NULL,
			date TEXT,
			time_of_day INTEGER NOT NULL DEFAULT 0,
			location TEXT NOT NULL,
			description TEXT,
			immediate_action TEXT,
			employee TEXT,
			sst_class TEXT,
			env_class TEXT,
			causes TEXT,
			opinion TEXT,
			maintenance_order TEXT,
			provenance TEXT,
			justification TEXT,
			unsafe_conditions TEXT,
			unsafe_behaviors TEXT,
			environmental TEXT,
			created_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_incidents_date ON incidents(date);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}
