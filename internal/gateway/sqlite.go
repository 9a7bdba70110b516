// Package gateway implements the remote-store interface on sqlite.
// Writes that touch a loan and its resources run in one transaction,
// so readers always observe a consistent pair.
package gateway

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

var gwJSON = jsoniter.ConfigCompatibleWithStandardLibrary

type SQLite struct {
	db     *sql.DB
	logger zerolog.Logger
}

func New(path string, logger zerolog.Logger) (*SQLite, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("sqlite gateway initialized")
	return &SQLite{db: db, logger: logger}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            email TEXT,
            role TEXT NOT NULL,
            grade_id TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS resources (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            brand TEXT,
            model TEXT,
            status TEXT NOT NULL DEFAULT 'available',
            category_id TEXT,
            area_id TEXT,
            attributes TEXT,
            damage_notes TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS loans (
            id TEXT PRIMARY KEY,
            user_id TEXT NOT NULL,
            user_name TEXT,
            purpose TEXT,
            resource_ids TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            loaned_at DATETIME NOT NULL,
            returned_at DATETIME,
            damage_reports TEXT,
            suggestion_reports TEXT,
            missing_resources TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS reservations (
            id TEXT PRIMARY KEY,
            user_id TEXT NOT NULL,
            user_name TEXT,
            purpose TEXT,
            date DATETIME NOT NULL,
            slot TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'confirmed',
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS meetings (
            id TEXT PRIMARY KEY,
            title TEXT NOT NULL,
            user_id TEXT,
            user_name TEXT,
            date DATETIME NOT NULL,
            slot TEXT NOT NULL,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS categories (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            description TEXT
        )`,
		`CREATE TABLE IF NOT EXISTS areas (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS grades (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS pedagogical_hours (
            id TEXT PRIMARY KEY,
            label TEXT NOT NULL,
            position INTEGER NOT NULL DEFAULT 0
        )`,
		`CREATE TABLE IF NOT EXISTS settings (
            id TEXT PRIMARY KEY,
            school_name TEXT,
            max_active_loans INTEGER NOT NULL DEFAULT 0,
            max_loan_resources INTEGER NOT NULL DEFAULT 0
        )`,

		`CREATE INDEX IF NOT EXISTS idx_resources_status ON resources(status)`,
		`CREATE INDEX IF NOT EXISTS idx_resources_category_id ON resources(category_id)`,
		`CREATE INDEX IF NOT EXISTS idx_loans_status ON loans(status)`,
		`CREATE INDEX IF NOT EXISTS idx_loans_user_id ON loans(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_date ON reservations(date)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_status ON reservations(status)`,
		`CREATE INDEX IF NOT EXISTS idx_meetings_date ON meetings(date)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

func (g *SQLite) Close() error {
	return g.db.Close()
}

// marshalJSON serializes a value for a TEXT column, mapping empty
// collections to NULL.
func marshalJSON(v interface{}) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	data, err := gwJSON.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	s := string(data)
	if s == "null" || s == "{}" || s == "[]" {
		return sql.NullString{}, nil
	}
	return sql.NullString{String: s, Valid: true}, nil
}

func unmarshalJSON(col sql.NullString, out interface{}) error {
	if !col.Valid || col.String == "" {
		return nil
	}
	return gwJSON.UnmarshalFromString(col.String, out)
}
