package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on one SQLite file.
// It uses modernc.org/sqlite which is pure Go (no CGO).
type SQLiteStore struct {
	db   *sql.DB
	path string
	mu   sync.RWMutex // serializes writes (SQLite is single-writer)
}

// Open opens or creates the document file at path and runs schema
// migrations. Missing parent directories are created.
func Open(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating document dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}

	// Single connection for writes to avoid SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating %s: %w", path, err)
	}
	return s, nil
}

// Path returns the file backing the store.
func (s *SQLiteStore) Path() string { return s.path }

func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS document (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			name TEXT NOT NULL,
			saved_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS components (
			seq INTEGER PRIMARY KEY,
			id TEXT NOT NULL UNIQUE,
			type TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			x REAL NOT NULL DEFAULT 0,
			y REAL NOT NULL DEFAULT 0,
			settings TEXT NOT NULL DEFAULT '{}'
		)`,
		`CREATE TABLE IF NOT EXISTS connections (
			seq INTEGER PRIMARY KEY,
			source_id TEXT NOT NULL,
			source_param TEXT NOT NULL,
			target_id TEXT NOT NULL,
			target_param TEXT NOT NULL
		)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}
	return nil
}

// Save replaces the stored document in a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{"DELETE FROM document", "DELETE FROM components", "DELETE FROM connections"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clearing document: %w", err)
		}
	}

	savedAt := doc.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now().UTC()
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO document (id, name, saved_at) VALUES (1, ?, ?)", doc.Name, savedAt,
	); err != nil {
		return fmt.Errorf("writing document: %w", err)
	}

	for i, c := range doc.Components {
		settings, err := json.Marshal(c.Settings)
		if err != nil {
			return fmt.Errorf("encoding settings of %s: %w", c.ID, err)
		}
		if c.Settings == nil {
			settings = []byte("{}")
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO components (seq, id, type, name, x, y, settings) VALUES (?, ?, ?, ?, ?, ?, ?)",
			i, c.ID, c.Type, c.Name, c.X, c.Y, string(settings),
		); err != nil {
			return fmt.Errorf("writing component %s: %w", c.ID, err)
		}
	}

	for i, c := range doc.Connections {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO connections (seq, source_id, source_param, target_id, target_param) VALUES (?, ?, ?, ?, ?)",
			i, c.SourceID, c.SourceParam, c.TargetID, c.TargetParam,
		); err != nil {
			return fmt.Errorf("writing connection: %w", err)
		}
	}

	return tx.Commit()
}

// Load reads the stored document.
func (s *SQLiteStore) Load(ctx context.Context) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc := &Document{}
	err := s.db.QueryRowContext(ctx, "SELECT name, saved_at FROM document WHERE id = 1").Scan(&doc.Name, &doc.SavedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNoDocument
	}
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT id, type, name, x, y, settings FROM components ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("reading components: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c Component
		var settings string
		if err := rows.Scan(&c.ID, &c.Type, &c.Name, &c.X, &c.Y, &settings); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(settings), &c.Settings); err != nil {
			return nil, fmt.Errorf("decoding settings of %s: %w", c.ID, err)
		}
		if len(c.Settings) == 0 {
			c.Settings = nil
		}
		doc.Components = append(doc.Components, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	crows, err := s.db.QueryContext(ctx, "SELECT source_id, source_param, target_id, target_param FROM connections ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("reading connections: %w", err)
	}
	defer crows.Close()
	for crows.Next() {
		var c Connection
		if err := crows.Scan(&c.SourceID, &c.SourceParam, &c.TargetID, &c.TargetParam); err != nil {
			return nil, err
		}
		doc.Connections = append(doc.Connections, c)
	}
	return doc, crows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
