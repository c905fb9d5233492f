package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS resources (
	name   TEXT PRIMARY KEY,
	header TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS rows (
	seq      INTEGER PRIMARY KEY AUTOINCREMENT,
	resource TEXT NOT NULL,
	payload  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS rows_resource ON rows(resource, seq);
`

// SQLite keeps resources in a local database file. It is meant for
// running the service without spreadsheet credentials.
type SQLite struct {
	db   *sql.DB
	path string
}

func NewSQLite(path string) (*SQLite, error) {
	if path == "" {
		path = "tpcollect.sqlite3"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma failed: %w", err)
		}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLite{db: db, path: path}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Append(ctx context.Context, resource string, rec Record) (retErr error) {
	defer func() {
		if retErr != nil {
			retErr = &RemoteWriteError{Resource: resource, Err: retErr}
		}
	}()
	header, err := json.Marshal(rec.Names())
	if err != nil {
		return err
	}
	payload, err := json.Marshal(rec.Strings())
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO resources(name, header) VALUES(?, ?) ON CONFLICT(name) DO NOTHING`,
		resource, string(header)); err != nil {
		return fmt.Errorf("insert header: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO rows(resource, payload) VALUES(?, ?)`,
		resource, string(payload)); err != nil {
		return fmt.Errorf("insert row: %w", err)
	}
	return tx.Commit()
}

func (s *SQLite) ReadAll(ctx context.Context, resource string) (Table, error) {
	var header string
	err := s.db.QueryRowContext(ctx, `SELECT header FROM resources WHERE name = ?`, resource).Scan(&header)
	if errors.Is(err, sql.ErrNoRows) {
		return Table{}, nil
	}
	if err != nil {
		return Table{}, &RemoteReadError{Resource: resource, Err: err}
	}
	var raw [][]string
	var cols []string
	if err := json.Unmarshal([]byte(header), &cols); err != nil {
		return Table{}, &RemoteReadError{Resource: resource, Err: fmt.Errorf("decode header: %w", err)}
	}
	raw = append(raw, cols)

	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM rows WHERE resource = ? ORDER BY seq`, resource)
	if err != nil {
		return Table{}, &RemoteReadError{Resource: resource, Err: err}
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return Table{}, &RemoteReadError{Resource: resource, Err: fmt.Errorf("scan: %w", err)}
		}
		var row []string
		if err := json.Unmarshal([]byte(payload), &row); err != nil {
			return Table{}, &RemoteReadError{Resource: resource, Err: fmt.Errorf("decode row: %w", err)}
		}
		raw = append(raw, row)
	}
	if err := rows.Err(); err != nil {
		return Table{}, &RemoteReadError{Resource: resource, Err: err}
	}
	return NewTable(raw), nil
}
