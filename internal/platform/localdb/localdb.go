// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package localdb owns the on-device durable store.

The store is a single SQLite file holding three keyed namespaces: books (full
record including the EPUB payload), reading_state and bookmarks. It must work
with no network at all.

Lifecycle:

  - Lazy: [New] does not touch the filesystem. The file is opened on the first
    acquisition and reused for the rest of the process.
  - Scoped: every access goes through [Handle.With], which always releases the
    connection it acquired.
  - Versioned: the schema version lives in PRAGMA user_version. On mismatch all
    namespaces are dropped and recreated empty. Old rows are not migrated; the
    remote store repopulates metadata and the user re-downloads content.
*/
package localdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/taibuivan/lector/internal/platform/database/schema"
)

// SchemaVersion is the layout version of the local namespaces.
const SchemaVersion = 1

// ErrClosed is returned by acquisitions after [Handle.Close].
var ErrClosed = errors.New("localdb: handle closed")

// Handle is the process-wide, lazily opened local store.
type Handle struct {
	path   string
	logger *slog.Logger

	mu     sync.Mutex
	db     *sql.DB
	closed bool
}

// New prepares a handle for the SQLite file at path. Nothing is opened yet.
func New(path string, logger *slog.Logger) *Handle {
	return &Handle{path: path, logger: logger}
}

// With acquires a connection, runs fn and releases the connection.
//
// fn must not call With again: the pool holds a single connection.
func (handle *Handle) With(ctx context.Context, fn func(conn *sql.Conn) error) error {
	db, err := handle.open(ctx)
	if err != nil {
		return err
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("localdb: acquire connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	return fn(conn)
}

// Opened reports whether the underlying file has been opened.
func (handle *Handle) Opened() bool {
	handle.mu.Lock()
	defer handle.mu.Unlock()
	return handle.db != nil
}

// Close releases the file. Calling it before process exit is optional.
func (handle *Handle) Close() error {
	handle.mu.Lock()
	defer handle.mu.Unlock()

	handle.closed = true
	if handle.db == nil {
		return nil
	}
	err := handle.db.Close()
	handle.db = nil
	return err
}

// open returns the shared *sql.DB, opening and versioning it on first use.
// A failed open is not cached; the next acquisition retries.
func (handle *Handle) open(ctx context.Context) (*sql.DB, error) {
	handle.mu.Lock()
	defer handle.mu.Unlock()

	if handle.closed {
		return nil, ErrClosed
	}
	if handle.db != nil {
		return handle.db, nil
	}

	if dir := filepath.Dir(handle.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("localdb: create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", handle.path)
	if err != nil {
		return nil, fmt.Errorf("localdb: open %s: %w", handle.path, err)
	}

	// SQLite has a single writer; one connection also keeps ":memory:" coherent.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	upgraded, err := ensureSchema(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	handle.logger.Info("localdb_opened",
		slog.String("path", handle.path),
		slog.Int("schema_version", SchemaVersion),
		slog.Bool("recreated", upgraded),
	)

	handle.db = db
	return db, nil
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("localdb: %q: %w", pragma, err)
		}
	}
	return nil
}

// ensureSchema recreates every namespace when the stored version differs.
// It reports whether the namespaces were recreated.
func ensureSchema(ctx context.Context, db *sql.DB) (bool, error) {
	var stored int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&stored); err != nil {
		return false, fmt.Errorf("localdb: read user_version: %w", err)
	}

	if stored == SchemaVersion {
		// Tables may still be missing if the file was tampered with.
		return false, execAll(ctx, db, createStatements())
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("localdb: begin upgrade: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	statements := append(dropStatements(), createStatements()...)
	statements = append(statements, fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion))
	for _, statement := range statements {
		if _, err := tx.ExecContext(ctx, statement); err != nil {
			return false, fmt.Errorf("localdb: upgrade from v%d: %w", stored, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("localdb: commit upgrade: %w", err)
	}
	return true, nil
}

func execAll(ctx context.Context, db *sql.DB, statements []string) error {
	for _, statement := range statements {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("localdb: %w", err)
		}
	}
	return nil
}

func dropStatements() []string {
	return []string{
		"DROP TABLE IF EXISTS " + schema.LocalBooks.Table,
		"DROP TABLE IF EXISTS " + schema.LocalReadingState.Table,
		"DROP TABLE IF EXISTS " + schema.LocalBookmarks.Table,
	}
}

func createStatements() []string {
	books := schema.LocalBooks
	state := schema.LocalReadingState
	marks := schema.LocalBookmarks

	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			%s TEXT PRIMARY KEY,
			%s TEXT NOT NULL,
			%s TEXT NOT NULL,
			%s TEXT,
			%s INTEGER NOT NULL,
			%s INTEGER,
			%s BLOB NOT NULL
		)`, books.Table, books.ID, books.Title, books.Author, books.CoverURL, books.CreatedAt, books.SortOrder, books.Data),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			%s TEXT PRIMARY KEY,
			%s TEXT NOT NULL,
			%s REAL NOT NULL,
			%s INTEGER,
			%s INTEGER NOT NULL,
			%s INTEGER NOT NULL DEFAULT 0,
			%s INTEGER
		)`, state.Table, state.BookID, state.LastLocation, state.Progress, state.TotalPages, state.LastRead, state.IsFinished, state.TimeSpent),

		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (%s)`, state.LastReadIdx, state.Table, state.LastRead),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			%s TEXT PRIMARY KEY,
			%s TEXT NOT NULL,
			%s TEXT NOT NULL,
			%s TEXT NOT NULL,
			%s INTEGER NOT NULL,
			%s INTEGER,
			%s REAL
		)`, marks.Table, marks.ID, marks.BookID, marks.CFI, marks.Label, marks.CreatedAt, marks.Page, marks.Progress),

		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (%s)`, marks.BookIdx, marks.Table, marks.BookID),
	}
}
