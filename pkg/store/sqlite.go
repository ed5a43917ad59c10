// Package store keeps a history of optimization runs in a SQLite database so
// that batches and repeated experiments can be compared after the fact.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Logger is the subset of the application logger the store reports to
type Logger interface {
	Info(format string, args ...interface{})
	Warning(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})    {}
func (nopLogger) Warning(string, ...interface{}) {}

// DB wraps a SQLite connection. Writes are serialized through writeMu because
// SQLite allows a single writer and batch runs save concurrently.
type DB struct {
	conn    *sql.DB
	writeMu sync.Mutex
	log     Logger
}

// Open opens (creating if needed) the database at path with WAL journaling
func Open(path string, log Logger) (*DB, error) {
	if log == nil {
		log = nopLogger{}
	}

	dsn := "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			log.Warning("Failed to set %s: %v", pragma, err)
		}
	}

	log.Info("Connected to run history database: %s", path)
	return &DB{conn: conn, log: log}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// EnsureSchema creates the tables if they don't exist
func (db *DB) EnsureSchema(ctx context.Context) error {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	if _, err := db.conn.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
