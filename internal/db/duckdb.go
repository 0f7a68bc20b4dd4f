// Package db opens DuckDB handles: a shared in-memory database for export
// conversion and file-backed databases for persistent client state.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/marcboeker/go-duckdb"
)

var (
	scratch     *sql.DB
	scratchOnce sync.Once
	scratchErr  error
)

// Scratch returns the process-wide in-memory database with the JSON extension
// loaded. It is used for exports, never for persistent state.
func Scratch() (*sql.DB, error) {
	scratchOnce.Do(func() {
		scratch, scratchErr = open("", "json")
	})
	return scratch, scratchErr
}

// OpenFile opens (creating if needed) a DuckDB database file at path.
// The parent directory is created with 0700 permissions since the file holds
// the operator's bearer token.
func OpenFile(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	conn, err := open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return conn, nil
}

func open(dsn string, extensions ...string) (*sql.DB, error) {
	conn, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB: %w", err)
	}

	conn.SetMaxOpenConns(1) // DuckDB works best with single connection
	conn.SetMaxIdleConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open DuckDB: %w", err)
	}

	for _, ext := range extensions {
		if _, err := conn.Exec("INSTALL " + ext); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to install %s extension: %w", ext, err)
		}
		if _, err := conn.Exec("LOAD " + ext); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to load %s extension: %w", ext, err)
		}
	}

	return conn, nil
}
