package session

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/secacademy/academy-admin/internal/db"
)

// Store is persistent client storage for string values under fixed keys
type Store interface {
	Get(key string) (string, bool, error)
	Put(key, value string) error
	Delete(key string) error
}

// MemoryStore keeps values in process memory
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MemoryStore) Put(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// DuckStore persists values in a key/value table of a DuckDB file
type DuckStore struct {
	db *sql.DB
}

// OpenDuckStore opens the state file at path and makes sure the kv table exists
func OpenDuckStore(path string) (*DuckStore, error) {
	database, err := db.OpenFile(path)
	if err != nil {
		return nil, err
	}

	if _, err := database.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key   VARCHAR PRIMARY KEY,
			value VARCHAR NOT NULL
		)
	`); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to create kv table: %w", err)
	}

	return &DuckStore{db: database}, nil
}

func (s *DuckStore) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, true, nil
}

func (s *DuckStore) Put(key, value string) error {
	if _, err := s.db.Exec(`INSERT OR REPLACE INTO kv (key, value) VALUES (?, ?)`, key, value); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *DuckStore) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying database file
func (s *DuckStore) Close() error {
	return s.db.Close()
}
