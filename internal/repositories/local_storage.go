package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/scribe/internal/session"
)

// LocalStorage implements [session.Store] over the local_storage table.
type LocalStorage struct {
	db *sql.DB
}

// NewLocalStorage creates a new [LocalStorage] with the given database connection
func NewLocalStorage(db *sql.DB) *LocalStorage {
	return &LocalStorage{db: db}
}

// Get returns the value for key, or [session.ErrKeyNotFound].
func (r *LocalStorage) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM local_storage WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", session.ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query local storage: %w", err)
	}
	return value, nil
}

// Set inserts or replaces the value for key.
func (r *LocalStorage) Set(key, value string) error {
	query := `
		INSERT INTO local_storage (key, value, created_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	now := time.Now()
	if _, err := r.db.Exec(query, key, value, now, now); err != nil {
		return fmt.Errorf("failed to write local storage: %w", err)
	}
	return nil
}

// Remove deletes key. Removing a missing key returns [session.ErrKeyNotFound].
func (r *LocalStorage) Remove(key string) error {
	result, err := r.db.Exec(`DELETE FROM local_storage WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete from local storage: %w", err)
	}
	return requireAffected(result, session.ErrKeyNotFound, key)
}

// Keys lists every stored key in insertion order.
func (r *LocalStorage) Keys() ([]string, error) {
	rows, err := r.db.Query(`SELECT key FROM local_storage ORDER BY created_at, key`)
	if err != nil {
		return nil, fmt.Errorf("failed to query local storage: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
