// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package settings persists small key-value client state (token, selected
// model, preferences) in a SQLite database under the config directory.
// This is deliberately schemaless beyond one table: settings are strings
// under fixed keys, and unknown keys are ignored by old versions.
package settings

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Well-known setting keys.
const (
	KeyToken         = "token"
	KeyRememberMe    = "remember_me"
	KeyUsername      = "username"
	KeySelectedModel = "selected_model"
	KeyTTSEnabled    = "tts_enabled"
	KeyTTSVoice      = "tts_voice"
	KeyTTSBackend    = "tts_backend"
)

// =============================================================================
// STORE
// =============================================================================

// Store is a persisted key-value settings store backed by SQLite.
// Safe for concurrent use; database/sql serializes access.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the settings database at path.
// The parent directory is created with owner-only permissions since the
// database holds the bearer token.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create settings directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings database: %w", err)
	}

	const schema = `
		CREATE TABLE IF NOT EXISTS settings (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize settings schema: %w", err)
	}

	if err := os.Chmod(path, 0600); err != nil && !os.IsNotExist(err) {
		db.Close()
		return nil, fmt.Errorf("failed to restrict settings permissions: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Get returns the value for key and whether it was present.
func (s *Store) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read setting %q: %w", key, err)
	}
	return value, true, nil
}

// GetDefault returns the value for key, or fallback when absent.
func (s *Store) GetDefault(key, fallback string) string {
	value, ok, err := s.Get(key)
	if err != nil || !ok {
		return fallback
	}
	return value
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to write setting %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM settings WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete setting %q: %w", key, err)
	}
	return nil
}

// GetBool reads a boolean setting stored as "true"/"false".
func (s *Store) GetBool(key string, fallback bool) bool {
	value, ok, err := s.Get(key)
	if err != nil || !ok {
		return fallback
	}
	return value == "true"
}

// SetBool stores a boolean setting as "true"/"false".
func (s *Store) SetBool(key string, value bool) error {
	if value {
		return s.Set(key, "true")
	}
	return s.Set(key, "false")
}
