// Package prefs persists user preferences and recorded keyboard shortcuts
// between runs. It is a small SQLite key-value store; nothing about live
// volume state is ever written here.
package prefs

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite" // SQLite driver
)

// ErrNotFound is returned when a key or shortcut has never been stored.
var ErrNotFound = errors.New("preference not found")

// Store is an open preferences database.
type Store struct {
	db *sql.DB
}

// Shortcut is one recorded key binding for a controller action.
type Shortcut struct {
	Action    string // e.g. "volume-up", "toggle-monitor"
	KeyCode   int
	Modifiers int // platform modifier mask
}

// Open opens (creating if needed) the preferences database at dbPath.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create preferences directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open preferences database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 10000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func ensureSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS preferences (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS shortcuts (
    action    TEXT PRIMARY KEY,
    key_code  INTEGER NOT NULL,
    modifiers INTEGER NOT NULL
);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create preferences schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Set stores one preference value.
func (s *Store) Set(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO preferences (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("failed to store preference %q: %w", key, err)
	}
	return nil
}

// Get reads one preference value.
func (s *Store) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read preference %q: %w", key, err)
	}
	return value, nil
}

// SetBool stores a boolean preference.
func (s *Store) SetBool(key string, v bool) error {
	return s.Set(key, strconv.FormatBool(v))
}

// GetBool reads a boolean preference, returning fallback when unset.
func (s *Store) GetBool(key string, fallback bool) bool {
	raw, err := s.Get(key)
	if err != nil {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}

// SetFloat stores a numeric preference.
func (s *Store) SetFloat(key string, v float64) error {
	return s.Set(key, strconv.FormatFloat(v, 'f', -1, 64))
}

// GetFloat reads a numeric preference, returning fallback when unset or
// unparseable.
func (s *Store) GetFloat(key string, fallback float64) float64 {
	raw, err := s.Get(key)
	if err != nil {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

// SaveShortcut records a key binding for an action, replacing any previous
// binding for that action.
func (s *Store) SaveShortcut(sc Shortcut) error {
	_, err := s.db.Exec(
		`INSERT INTO shortcuts (action, key_code, modifiers) VALUES (?, ?, ?)
		 ON CONFLICT(action) DO UPDATE SET key_code = excluded.key_code, modifiers = excluded.modifiers`,
		sc.Action, sc.KeyCode, sc.Modifiers)
	if err != nil {
		return fmt.Errorf("failed to store shortcut for %q: %w", sc.Action, err)
	}
	return nil
}

// Shortcut reads the binding for one action.
func (s *Store) Shortcut(action string) (Shortcut, error) {
	sc := Shortcut{Action: action}
	err := s.db.QueryRow(
		`SELECT key_code, modifiers FROM shortcuts WHERE action = ?`, action).
		Scan(&sc.KeyCode, &sc.Modifiers)
	if errors.Is(err, sql.ErrNoRows) {
		return Shortcut{}, fmt.Errorf("%w: shortcut %s", ErrNotFound, action)
	}
	if err != nil {
		return Shortcut{}, fmt.Errorf("failed to read shortcut for %q: %w", action, err)
	}
	return sc, nil
}

// Shortcuts returns all recorded bindings.
func (s *Store) Shortcuts() ([]Shortcut, error) {
	rows, err := s.db.Query(`SELECT action, key_code, modifiers FROM shortcuts ORDER BY action`)
	if err != nil {
		return nil, fmt.Errorf("failed to list shortcuts: %w", err)
	}
	defer rows.Close()

	var out []Shortcut
	for rows.Next() {
		var sc Shortcut
		if err := rows.Scan(&sc.Action, &sc.KeyCode, &sc.Modifiers); err != nil {
			return nil, fmt.Errorf("failed to scan shortcut: %w", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// DeleteShortcut removes the binding for one action. Deleting a binding
// that doesn't exist is not an error.
func (s *Store) DeleteShortcut(action string) error {
	_, err := s.db.Exec(`DELETE FROM shortcuts WHERE action = ?`, action)
	if err != nil {
		return fmt.Errorf("failed to delete shortcut for %q: %w", action, err)
	}
	return nil
}
