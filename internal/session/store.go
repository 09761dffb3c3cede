package session

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/studybuddy/studybuddy/internal/db"
)

// Store provides keyed read/write access to persisted sessions. Each
// session key maps to one row; saves replace the whole record inside a
// single statement, so a concurrent load never observes a half-written
// state. Write serialization per key comes from the database's single
// writer connection.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given DB.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Load returns the session stored under key. A missing row or a
// malformed record is not an error: both fall back to a default
// session (the failure is logged), so callers always get usable state.
func (s *Store) Load(key string) *Session {
	var state string
	err := s.db.Conn().QueryRow(`SELECT state FROM sessions WHERE key = ?`, key).Scan(&state)
	if err == sql.ErrNoRows {
		return New()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "session: load %q: %v (starting fresh)\n", key, err)
		return New()
	}

	var sess Session
	if err := json.Unmarshal([]byte(state), &sess); err != nil {
		fmt.Fprintf(os.Stderr, "session: load %q: malformed state: %v (starting fresh)\n", key, err)
		return New()
	}
	sess.normalize()
	return &sess
}

// Save persists the session under key, replacing any previous record.
func (s *Store) Save(key string, sess *Session) error {
	state, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session: marshal state: %w", err)
	}

	_, err = s.db.Conn().Exec(`
		INSERT INTO sessions (key, state, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
		    state      = excluded.state,
		    updated_at = CURRENT_TIMESTAMP`,
		key, string(state),
	)
	if err != nil {
		return fmt.Errorf("session: save %q: %w", key, err)
	}
	return nil
}

// Reset replaces the session under key with default state and persists
// the reset.
func (s *Store) Reset(key string) (*Session, error) {
	sess := New()
	if err := s.Save(key, sess); err != nil {
		return sess, err
	}
	return sess, nil
}

// ListKeys returns every stored session key, most recently updated first.
func (s *Store) ListKeys() ([]string, error) {
	rows, err := s.db.Conn().Query(`SELECT key FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("session: list keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
