package profile

import (
	"database/sql"
	"fmt"
	"log"
	"sync"

	_ "modernc.org/sqlite"
)

// Profile is a user's stored speech identity. Empty fields mean "use the
// defaults": the raw username as spoken name, the configured default voice.
type Profile struct {
	Username string
	Nickname string
	Voice    string
}

// Store persists nicknames and voice choices in sqlite and keeps both
// tables mirrored in memory. Reads never touch the database; writes update
// the cache first and keep it even when the database write fails, so the
// session keeps behaving consistently while persistence lags.
type Store struct {
	db *sql.DB

	mu        sync.RWMutex
	nicknames map[string]string
	voices    map[string]string
}

// Open opens the profile database and loads both tables into memory.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute pragma %q: %w", pragma, err)
		}
	}

	s := &Store{
		db:        db,
		nicknames: make(map[string]string),
		voices:    make(map[string]string),
	}

	if err := s.load(); err != nil {
		db.Close()
		return nil, err
	}

	log.Printf("[Profile] Loaded %d nickname(s) and %d voice(s) from %s",
		len(s.nicknames), len(s.voices), path)
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) load() error {
	if err := s.loadTable("nicknames", "nickname", s.nicknames); err != nil {
		return err
	}
	return s.loadTable("voices", "voice", s.voices)
}

func (s *Store) loadTable(table, column string, dst map[string]string) error {
	rows, err := s.db.Query(fmt.Sprintf("SELECT username, %s FROM %s", column, table))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var username, value string
		if err := rows.Scan(&username, &value); err != nil {
			return fmt.Errorf("failed to scan %s row: %w", table, err)
		}
		dst[username] = value
	}
	return rows.Err()
}

// Get returns the profile for username. Missing entries come back as empty
// fields; the caller applies the defaults.
func (s *Store) Get(username string) Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Profile{
		Username: username,
		Nickname: s.nicknames[username],
		Voice:    s.voices[username],
	}
}

// Nicknames returns a copy of the nickname table.
func (s *Store) Nicknames() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.nicknames))
	for k, v := range s.nicknames {
		out[k] = v
	}
	return out
}

// SetNickname records username's spoken name. The in-memory value is
// updated even when persistence fails; the error is returned so the caller
// can surface a warning.
func (s *Store) SetNickname(username, nickname string) error {
	s.mu.Lock()
	s.nicknames[username] = nickname
	s.mu.Unlock()

	return s.upsert("nicknames", "nickname", username, nickname)
}

// SetVoice records username's voice sample file. Same optimistic-cache
// policy as SetNickname.
func (s *Store) SetVoice(username, voice string) error {
	s.mu.Lock()
	s.voices[username] = voice
	s.mu.Unlock()

	return s.upsert("voices", "voice", username, voice)
}

func (s *Store) upsert(table, column, username, value string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin %s write: %w", table, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE username = ?", table), username); err != nil {
		return fmt.Errorf("failed to clear %s row: %w", table, err)
	}
	if _, err := tx.Exec(
		fmt.Sprintf("INSERT INTO %s (username, %s) VALUES (?, ?)", table, column),
		username, value,
	); err != nil {
		return fmt.Errorf("failed to insert %s row: %w", table, err)
	}
	return tx.Commit()
}
