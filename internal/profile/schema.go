package profile

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const (
	nicknamesSchema = `CREATE TABLE nicknames (username TEXT PRIMARY KEY, nickname TEXT)`
	voicesSchema    = `CREATE TABLE voices (username TEXT PRIMARY KEY, voice TEXT)`

	downloadQueueSchema = `CREATE TABLE voice_download_queue (
  id INTEGER PRIMARY KEY AUTOINCREMENT UNIQUE NOT NULL,
  requested_by_username TEXT,
  requested_filename TEXT,
  youtube_url TEXT,
  processed INTEGER DEFAULT 0 CHECK(processed IN (0, 1))
)`
)

// CreateDB creates a fresh profile database with all tables. Used by the
// dbman tool and by Open when pointed at a missing file is not desired.
func CreateDB(path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	for _, table := range []string{"nicknames", "voices", "voice_download_queue"} {
		if err := createTable(db, table); err != nil {
			return err
		}
	}
	return nil
}

// CreateTable (re)creates one named table, dropping any existing copy.
func CreateTable(path, table string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	return createTable(db, table)
}

func createTable(db *sql.DB, table string) error {
	var schema string
	switch table {
	case "nicknames":
		schema = nicknamesSchema
	case "voices":
		schema = voicesSchema
	case "voice_download_queue":
		schema = downloadQueueSchema
	default:
		return fmt.Errorf("unknown table %q", table)
	}

	if _, err := db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
		return fmt.Errorf("failed to drop %s: %w", table, err)
	}
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create %s: %w", table, err)
	}
	return nil
}
