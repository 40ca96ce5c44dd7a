package util

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/glebarez/go-sqlite"
)

// Journal is a sqlite database in the destination root that records what
// each run did, so a later run can resume and `status` can report on it.
type Journal struct {
	db   *sql.DB
	root string
}

// JournalEntry is one recorded outcome.
type JournalEntry struct {
	RunID      string
	Source     string
	SourceHash string
	Dest       string // relative to the destination root
	Status     Status
	Captured   time.Time
	Reason     string
}

// OpenJournal opens the journal at path, creating it and its schema if
// needed. Recorded destinations are relative to destRoot.
func OpenJournal(path, destRoot string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS assets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT,
		source TEXT,
		source_hash TEXT,
		dest_relpath TEXT,
		status TEXT,
		captured INTEGER,
		reason TEXT,
		recorded INTEGER
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating journal schema: %w", err)
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS assets_source ON assets (source, source_hash, status)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating journal index: %w", err)
	}

	return &Journal{db: db, root: destRoot}, nil
}

// OpenExistingJournal opens a journal that must already exist.
func OpenExistingJournal(path, destRoot string) (*Journal, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("no journal found at %s", path)
	}
	return OpenJournal(path, destRoot)
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Record stores one outcome.
func (j *Journal) Record(e JournalEntry) error {
	var captured int64
	if !e.Captured.IsZero() {
		captured = e.Captured.Unix()
	}
	_, err := j.db.Exec(
		"INSERT INTO assets (run_id, source, source_hash, dest_relpath, status, captured, reason, recorded) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		e.RunID, e.Source, e.SourceHash, e.Dest, e.Status.String(), captured, e.Reason, time.Now().Unix(),
	)
	return err
}

// MigratedDest returns the destination of a successful migration of the
// same source file with the same content in an earlier run, if that file
// still exists. Identical content under different source paths is not a
// match: each album copy of a photo is migrated in its own right.
func (j *Journal) MigratedDest(runID, source, hash string) (string, bool, error) {
	rows, err := j.db.Query(
		"SELECT dest_relpath FROM assets WHERE source = ? AND source_hash = ? AND status = ? AND run_id != ? ORDER BY id DESC",
		source, hash, Migrated.String(), runID,
	)
	if err != nil {
		return "", false, err
	}
	defer rows.Close()

	for rows.Next() {
		var rel string
		if err := rows.Scan(&rel); err != nil {
			return "", false, err
		}
		if _, err := os.Stat(filepath.Join(j.root, rel)); err == nil {
			return rel, true, nil
		}
	}
	return "", false, rows.Err()
}

// Counts returns the number of recorded outcomes per status.
func (j *Journal) Counts() (map[string]int, error) {
	rows, err := j.db.Query("SELECT status, COUNT(*) FROM assets GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// Runs returns the number of distinct runs recorded.
func (j *Journal) Runs() (int, error) {
	var n int
	err := j.db.QueryRow("SELECT COUNT(DISTINCT run_id) FROM assets").Scan(&n)
	return n, err
}
