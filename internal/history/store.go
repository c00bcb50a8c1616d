// Package history persists finished dictations to a local SQLite
// database so recent transcripts can prime the next session and be
// searched later.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS dictations (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp   REAL NOT NULL,
	raw_text    TEXT NOT NULL,
	cleaned_text TEXT NOT NULL,
	engine      TEXT NOT NULL,
	duration_s  REAL NOT NULL,
	wpm         REAL NOT NULL,
	confidence  REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_dictations_timestamp ON dictations(timestamp DESC);
`

// Entry is one recorded dictation.
type Entry struct {
	ID          int64
	Timestamp   time.Time
	RawText     string
	CleanedText string
	Engine      string
	DurationS   float64
	WPM         float64
	Confidence  float64
}

// Store wraps the dictation history database.
type Store struct {
	db *sql.DB
}

// DefaultPath returns the history database location under the state dir.
func DefaultPath(stateDir string) string {
	return filepath.Join(stateDir, "history.sqlite")
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("ensure history dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping history database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts one finished dictation.
func (s *Store) Record(e Entry) error {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO dictations (timestamp, raw_text, cleaned_text, engine, duration_s, wpm, confidence)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, unixFloat(ts), e.RawText, e.CleanedText, e.Engine, e.DurationS, e.WPM, e.Confidence)
	if err != nil {
		return fmt.Errorf("insert dictation: %w", err)
	}
	return nil
}

// Recent returns the newest n entries, newest first.
func (s *Store) Recent(n int) ([]Entry, error) {
	rows, err := s.db.Query(`
		SELECT id, timestamp, raw_text, cleaned_text, engine, duration_s, wpm, confidence
		FROM dictations
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("query recent dictations: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// RecentTexts returns the cleaned text of the newest limit entries,
// newest first. It satisfies the prompt-priming history source.
func (s *Store) RecentTexts(limit int) ([]string, error) {
	entries, err := s.Recent(limit)
	if err != nil {
		return nil, err
	}
	texts := make([]string, 0, len(entries))
	for _, e := range entries {
		texts = append(texts, e.CleanedText)
	}
	return texts, nil
}

// Search returns entries whose raw or cleaned text contains query,
// newest first.
func (s *Store) Search(query string, limit int) ([]Entry, error) {
	pattern := "%" + query + "%"
	rows, err := s.db.Query(`
		SELECT id, timestamp, raw_text, cleaned_text, engine, duration_s, wpm, confidence
		FROM dictations
		WHERE raw_text LIKE ? OR cleaned_text LIKE ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search dictations: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Prune deletes everything beyond the newest max entries. A max of 0
// disables pruning.
func (s *Store) Prune(max int) error {
	if max <= 0 {
		return nil
	}
	_, err := s.db.Exec(`
		DELETE FROM dictations
		WHERE id NOT IN (
			SELECT id FROM dictations ORDER BY timestamp DESC, id DESC LIMIT ?
		)
	`, max)
	if err != nil {
		return fmt.Errorf("prune dictations: %w", err)
	}
	return nil
}

// Count returns the number of stored entries.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM dictations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count dictations: %w", err)
	}
	return n, nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var ts float64
		if err := rows.Scan(&e.ID, &ts, &e.RawText, &e.CleanedText,
			&e.Engine, &e.DurationS, &e.WPM, &e.Confidence); err != nil {
			return nil, fmt.Errorf("scan dictation: %w", err)
		}
		e.Timestamp = timeFromUnix(ts)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func unixFloat(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func timeFromUnix(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}
