// Package history persists completed transcriptions in a local SQLite
// database so dictated text survives an accidental clipboard overwrite.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Entry is one stored transcription.
type Entry struct {
	ID         string
	Text       string
	Model      string
	Audio      time.Duration
	AvgLogProb float64
	CreatedAt  time.Time
}

// Store wraps the transcripts database.
type Store struct {
	db *sql.DB
}

// DefaultPath returns the database location under the user config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get user config dir: %w", err)
	}
	return filepath.Join(dir, "loudmouth", "history.sqlite"), nil
}

// Open opens (and if needed creates) the database at path with WAL.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS transcripts (
			id          TEXT PRIMARY KEY,
			text        TEXT NOT NULL,
			model       TEXT NOT NULL,
			duration_ms INTEGER NOT NULL,
			avg_logprob REAL NOT NULL,
			created_at  INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add stores one transcription and returns its id.
func (s *Store) Add(text, model string, audio time.Duration, avgLogProb float64) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(`
		INSERT INTO transcripts (id, text, model, duration_ms, avg_logprob, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, text, model, audio.Milliseconds(), avgLogProb, time.Now().Unix())
	if err != nil {
		return "", fmt.Errorf("insert transcript: %w", err)
	}
	return id, nil
}

// Recent returns up to n transcriptions, newest first.
func (s *Store) Recent(n int) ([]Entry, error) {
	rows, err := s.db.Query(`
		SELECT id, text, model, duration_ms, avg_logprob, created_at
		FROM transcripts
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("query transcripts: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var durationMS int64
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.Text, &e.Model, &durationMS, &e.AvgLogProb, &createdAt); err != nil {
			return nil, fmt.Errorf("scan transcript: %w", err)
		}
		e.Audio = time.Duration(durationMS) * time.Millisecond
		e.CreatedAt = time.Unix(createdAt, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune deletes everything older than the retention window.
func (s *Store) Prune(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention).Unix()
	res, err := s.db.Exec(`DELETE FROM transcripts WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune transcripts: %w", err)
	}
	return res.RowsAffected()
}
