// Package db archives completed FoxFocus sessions in SQLite.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Smailkiller/FOXFOCUS/internal/session"
	_ "modernc.org/sqlite"
)

const schema = `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		startedAt REAL NOT NULL,
		endedAt REAL NOT NULL,
		duration INTEGER NOT NULL,
		createdAt REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS notes (
		sessionId TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		text TEXT NOT NULL,
		PRIMARY KEY (sessionId, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_endedAt ON sessions(endedAt);
`

// Store is the session archive.
type Store struct {
	db *sql.DB
}

// DefaultDBPath returns the default archive path.
func DefaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "foxfocus", "history.sqlite")
}

// Open opens (creating if needed) the archive at path with WAL.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s, err := newStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenReadOnly opens an existing archive without creating or migrating it.
func OpenReadOnly(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

func newStore(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveEntry archives a completed session. Saving the same id again replaces
// the earlier copy.
func (s *Store) SaveEntry(ctx context.Context, e session.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE sessionId = ?`, e.ID); err != nil {
		return fmt.Errorf("clear notes: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO sessions (id, name, startedAt, endedAt, duration, createdAt)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.ID, e.Name, unixFromTime(e.StartedAt), unixFromTime(e.EndedAt), e.Duration, unixFromTime(time.Now()))
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	for i, note := range e.Notes {
		if _, err := tx.ExecContext(ctx, `INSERT INTO notes (sessionId, seq, text) VALUES (?, ?, ?)`,
			e.ID, i, note); err != nil {
			return fmt.Errorf("insert note: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Entries returns up to limit archived sessions, most recently ended first.
// A non-positive limit returns all of them.
func (s *Store) Entries(ctx context.Context, limit int) ([]session.Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, startedAt, endedAt, duration
		FROM sessions
		ORDER BY endedAt DESC, createdAt DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}

	var entries []session.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// Notes are loaded after the session cursor is released.
	for i := range entries {
		notes, err := s.notesFor(ctx, entries[i].ID)
		if err != nil {
			return nil, err
		}
		entries[i].Notes = notes
	}
	return entries, nil
}

// Entry returns the archived session with the given id, or nil if absent.
func (s *Store) Entry(ctx context.Context, id string) (*session.Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, startedAt, endedAt, duration
		FROM sessions
		WHERE id = ?
	`, id)

	e, err := scanEntry(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	e.Notes, err = s.notesFor(ctx, id)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// TotalSeconds sums the tracked duration of sessions ended at or after since.
// A zero since covers the whole archive.
func (s *Store) TotalSeconds(ctx context.Context, since time.Time) (int, error) {
	var from float64
	if !since.IsZero() {
		from = unixFromTime(since)
	}

	var total sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT SUM(duration) FROM sessions WHERE endedAt >= ?
	`, from).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum durations: %w", err)
	}
	return int(total.Int64), nil
}

func (s *Store) notesFor(ctx context.Context, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT text FROM notes WHERE sessionId = ? ORDER BY seq ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	notes := []string{}
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, text)
	}
	return notes, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (session.Entry, error) {
	var e session.Entry
	var startedAt, endedAt float64
	if err := sc.Scan(&e.ID, &e.Name, &startedAt, &endedAt, &e.Duration); err != nil {
		if err == sql.ErrNoRows {
			return e, err
		}
		return e, fmt.Errorf("scan session: %w", err)
	}
	e.StartedAt = timeFromUnix(startedAt)
	e.EndedAt = timeFromUnix(endedAt)
	return e, nil
}

func unixFromTime(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func timeFromUnix(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}
