package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// sqliteTime sorts lexicographically in time order.
const sqliteTime = "2006-01-02T15:04:05.000000Z07:00"

// SQLite stores runs in a local database file.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (or creates) the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("history: mkdir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer
	if err := initSQLiteSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: init schema: %w", err)
	}
	return &SQLite{db: db, now: time.Now}, nil
}

func initSQLiteSchema(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		id         TEXT PRIMARY KEY,
		video_id   TEXT NOT NULL,
		strategy   TEXT NOT NULL,
		language   TEXT NOT NULL,
		mode       TEXT NOT NULL DEFAULT '',
		attempts   TEXT NOT NULL DEFAULT '[]',
		chars      INTEGER NOT NULL DEFAULT 0,
		summary    TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	)`); err != nil {
		return err
	}
	_, err := db.Exec(`CREATE INDEX IF NOT EXISTS runs_video_idx ON runs (video_id, created_at)`)
	return err
}

// Record inserts run, assigning its ID and timestamp when unset.
func (s *SQLite) Record(ctx context.Context, run Run) (Run, error) {
	run, err := prepare(run, s.now())
	if err != nil {
		return run, err
	}
	attempts, err := encodeAttempts(run.Attempts)
	if err != nil {
		return run, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, video_id, strategy, language, mode, attempts, chars, summary, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.VideoID, run.Strategy, run.Language, run.Mode, attempts, run.Chars, run.Summary,
		run.CreatedAt.Format(sqliteTime))
	if err != nil {
		return run, fmt.Errorf("history: insert run: %w", err)
	}
	return run, nil
}

// Recent returns the newest runs first.
func (s *SQLite) Recent(ctx context.Context, limit int) ([]Run, error) {
	return s.query(ctx, `SELECT id, video_id, strategy, language, mode, attempts, chars, summary, created_at
		FROM runs ORDER BY created_at DESC LIMIT ?`, clampLimit(limit))
}

// ForVideo returns the newest runs for one video first.
func (s *SQLite) ForVideo(ctx context.Context, videoID string, limit int) ([]Run, error) {
	return s.query(ctx, `SELECT id, video_id, strategy, language, mode, attempts, chars, summary, created_at
		FROM runs WHERE video_id = ? ORDER BY created_at DESC LIMIT ?`, videoID, clampLimit(limit))
}

func (s *SQLite) query(ctx context.Context, q string, args ...any) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("history: query: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r        Run
			attempts string
			created  string
		)
		if err := rows.Scan(&r.ID, &r.VideoID, &r.Strategy, &r.Language, &r.Mode, &attempts, &r.Chars, &r.Summary, &created); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		if r.Attempts, err = decodeAttempts(attempts); err != nil {
			return nil, err
		}
		if r.CreatedAt, err = time.Parse(sqliteTime, created); err != nil {
			return nil, fmt.Errorf("history: created_at: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Close closes the database.
func (s *SQLite) Close() error { return s.db.Close() }
