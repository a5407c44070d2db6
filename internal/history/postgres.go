package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores runs in a shared PostgreSQL database.
type Postgres struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

const postgresSchema = `CREATE TABLE IF NOT EXISTS ytsum_runs (
	id         TEXT PRIMARY KEY,
	video_id   TEXT NOT NULL,
	strategy   TEXT NOT NULL,
	language   TEXT NOT NULL,
	mode       TEXT NOT NULL DEFAULT '',
	attempts   JSONB NOT NULL DEFAULT '[]',
	chars      INTEGER NOT NULL DEFAULT 0,
	summary    TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS ytsum_runs_video_idx ON ytsum_runs (video_id, created_at DESC);`

// OpenPostgres creates a pgx pool and ensures the schema exists.
func OpenPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	config.MaxConns = 4
	config.MinConns = 1
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, "SET search_path TO public")
		return err
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("history: init schema: %w", err)
	}

	slog.Info("history postgres connected", slog.String("addr", config.ConnConfig.Host))
	return &Postgres{pool: pool, now: time.Now}, nil
}

// Record inserts run, assigning its ID and timestamp when unset.
func (p *Postgres) Record(ctx context.Context, run Run) (Run, error) {
	run, err := prepare(run, p.now())
	if err != nil {
		return run, err
	}
	attempts, err := encodeAttempts(run.Attempts)
	if err != nil {
		return run, err
	}
	_, err = p.pool.Exec(ctx,
		`INSERT INTO ytsum_runs (id, video_id, strategy, language, mode, attempts, chars, summary, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8, $9)`,
		run.ID, run.VideoID, run.Strategy, run.Language, run.Mode, attempts, run.Chars, run.Summary, run.CreatedAt)
	if err != nil {
		return run, fmt.Errorf("history: insert run: %w", err)
	}
	return run, nil
}

// Recent returns the newest runs first.
func (p *Postgres) Recent(ctx context.Context, limit int) ([]Run, error) {
	return p.query(ctx, `SELECT id, video_id, strategy, language, mode, attempts::text, chars, summary, created_at
		FROM ytsum_runs ORDER BY created_at DESC LIMIT $1`, clampLimit(limit))
}

// ForVideo returns the newest runs for one video first.
func (p *Postgres) ForVideo(ctx context.Context, videoID string, limit int) ([]Run, error) {
	return p.query(ctx, `SELECT id, video_id, strategy, language, mode, attempts::text, chars, summary, created_at
		FROM ytsum_runs WHERE video_id = $1 ORDER BY created_at DESC LIMIT $2`, videoID, clampLimit(limit))
}

func (p *Postgres) query(ctx context.Context, q string, args ...any) ([]Run, error) {
	rows, err := p.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("history: query: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r        Run
			attempts string
		)
		if err := rows.Scan(&r.ID, &r.VideoID, &r.Strategy, &r.Language, &r.Mode, &attempts, &r.Chars, &r.Summary, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		if r.Attempts, err = decodeAttempts(attempts); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Close releases the pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
