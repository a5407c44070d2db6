// Package history records finished acquisition and summary runs. SQLite is
// the default backend; PostgreSQL is used when a database URL is configured.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Attempt is one strategy outcome of a run.
type Attempt struct {
	Strategy string `json:"strategy"`
	Result   string `json:"result"`
	Reason   string `json:"reason,omitempty"`
}

// Run is one finished request.
type Run struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"video_id"`
	Strategy  string    `json:"strategy"`
	Language  string    `json:"language"`
	Mode      string    `json:"mode,omitempty"` // "" for transcript-only runs
	Attempts  []Attempt `json:"attempts"`
	Chars     int       `json:"chars"`
	Summary   string    `json:"summary,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists runs.
type Store interface {
	Record(ctx context.Context, run Run) (Run, error)
	Recent(ctx context.Context, limit int) ([]Run, error)
	ForVideo(ctx context.Context, videoID string, limit int) ([]Run, error)
	Close() error
}

// ErrNoVideo is returned by Record for runs without a video id.
var ErrNoVideo = errors.New("history: run has no video id")

// Open returns the PostgreSQL store when databaseURL is set, the SQLite
// store at path otherwise.
func Open(ctx context.Context, databaseURL, path string) (Store, error) {
	if databaseURL != "" {
		pg, err := OpenPostgres(ctx, databaseURL)
		if err != nil {
			return nil, err
		}
		return pg, nil
	}
	lite, err := OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	return lite, nil
}

// prepare fills the generated fields of run.
func prepare(run Run, now time.Time) (Run, error) {
	if run.VideoID == "" {
		return run, ErrNoVideo
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = now
	}
	run.CreatedAt = run.CreatedAt.UTC().Truncate(time.Microsecond)
	return run, nil
}

func encodeAttempts(a []Attempt) (string, error) {
	if a == nil {
		a = []Attempt{}
	}
	b, err := json.Marshal(a)
	if err != nil {
		return "", fmt.Errorf("encode attempts: %w", err)
	}
	return string(b), nil
}

func decodeAttempts(s string) ([]Attempt, error) {
	var a []Attempt
	if s == "" {
		return a, nil
	}
	if err := json.Unmarshal([]byte(s), &a); err != nil {
		return nil, fmt.Errorf("decode attempts: %w", err)
	}
	return a, nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 20
	}
	return limit
}
