// Package summarize turns long transcripts into structured, localized
// summaries with a sequential map-reduce over overlapping chunks.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/anatolykoptev/go_ytsum/internal/engine"
)

// Default chunking, in runes.
const (
	DefaultChunkSize    = 2000
	DefaultChunkOverlap = 200
)

// ErrEmptyText is returned (inside a split-stage FailedError) for blank input.
var ErrEmptyText = errors.New("nothing to summarize")

// ChatService completes one system+user exchange.
type ChatService interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Stage names the pipeline step that failed.
type Stage string

const (
	StageSplit  Stage = "split"
	StageMap    Stage = "map"
	StageReduce Stage = "reduce"
)

// FailedError reports a summarization failure. Chunk is the 0-based chunk
// index for map failures and -1 otherwise.
type FailedError struct {
	Stage Stage
	Chunk int
	Err   error
}

func (e *FailedError) Error() string {
	if e.Stage == StageMap && e.Chunk >= 0 {
		return fmt.Sprintf("summarize %s (chunk %d): %v", e.Stage, e.Chunk+1, e.Err)
	}
	return fmt.Sprintf("summarize %s: %v", e.Stage, e.Err)
}

func (e *FailedError) Unwrap() error { return e.Err }

// Summary is the final structured text.
type Summary struct {
	Text     string
	Language string
	Mode     Mode
	Labels   Labels
	Chunks   int
	Calls    int
}

// Summarizer runs the chunked map-reduce pipeline.
type Summarizer struct {
	chat     ChatService
	registry *Registry
	size     int
	overlap  int
	limiter  *rate.Limiter
}

// Option configures a Summarizer.
type Option func(*Summarizer)

// WithChunking overrides the chunk size and overlap (runes).
func WithChunking(size, overlap int) Option {
	return func(s *Summarizer) {
		s.size, s.overlap = size, overlap
	}
}

// WithRateLimit paces generation calls at rps per second. rps <= 0 disables pacing.
func WithRateLimit(rps float64) Option {
	return func(s *Summarizer) {
		if rps > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// New returns a Summarizer. A nil registry means the built-in locales.
func New(chat ChatService, registry *Registry, opts ...Option) *Summarizer {
	if registry == nil {
		registry = NewRegistry()
	}
	s := &Summarizer{
		chat:     chat,
		registry: registry,
		size:     DefaultChunkSize,
		overlap:  DefaultChunkOverlap,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Registry returns the template registry in use.
func (s *Summarizer) Registry() *Registry { return s.registry }

// Summarize produces one summary of text in lang. Chunks are summarized in
// order, one call at a time; any failed call aborts the run.
func (s *Summarizer) Summarize(ctx context.Context, text, lang string, mode Mode) (*Summary, error) {
	start := time.Now()
	tmpl := s.registry.Resolve(lang, mode)

	set, err := Split(text, s.size, s.overlap)
	if err != nil {
		return nil, &FailedError{Stage: StageSplit, Chunk: -1, Err: err}
	}
	if set.Len() == 0 {
		return nil, &FailedError{Stage: StageSplit, Chunk: -1, Err: ErrEmptyText}
	}

	sum := &Summary{
		Language: tmpl.Language,
		Mode:     mode,
		Labels:   tmpl.Labels,
		Chunks:   set.Len(),
	}

	if set.Len() == 1 {
		out, err := s.call(ctx, tmpl.System, tmpl.User(set.Chunks[0].Text))
		sum.Calls++
		if err != nil {
			return nil, &FailedError{Stage: StageMap, Chunk: 0, Err: err}
		}
		sum.Text = out
		s.done(sum, start)
		return sum, nil
	}

	partials := make([]string, 0, set.Len())
	for _, c := range set.Chunks {
		out, err := s.call(ctx, tmpl.PartialSystem, tmpl.Partial(c.Text, c.Index+1, set.Len()))
		sum.Calls++
		if err != nil {
			return nil, &FailedError{Stage: StageMap, Chunk: c.Index, Err: err}
		}
		slog.Debug("summarize: chunk done",
			slog.Int("chunk", c.Index+1), slog.Int("of", set.Len()))
		partials = append(partials, out)
	}

	out, err := s.call(ctx, tmpl.System, tmpl.Reduce(partials))
	sum.Calls++
	if err != nil {
		return nil, &FailedError{Stage: StageReduce, Chunk: -1, Err: err}
	}
	sum.Text = out
	s.done(sum, start)
	return sum, nil
}

func (s *Summarizer) call(ctx context.Context, system, user string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	out, err := s.chat.Complete(ctx, system, user)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", errors.New("empty completion")
	}
	return out, nil
}

func (s *Summarizer) done(sum *Summary, start time.Time) {
	engine.IncrSummaries()
	slog.Info("summarize: done",
		slog.String("lang", sum.Language),
		slog.String("mode", sum.Mode.String()),
		slog.Int("chunks", sum.Chunks),
		slog.Int("calls", sum.Calls),
		slog.Duration("took", time.Since(start)))
}
