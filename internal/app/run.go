package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/anatolykoptev/go_ytsum/internal/engine"
	"github.com/anatolykoptev/go_ytsum/internal/history"
	"github.com/anatolykoptev/go_ytsum/internal/summarize"
	"github.com/anatolykoptev/go_ytsum/internal/transcript"
	"github.com/anatolykoptev/go_ytsum/internal/videoref"
)

// TranscriptReport is the outcome of a transcript request.
type TranscriptReport struct {
	VideoID  string   `json:"video_id"`
	Language string   `json:"language"`
	Source   string   `json:"source"`
	Text     string   `json:"text"`
	Attempts []string `json:"attempts,omitempty"`
	Cached   bool     `json:"cached,omitempty"`
}

// SummaryReport is the outcome of a summary request.
type SummaryReport struct {
	VideoID  string   `json:"video_id"`
	Language string   `json:"language"`
	Mode     string   `json:"mode"`
	Source   string   `json:"source"`
	Summary  string   `json:"summary"`
	Chunks   int      `json:"chunks"`
	Calls    int      `json:"calls"`
	Chars    int      `json:"transcript_chars"`
	Attempts []string `json:"attempts,omitempty"`
	Cached   bool     `json:"cached,omitempty"`
}

// Progress observes strategy outcomes while a transcript is acquired.
type Progress func(transcript.Outcome)

// Transcript normalizes raw and returns the video's transcript, from cache
// when possible.
func (a *App) Transcript(ctx context.Context, raw string, progress Progress) (*TranscriptReport, error) {
	ref, err := videoref.Normalize(raw)
	if err != nil {
		return nil, err
	}
	rep, outcomes, err := a.transcript(ctx, ref, progress)
	if err != nil {
		return nil, err
	}
	if !rep.Cached {
		a.record(ctx, history.Run{
			VideoID:  rep.VideoID,
			Strategy: rep.Source,
			Language: rep.Language,
			Attempts: attemptsFromOutcomes(outcomes),
			Chars:    len([]rune(rep.Text)),
		})
	}
	return rep, nil
}

// Summarize acquires the transcript of raw and summarizes it in lang.
func (a *App) Summarize(ctx context.Context, raw, lang string, mode summarize.Mode, progress Progress) (*SummaryReport, error) {
	ref, err := videoref.Normalize(raw)
	if err != nil {
		return nil, err
	}
	tmpl := a.Summarizer.Registry().Resolve(lang, mode)

	key := engine.CacheKey("summary", ref.String(), tmpl.Language, mode.String())
	if rep, ok := engine.LoadJSON[SummaryReport](ctx, a.Cache, key); ok {
		rep.Cached = true
		slog.Debug("summary cache hit", slog.String("id", ref.String()))
		return &rep, nil
	}

	tr, outcomes, err := a.transcript(ctx, ref, progress)
	if err != nil {
		return nil, err
	}

	sum, err := a.Summarizer.Summarize(ctx, tr.Text, tmpl.Language, mode)
	if err != nil {
		return nil, err
	}

	rep := &SummaryReport{
		VideoID:  tr.VideoID,
		Language: sum.Language,
		Mode:     sum.Mode.String(),
		Source:   tr.Source,
		Summary:  sum.Text,
		Chunks:   sum.Chunks,
		Calls:    sum.Calls,
		Chars:    len([]rune(tr.Text)),
		Attempts: tr.Attempts,
	}
	engine.StoreJSON(ctx, a.Cache, key, *rep)

	a.record(ctx, history.Run{
		VideoID:  rep.VideoID,
		Strategy: rep.Source,
		Language: rep.Language,
		Mode:     rep.Mode,
		Attempts: attemptsFromOutcomes(outcomes),
		Chars:    rep.Chars,
		Summary:  rep.Summary,
	})
	return rep, nil
}

// cachedTranscript is the cache form of an acquired transcript.
type cachedTranscript struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Source   string `json:"source"`
}

func (a *App) transcript(ctx context.Context, ref videoref.Ref, progress Progress) (*TranscriptReport, []transcript.Outcome, error) {
	key := engine.CacheKey("transcript", ref.String())
	if c, ok := engine.LoadJSON[cachedTranscript](ctx, a.Cache, key); ok && c.Text != "" {
		slog.Debug("transcript cache hit", slog.String("id", ref.String()))
		return &TranscriptReport{
			VideoID:  ref.String(),
			Language: c.Language,
			Source:   c.Source,
			Text:     c.Text,
			Cached:   true,
		}, nil, nil
	}

	eng := *a.Engine
	eng.OnOutcome = progress

	var res *transcript.Result
	err := engine.TrackOperation(ctx, "acquire "+ref.String(), 30*time.Second, func(ctx context.Context) error {
		var err error
		res, err = eng.Acquire(ctx, ref)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	rep := &TranscriptReport{
		VideoID:  ref.String(),
		Language: res.Language,
		Source:   res.Source.String(),
		Text:     res.Text,
		Attempts: outcomeStrings(res.Attempts),
	}
	engine.StoreJSON(ctx, a.Cache, key, cachedTranscript{Text: rep.Text, Language: rep.Language, Source: rep.Source})
	return rep, res.Attempts, nil
}

func (a *App) record(ctx context.Context, run history.Run) {
	if a.History == nil {
		return
	}
	if _, err := a.History.Record(ctx, run); err != nil {
		slog.Warn("history: record failed", slog.String("id", run.VideoID), slog.Any("error", err))
	}
}

func outcomeStrings(outs []transcript.Outcome) []string {
	s := make([]string, len(outs))
	for i, o := range outs {
		s[i] = o.String()
	}
	return s
}

func attemptsFromOutcomes(outs []transcript.Outcome) []history.Attempt {
	at := make([]history.Attempt, len(outs))
	for i, o := range outs {
		at[i] = history.Attempt{Strategy: o.Strategy.String(), Result: o.Kind.String(), Reason: o.Reason}
	}
	return at
}
