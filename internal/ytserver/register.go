// Package ytserver registers the go_ytsum MCP tools.
package ytserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_ytsum/internal/app"
	"github.com/anatolykoptev/go_ytsum/internal/history"
	"github.com/anatolykoptev/go_ytsum/internal/summarize"
	"github.com/anatolykoptev/go_ytsum/internal/toolutil"
	"github.com/anatolykoptev/go_ytsum/internal/transcript"
	"github.com/anatolykoptev/go_ytsum/internal/videoref"
)

// RegisterTools registers video_transcript, video_summarize and
// video_history on server.
func RegisterTools(server *mcp.Server, a *app.App) int {
	registerTranscript(server, a)
	registerSummarize(server, a)
	registerHistory(server, a)
	return 3
}

func logOutcome(id string) app.Progress {
	return func(o transcript.Outcome) {
		slog.Debug("tool: strategy outcome", slog.String("url", id), slog.String("outcome", o.String()))
	}
}

func registerTranscript(server *mcp.Server, a *app.App) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_transcript",
		Description: "Get the full spoken-word transcript of a YouTube video. Tries public captions, then authenticated captions, then the watch page in a headless browser, then downloads the audio and transcribes it. Returns the text, its language, which strategy produced it and every attempt made.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input TranscriptInput) (*mcp.CallToolResult, TranscriptOutput, error) {
		if input.URL == "" {
			return nil, TranscriptOutput{}, errors.New("url is required")
		}
		rep, err := a.Transcript(ctx, input.URL, logOutcome(input.URL))
		if err != nil {
			return nil, TranscriptOutput{}, describe(err)
		}
		text, truncated := toolutil.ClipText(rep.Text, input.MaxChars)
		return nil, TranscriptOutput{
			VideoID:   rep.VideoID,
			Language:  rep.Language,
			Source:    rep.Source,
			Text:      text,
			Truncated: truncated,
			Attempts:  rep.Attempts,
			Cached:    rep.Cached,
		}, nil
	})
}

func registerSummarize(server *mcp.Server, a *app.App) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_summarize",
		Description: "Summarize a YouTube video in a chosen language. Acquires the transcript (captions, authenticated captions, browser or audio transcription), splits long transcripts into overlapping chunks, summarizes each and merges them into one structured summary: title, overview, key points, takeaways, context & implications.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input SummarizeInput) (*mcp.CallToolResult, *app.SummaryReport, error) {
		if input.URL == "" {
			return nil, nil, errors.New("url is required")
		}
		mode, err := summarize.ParseMode(input.Mode)
		if err != nil {
			return nil, nil, err
		}
		rep, err := a.Summarize(ctx, input.URL, toolutil.NormLang(input.Language), mode, logOutcome(input.URL))
		if err != nil {
			return nil, nil, describe(err)
		}
		return nil, rep, nil
	})
}

func registerHistory(server *mcp.Server, a *app.App) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_history",
		Description: "List recent transcript and summary runs with the strategy that succeeded and every attempt. Optionally filter by video.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input HistoryInput) (*mcp.CallToolResult, *HistoryOutput, error) {
		if a.History == nil {
			return nil, nil, errors.New("history is disabled (set HISTORY_PATH or DATABASE_URL)")
		}
		var (
			runs []history.Run
			err  error
		)
		if input.URL != "" {
			ref, nerr := videoref.Normalize(input.URL)
			if nerr != nil {
				return nil, nil, nerr
			}
			runs, err = a.History.ForVideo(ctx, ref.String(), input.Limit)
		} else {
			runs, err = a.History.Recent(ctx, input.Limit)
		}
		if err != nil {
			return nil, nil, err
		}
		return nil, historyOutput(runs), nil
	})
}

func historyOutput(runs []history.Run) *HistoryOutput {
	out := &HistoryOutput{Runs: make([]HistoryEntry, 0, len(runs)), Total: len(runs)}
	for _, r := range runs {
		e := HistoryEntry{
			ID:        r.ID,
			VideoID:   r.VideoID,
			Strategy:  r.Strategy,
			Language:  r.Language,
			Mode:      r.Mode,
			Chars:     r.Chars,
			Summary:   toolutil.Preview(r.Summary, 200),
			CreatedAt: r.CreatedAt.Format(time.RFC3339),
		}
		for _, at := range r.Attempts {
			s := at.Strategy + ": " + at.Result
			if at.Reason != "" {
				s += " (" + at.Reason + ")"
			}
			e.Attempts = append(e.Attempts, s)
		}
		out.Runs = append(out.Runs, e)
	}
	return out
}

// describe turns typed failures into messages that name the failing
// strategy or stage.
func describe(err error) error {
	var (
		acq *transcript.AcquisitionError
		sum *summarize.FailedError
	)
	switch {
	case errors.Is(err, videoref.ErrInvalidReference):
		return fmt.Errorf("not a recognizable YouTube URL or video ID: %w", err)
	case errors.As(err, &acq):
		return fmt.Errorf("transcript unavailable after %d strategies: %w", len(acq.Attempts), err)
	case errors.As(err, &sum):
		return fmt.Errorf("summary failed at the %s stage: %w", sum.Stage, err)
	}
	return err
}
