package app

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_ytsum/internal/engine"
	"github.com/anatolykoptev/go_ytsum/internal/history"
	"github.com/anatolykoptev/go_ytsum/internal/session"
	"github.com/anatolykoptev/go_ytsum/internal/summarize"
	"github.com/anatolykoptev/go_ytsum/internal/transcript"
	"github.com/anatolykoptev/go_ytsum/internal/videoref"
)

type staticTrack struct{ segs []string }

func (staticTrack) Language() string                          { return "en" }
func (staticTrack) Manual() bool                              { return true }
func (t staticTrack) Fetch(context.Context) ([]string, error) { return t.segs, nil }

type countingListing struct {
	calls int
	err   error
}

func (l *countingListing) List(context.Context, videoref.Ref) ([]transcript.Track, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	return []transcript.Track{staticTrack{segs: []string{"never gonna", "give you up"}}}, nil
}

type echoChat struct{ calls int }

func (c *echoChat) Complete(_ context.Context, system, _ string) (string, error) {
	c.calls++
	return "🎯 TITLE: summary\n" + system[:10], nil
}

func newTestApp(t *testing.T, listing transcript.Listing, chat summarize.ChatService) *App {
	t.Helper()
	hist, err := history.OpenSQLite(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	a := &App{
		Engine:     &transcript.Engine{Listing: listing},
		Summarizer: summarize.New(chat, nil),
		Cache:      engine.NewCache("", time.Minute, 100, time.Hour),
		History:    hist,
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestTranscriptCachesAndRecords(t *testing.T) {
	listing := &countingListing{}
	a := newTestApp(t, listing, &echoChat{})
	ctx := context.Background()

	var seen []string
	rep, err := a.Transcript(ctx, "https://youtu.be/dQw4w9WgXcQ?t=42", func(o transcript.Outcome) {
		seen = append(seen, o.String())
	})
	require.NoError(t, err)
	assert.Equal(t, "dQw4w9WgXcQ", rep.VideoID)
	assert.Equal(t, "never gonna give you up", rep.Text)
	assert.Equal(t, "native_api", rep.Source)
	assert.False(t, rep.Cached)
	assert.Equal(t, []string{"native_api: success"}, seen)

	again, err := a.Transcript(ctx, "dQw4w9WgXcQ", nil)
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, rep.Text, again.Text)
	assert.Equal(t, 1, listing.calls)

	runs, err := a.History.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1, "cache hits are not recorded")
	assert.Equal(t, "native_api", runs[0].Strategy)
	assert.Equal(t, []history.Attempt{{Strategy: "native_api", Result: "success"}}, runs[0].Attempts)
}

func TestTranscriptInvalidReference(t *testing.T) {
	a := newTestApp(t, &countingListing{}, &echoChat{})
	_, err := a.Transcript(context.Background(), "https://example.com/nope", nil)
	assert.ErrorIs(t, err, videoref.ErrInvalidReference)
}

func TestTranscriptAcquisitionFailure(t *testing.T) {
	listing := &countingListing{err: transcript.ErrNoTranscript}
	a := newTestApp(t, listing, &echoChat{})
	_, err := a.Transcript(context.Background(), "dQw4w9WgXcQ", nil)

	var ae *transcript.AcquisitionError
	require.ErrorAs(t, err, &ae)
	assert.ErrorIs(t, err, transcript.ErrNoTranscript)
}

func TestSummarizeFlow(t *testing.T) {
	chat := &echoChat{}
	a := newTestApp(t, &countingListing{}, chat)
	ctx := context.Background()

	rep, err := a.Summarize(ctx, "dQw4w9WgXcQ", "DE", summarize.Podcast, nil)
	require.NoError(t, err)
	assert.Equal(t, "de", rep.Language)
	assert.Equal(t, "podcast", rep.Mode)
	assert.Equal(t, 1, rep.Chunks)
	assert.Equal(t, 1, rep.Calls)
	assert.True(t, strings.HasPrefix(rep.Summary, "🎯"))

	again, err := a.Summarize(ctx, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "de", summarize.Podcast, nil)
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, 1, chat.calls)

	runs, err := a.History.ForVideo(ctx, "dQw4w9WgXcQ", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "podcast", runs[0].Mode)
	assert.Equal(t, rep.Summary, runs[0].Summary)
}

func TestSummarizeFailureIsTyped(t *testing.T) {
	a := newTestApp(t, &countingListing{}, failingChat{})
	_, err := a.Summarize(context.Background(), "dQw4w9WgXcQ", "en", summarize.Standard, nil)

	var fe *summarize.FailedError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, summarize.StageMap, fe.Stage)
}

type failingChat struct{}

func (failingChat) Complete(context.Context, string, string) (string, error) {
	return "", errors.New("invalid request")
}

func TestNewAcquirer(t *testing.T) {
	acq, err := NewAcquirer(engine.Config{SessionMethod: engine.SessionSynthetic}, nil)
	require.NoError(t, err)
	assert.Equal(t, "synthetic", acq.Name())

	acq, err = NewAcquirer(engine.Config{SessionMethod: engine.SessionHTTP, LoginURL: "https://id.example.com/login"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &session.HTTPLogin{}, acq)

	acq, err = NewAcquirer(engine.Config{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "browser", acq.Name())

	_, err = NewAcquirer(engine.Config{SessionMethod: "carrier-pigeon"}, nil)
	assert.Error(t, err)
}
