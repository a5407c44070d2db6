package transcript

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/anatolykoptev/go_ytsum/internal/browser"
	"github.com/anatolykoptev/go_ytsum/internal/cookies"
	"github.com/anatolykoptev/go_ytsum/internal/engine"
	"github.com/anatolykoptev/go_ytsum/internal/videoref"
)

// Transcript panel selectors on the watch page.
const (
	selShowTranscript = `button[aria-label="Show transcript"]`
	selSegmentText    = ".segment-text"
)

// Engine runs the strategy chain. Nil capabilities skip their strategy.
type Engine struct {
	Listing     Listing
	AuthListing AuthListing
	Jars        JarSource
	Launcher    browser.Launcher
	Downloader  Downloader
	Transcoder  Transcoder
	Transcriber Transcriber

	// ScratchDir is the parent of per-call audio directories; "" uses os.TempDir.
	ScratchDir string
	// OnOutcome, when set, observes every outcome as it is recorded.
	OnOutcome func(Outcome)
}

// attempt is the state of one Acquire call.
type attempt struct {
	ref      videoref.Ref
	outcomes []Outcome
	onOut    func(Outcome)

	// sessionUsed is set once the jar source has been consulted. Later
	// steps reuse jar instead of asking again, so one Acquire never
	// triggers more than one login.
	sessionUsed bool
	jar         *cookies.Jar // nil after the session was rejected
}

func (a *attempt) record(o Outcome) {
	a.outcomes = append(a.outcomes, o)
	switch o.Kind {
	case Failed:
		engine.IncrStrategyFailure()
		slog.Warn("transcript: strategy failed",
			slog.String("video", a.ref.String()),
			slog.String("strategy", o.Strategy.String()),
			slog.String("reason", o.Reason))
	case Skipped:
		engine.IncrStrategySkip()
		slog.Debug("transcript: strategy skipped",
			slog.String("video", a.ref.String()),
			slog.String("strategy", o.Strategy.String()),
			slog.String("reason", o.Reason))
	case Succeeded:
		engine.IncrStrategyWin(o.Strategy.String())
	}
	if a.onOut != nil {
		a.onOut(o)
	}
}

func (a *attempt) fail(s Strategy, err error) {
	a.record(Outcome{Strategy: s, Kind: Failed, Reason: err.Error(), Err: err})
}

func (a *attempt) skip(s Strategy, reason string) {
	a.record(Outcome{Strategy: s, Kind: Skipped, Reason: reason, Err: ErrNotConfigured})
}

// Acquire returns the transcript of ref from the first strategy that
// succeeds. When all fail it returns *AcquisitionError with every outcome.
func (e *Engine) Acquire(ctx context.Context, ref videoref.Ref) (*Result, error) {
	engine.IncrTranscriptRequests()
	a := &attempt{ref: ref, onOut: e.OnOutcome}

	steps := []struct {
		strategy Strategy
		run      func(context.Context, *attempt) (text, lang string, err error)
	}{
		{NativeAPI, e.native},
		{AuthenticatedAPI, e.authenticated},
		{BrowserScrape, e.scrape},
		{AudioTranscription, e.audio},
	}
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, lang, err := s.run(ctx, a)
		if errors.Is(err, errSkipped) {
			continue
		}
		if err != nil {
			a.fail(s.strategy, err)
			continue
		}
		a.record(Outcome{Strategy: s.strategy, Kind: Succeeded})
		slog.Info("transcript: acquired",
			slog.String("video", ref.String()),
			slog.String("strategy", s.strategy.String()),
			slog.String("language", lang),
			slog.Int("chars", len(text)))
		return &Result{VideoID: ref, Text: text, Language: lang, Source: s.strategy, Attempts: a.outcomes}, nil
	}

	engine.IncrTranscriptFailures()
	return nil, &AcquisitionError{VideoID: ref, Attempts: a.outcomes}
}

// errSkipped tells Acquire the step already recorded a skip.
var errSkipped = errors.New("skipped")

func (e *Engine) native(ctx context.Context, a *attempt) (string, string, error) {
	if e.Listing == nil {
		a.skip(NativeAPI, "no listing provider")
		return "", "", errSkipped
	}
	tracks, err := e.Listing.List(ctx, a.ref)
	if err != nil {
		return "", "", err
	}
	return fromTracks(ctx, tracks)
}

// authenticated retries the listing with the session jar. It only runs when
// the public listing failed for a reason other than missing captions.
func (e *Engine) authenticated(ctx context.Context, a *attempt) (string, string, error) {
	if e.AuthListing == nil || e.Jars == nil {
		a.skip(AuthenticatedAPI, "no authenticated provider")
		return "", "", errSkipped
	}
	if last := a.last(NativeAPI); last != nil && last.Kind == Failed && errors.Is(last.Err, ErrNoTranscript) {
		a.skip(AuthenticatedAPI, "video has no captions")
		return "", "", errSkipped
	}

	a.sessionUsed = true
	jar, refreshed, err := e.Jars.Ensure(ctx)
	if err != nil {
		return "", "", fmt.Errorf("session: %w", err)
	}
	a.jar = jar

	try := func(jar *cookies.Jar) (string, string, error) {
		tracks, err := e.AuthListing.ListAuthenticated(ctx, a.ref, jar)
		if err != nil {
			return "", "", err
		}
		return fromTracks(ctx, tracks)
	}

	text, lang, err := try(jar)
	if errors.Is(err, ErrAuthRejected) && !refreshed {
		slog.Info("transcript: session rejected, refreshing once", slog.String("video", a.ref.String()))
		jar, rerr := e.Jars.Refresh(ctx)
		if rerr != nil {
			return "", "", fmt.Errorf("session refresh: %w", rerr)
		}
		refreshed = true
		a.jar = jar
		text, lang, err = try(jar)
	}
	if errors.Is(err, ErrAuthRejected) {
		a.jar = nil
	}
	if err != nil && refreshed {
		e.restoreJar()
	}
	return text, lang, err
}

// restoreJar reverts the cookie file after a refreshed jar failed.
func (e *Engine) restoreJar() {
	if err := e.Jars.Restore(); err != nil {
		slog.Debug("transcript: no cookie backup to restore", slog.Any("error", err))
		return
	}
	engine.IncrCookieRestore()
	slog.Info("transcript: restored previous cookie jar")
}

// scrape reads the rendered transcript panel in a headless browser.
func (e *Engine) scrape(ctx context.Context, a *attempt) (text, lang string, err error) {
	if e.Launcher == nil {
		a.skip(BrowserScrape, "no browser configured")
		return "", "", errSkipped
	}
	br, err := e.Launcher.Launch(ctx)
	if err != nil {
		return "", "", fmt.Errorf("launch browser: %w", err)
	}
	defer br.Close()

	if jar := e.scrapeJar(ctx, a); jar != nil {
		if ierr := br.ImportCookies(ctx, jar); ierr != nil {
			slog.Warn("transcript: cookie import failed", slog.Any("error", ierr))
		}
	}

	if err := br.Navigate(ctx, a.ref.WatchURL()); err != nil {
		return "", "", fmt.Errorf("open watch page: %w", err)
	}
	if err := br.Click(ctx, selShowTranscript); err != nil {
		return "", "", fmt.Errorf("open transcript panel: %w", err)
	}
	if err := br.WaitVisible(ctx, selSegmentText); err != nil {
		return "", "", fmt.Errorf("wait for segments: %w", err)
	}
	segs, err := br.Texts(ctx, selSegmentText)
	if err != nil {
		return "", "", fmt.Errorf("read segments: %w", err)
	}
	text = joinSegments(segs)
	if text == "" {
		return "", "", ErrEmptyTranscript
	}

	lang = DefaultLanguage
	if v, ok, aerr := br.Attr(ctx, "html", "lang"); aerr == nil && ok {
		if code := primaryTag(v); code != "" {
			lang = code
		}
	}
	return text, lang, nil
}

// scrapeJar returns the jar for the browser, or nil to scrape anonymously.
// The jar source is only consulted when no earlier step did.
func (e *Engine) scrapeJar(ctx context.Context, a *attempt) *cookies.Jar {
	if e.Jars == nil {
		return nil
	}
	if a.sessionUsed {
		if a.jar == nil {
			slog.Debug("transcript: session rejected earlier, scraping anonymously")
		}
		return a.jar
	}
	a.sessionUsed = true
	jar, _, err := e.Jars.Ensure(ctx)
	if err != nil {
		slog.Warn("transcript: scraping without session", slog.Any("error", err))
		return nil
	}
	a.jar = jar
	return jar
}

// primaryTag returns the lowercased primary subtag of a BCP 47 tag ("en-US" → "en").
func primaryTag(tag string) string {
	tag = strings.TrimSpace(tag)
	if i := strings.IndexAny(tag, "-_"); i >= 0 {
		tag = tag[:i]
	}
	return strings.ToLower(tag)
}

// audio downloads, transcodes and transcribes the video's audio. Every
// artifact lives in a per-call scratch directory removed on return.
func (e *Engine) audio(ctx context.Context, a *attempt) (string, string, error) {
	if e.Downloader == nil || e.Transcoder == nil || e.Transcriber == nil {
		a.skip(AudioTranscription, "no audio pipeline configured")
		return "", "", errSkipped
	}

	dir, err := os.MkdirTemp(e.ScratchDir, "ytsum-audio-")
	if err != nil {
		return "", "", fmt.Errorf("scratch dir: %w", err)
	}
	defer func() {
		if rerr := os.RemoveAll(dir); rerr != nil {
			slog.Warn("transcript: scratch cleanup failed", slog.String("dir", dir), slog.Any("error", rerr))
		}
	}()

	raw, err := e.Downloader.Download(ctx, a.ref, dir)
	if err != nil {
		return "", "", fmt.Errorf("download audio: %w", err)
	}
	mp3 := filepath.Join(dir, a.ref.String()+"-mono.mp3")
	if err := e.Transcoder.Transcode(ctx, raw, mp3); err != nil {
		return "", "", fmt.Errorf("transcode audio: %w", err)
	}
	text, err := e.Transcriber.Transcribe(ctx, mp3)
	if err != nil {
		return "", "", fmt.Errorf("transcribe audio: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", "", ErrEmptyTranscript
	}
	return text, DefaultLanguage, nil
}

func (a *attempt) last(s Strategy) *Outcome {
	for i := len(a.outcomes) - 1; i >= 0; i-- {
		if a.outcomes[i].Strategy == s {
			return &a.outcomes[i]
		}
	}
	return nil
}
