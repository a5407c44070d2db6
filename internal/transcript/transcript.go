// Package transcript acquires the spoken-word text of a video through an
// ordered chain of strategies, recording the outcome of every attempt.
package transcript

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anatolykoptev/go_ytsum/internal/cookies"
	"github.com/anatolykoptev/go_ytsum/internal/videoref"
)

// DefaultLanguage is reported when a strategy cannot tell the language.
const DefaultLanguage = "en"

// Provider sentinels. Implementations wrap these so the engine can route.
var (
	ErrNoTranscript    = errors.New("no transcript available")
	ErrRateLimited     = errors.New("rate limited")
	ErrAuthRejected    = errors.New("session rejected by provider")
	ErrEmptyTranscript = errors.New("transcript is empty")
	ErrNotConfigured   = errors.New("strategy not configured")
)

// Strategy identifies one acquisition method.
type Strategy int

const (
	NativeAPI Strategy = iota
	AuthenticatedAPI
	BrowserScrape
	AudioTranscription
)

var strategyNames = [...]string{"native_api", "authenticated_api", "browser_scrape", "audio_transcription"}

func (s Strategy) String() string {
	if int(s) < len(strategyNames) {
		return strategyNames[s]
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// Kind classifies an Outcome.
type Kind int

const (
	Succeeded Kind = iota
	Failed
	Skipped
)

func (k Kind) String() string {
	switch k {
	case Succeeded:
		return "success"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Outcome records what one strategy did.
type Outcome struct {
	Strategy Strategy
	Kind     Kind
	Reason   string
	Err      error
}

func (o Outcome) String() string {
	if o.Reason == "" {
		return o.Strategy.String() + ": " + o.Kind.String()
	}
	return fmt.Sprintf("%s: %s (%s)", o.Strategy, o.Kind, o.Reason)
}

// Result is a successfully acquired transcript.
type Result struct {
	VideoID  videoref.Ref
	Text     string
	Language string
	Source   Strategy
	Attempts []Outcome
}

// AcquisitionError reports that every strategy failed or was skipped.
type AcquisitionError struct {
	VideoID  videoref.Ref
	Attempts []Outcome
}

func (e *AcquisitionError) Error() string {
	parts := make([]string, len(e.Attempts))
	for i, o := range e.Attempts {
		parts[i] = o.String()
	}
	return fmt.Sprintf("no transcript for %s: %s", e.VideoID, strings.Join(parts, "; "))
}

// Unwrap exposes every attempt's cause to errors.Is and errors.As.
func (e *AcquisitionError) Unwrap() []error {
	var errs []error
	for _, o := range e.Attempts {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errs
}

// Track is one caption track offered by a listing.
type Track interface {
	Language() string
	Manual() bool
	// Fetch returns the track's text segments in playback order.
	Fetch(ctx context.Context) ([]string, error)
}

// Listing lists caption tracks without authentication.
type Listing interface {
	List(ctx context.Context, id videoref.Ref) ([]Track, error)
}

// AuthListing lists caption tracks with a session cookie jar attached.
type AuthListing interface {
	ListAuthenticated(ctx context.Context, id videoref.Ref, jar *cookies.Jar) ([]Track, error)
}

// JarSource hands out validated cookie jars. Implemented by session.Manager.
type JarSource interface {
	Ensure(ctx context.Context) (jar *cookies.Jar, refreshed bool, err error)
	Refresh(ctx context.Context) (*cookies.Jar, error)
	Restore() error
}

// Downloader fetches the best audio-only stream of a video into dir.
type Downloader interface {
	Download(ctx context.Context, id videoref.Ref, dir string) (path string, err error)
}

// Transcoder converts an audio file to compressed mono speech audio.
type Transcoder interface {
	Transcode(ctx context.Context, in, out string) error
}

// Transcriber turns an audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// pickTrack prefers the first manual track, otherwise the first track.
func pickTrack(tracks []Track) Track {
	for _, t := range tracks {
		if t.Manual() {
			return t
		}
	}
	return tracks[0]
}

// joinSegments joins segments with single spaces in their original order.
// Each segment is trimmed and blank ones are dropped, so exactly one space
// separates segments. Segments are neither reordered nor deduplicated.
func joinSegments(segs []string) string {
	var sb strings.Builder
	for _, s := range segs {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(s)
	}
	return sb.String()
}

// fromTracks picks a track from tracks and fetches its text.
func fromTracks(ctx context.Context, tracks []Track) (text, lang string, err error) {
	if len(tracks) == 0 {
		return "", "", ErrNoTranscript
	}
	t := pickTrack(tracks)
	segs, err := t.Fetch(ctx)
	if err != nil {
		return "", "", fmt.Errorf("fetch %s track: %w", t.Language(), err)
	}
	text = joinSegments(segs)
	if text == "" {
		return "", "", ErrEmptyTranscript
	}
	lang = t.Language()
	if lang == "" {
		lang = DefaultLanguage
	}
	return text, lang, nil
}
