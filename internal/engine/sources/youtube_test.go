package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anatolykoptev/go_ytsum/internal/cookies"
	"github.com/anatolykoptev/go_ytsum/internal/engine"
	"github.com/anatolykoptev/go_ytsum/internal/transcript"
	"github.com/anatolykoptev/go_ytsum/internal/videoref"
)

const testVideo = videoref.Ref("dQw4w9WgXcQ")

const sampleTimedText = `<?xml version="1.0" encoding="utf-8" ?><transcript>
<text start="0.5" dur="2">Hello &amp;amp; welcome</text>
<text start="2.5" dur="1">  to the
show </text>
<text start="4" dur="1"></text>
<text start="5" dur="1">Hello &amp;amp; welcome</text>
</transcript>`

const sampleGetTranscript = `{"actions":[{"updateEngagementPanelAction":{"content":{"transcriptRenderer":{"content":{"transcriptSearchPanelRenderer":{"body":{"transcriptSegmentListRenderer":{"initialSegments":[
{"transcriptSegmentRenderer":{"snippet":{"runs":[{"text":"first "},{"text":"line"}]}}},
{"transcriptSegmentRenderer":{"snippet":{"runs":[{"text":"second line"}]}}}
]}}}}}}}}]}`

// fakeYouTube serves a watch page, timedtext and the engagement panel endpoints.
type fakeYouTube struct {
	srv          *httptest.Server
	playerJSON   func(base string) string
	watchStatus  int
	consent      bool
	cookieHeader atomic.Value
	watchHits    atomic.Int32
	playerHits   atomic.Int32
	nextHits     atomic.Int32
	tokenSeen    atomic.Value
}

func newFakeYouTube(t *testing.T, player func(base string) string) *fakeYouTube {
	t.Helper()
	f := &fakeYouTube{playerJSON: player, watchStatus: http.StatusOK}
	mux := http.NewServeMux()
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		f.watchHits.Add(1)
		f.cookieHeader.Store(r.Header.Get("Cookie"))
		if f.watchStatus != http.StatusOK {
			w.WriteHeader(f.watchStatus)
			return
		}
		if f.consent {
			fmt.Fprint(w, `<form action="https://consent.youtube.com/save" method="POST"></form>`)
			return
		}
		fmt.Fprintf(w, `<html><script>var ytInitialPlayerResponse = %s;var meta = {};</script></html>`, f.playerJSON(f.srv.URL))
	})
	mux.HandleFunc("/api/timedtext", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("empty") == "1" {
			return
		}
		fmt.Fprint(w, sampleTimedText)
	})
	mux.HandleFunc("/youtubei/v1/player", func(w http.ResponseWriter, _ *http.Request) {
		f.playerHits.Add(1)
		fmt.Fprint(w, f.playerJSON(f.srv.URL))
	})
	mux.HandleFunc("/youtubei/v1/next", func(w http.ResponseWriter, _ *http.Request) {
		f.nextHits.Add(1)
		fmt.Fprint(w, `{"engagementPanels":[{"x":{"continuation":{"getTranscriptEndpoint":{"params":"Cgt0b2tlbg%3D%3D"}}}}]}`)
	})
	mux.HandleFunc("/youtubei/v1/get_transcript", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.tokenSeen.Store(string(body))
		fmt.Fprint(w, sampleGetTranscript)
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeYouTube) provider() *YouTube {
	y := NewYouTube(f.srv.Client(), nil)
	y.base = f.srv.URL
	y.retry = engine.RetryConfig{MaxRetries: 1, InitialWait: time.Millisecond, MaxWait: time.Millisecond, Multiplier: 1}
	y.backoff = time.Millisecond
	y.now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	return y
}

func captionsJSON(tracks ...string) func(string) string {
	return func(base string) string {
		var parts []string
		for _, tr := range tracks {
			parts = append(parts, strings.ReplaceAll(tr, "BASE", base))
		}
		return `{"playabilityStatus":{"status":"OK"},"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[` +
			strings.Join(parts, ",") + `]}}}`
	}
}

const (
	asrEN     = `{"baseUrl":"BASE/api/timedtext?v=dQw4w9WgXcQ&lang=en&kind=asr","languageCode":"en","kind":"asr"}`
	manualDE  = `{"baseUrl":"BASE/api/timedtext?v=dQw4w9WgXcQ&lang=de","languageCode":"de"}`
	poToken   = `{"baseUrl":"BASE/api/timedtext?v=dQw4w9WgXcQ&lang=en&exp=xpe","languageCode":"en"}`
	emptyEN   = `{"baseUrl":"BASE/api/timedtext?v=dQw4w9WgXcQ&lang=en&empty=1","languageCode":"en"}`
	poTokenDE = `{"baseUrl":"BASE/api/timedtext?v=dQw4w9WgXcQ&lang=de&exp=xpe","languageCode":"de"}`
)

func TestListFromWatchPage(t *testing.T) {
	f := newFakeYouTube(t, captionsJSON(asrEN, manualDE))
	tracks, err := f.provider().List(context.Background(), testVideo)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("got %d tracks, want 2", len(tracks))
	}
	if tracks[0].Manual() || tracks[0].Language() != "en" {
		t.Errorf("track 0 = %s manual=%v, want auto en", tracks[0].Language(), tracks[0].Manual())
	}
	if !tracks[1].Manual() || tracks[1].Language() != "de" {
		t.Errorf("track 1 = %s manual=%v, want manual de", tracks[1].Language(), tracks[1].Manual())
	}

	segs, err := tracks[1].Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	want := []string{"Hello & welcome", "to the show", "Hello & welcome"}
	if strings.Join(segs, "|") != strings.Join(want, "|") {
		t.Errorf("segments = %q, want %q", segs, want)
	}
}

func TestListNoCaptions(t *testing.T) {
	f := newFakeYouTube(t, func(string) string { return `{"playabilityStatus":{"status":"OK"}}` })
	_, err := f.provider().List(context.Background(), testVideo)
	if !errors.Is(err, transcript.ErrNoTranscript) {
		t.Fatalf("err = %v, want ErrNoTranscript", err)
	}
	if f.playerHits.Load() != 0 {
		t.Error("no-captions answer must not fall back to the player endpoint")
	}
}

func TestListLoginRequiredIsRateLimited(t *testing.T) {
	f := newFakeYouTube(t, func(string) string {
		return `{"playabilityStatus":{"status":"LOGIN_REQUIRED","reason":"Sign in to confirm you're not a bot"}}`
	})
	_, err := f.provider().List(context.Background(), testVideo)
	if !errors.Is(err, transcript.ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
	if f.playerHits.Load() != 1 {
		t.Errorf("player fallback hits = %d, want 1", f.playerHits.Load())
	}
}

func TestListConsentWall(t *testing.T) {
	f := newFakeYouTube(t, captionsJSON(asrEN))
	f.consent = true
	tracks, err := f.provider().List(context.Background(), testVideo)
	if err != nil {
		t.Fatalf("player fallback should rescue consent wall: %v", err)
	}
	if len(tracks) != 1 {
		t.Errorf("got %d tracks", len(tracks))
	}
}

func TestList429(t *testing.T) {
	f := newFakeYouTube(t, func(string) string { return `{}` })
	f.watchStatus = http.StatusTooManyRequests
	_, err := f.provider().List(context.Background(), testVideo)
	if !errors.Is(err, transcript.ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
}

func TestPoTokenTrackUsesEngagementPanel(t *testing.T) {
	f := newFakeYouTube(t, captionsJSON(poToken))
	tracks, err := f.provider().List(context.Background(), testVideo)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	segs, err := tracks[0].Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if strings.Join(segs, "|") != "first line|second line" {
		t.Errorf("segments = %q", segs)
	}
	if tok, _ := f.tokenSeen.Load().(string); !strings.Contains(tok, `"params":"Cgt0b2tlbg=="`) {
		t.Errorf("get_transcript body = %s, want decoded params", tok)
	}
}

func TestEngagementPanelReportsDefaultLanguage(t *testing.T) {
	f := newFakeYouTube(t, captionsJSON(poTokenDE))
	tracks, err := f.provider().List(context.Background(), testVideo)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got := tracks[0].Language(); got != "de" {
		t.Fatalf("Language before Fetch = %q, want de", got)
	}
	if _, err := tracks[0].Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got := tracks[0].Language(); got != transcript.DefaultLanguage {
		t.Errorf("Language after panel Fetch = %q, want %q", got, transcript.DefaultLanguage)
	}
}

func TestEmptyTimedTextFallsBackToEngagementPanel(t *testing.T) {
	f := newFakeYouTube(t, captionsJSON(emptyEN))
	tracks, err := f.provider().List(context.Background(), testVideo)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if _, err := tracks[0].Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if f.nextHits.Load() != 1 {
		t.Errorf("/next hits = %d, want 1", f.nextHits.Load())
	}
}

func TestListAuthenticatedSendsCookies(t *testing.T) {
	f := newFakeYouTube(t, captionsJSON(manualDE))
	jar := cookies.NewJar(
		cookies.Cookie{Domain: "127.0.0.1", Path: "/", Name: "SID", Value: "abc"},
		cookies.Cookie{Domain: "127.0.0.1", Path: "/", Name: "OLD", Value: "x", Expires: 1},
		cookies.Cookie{Domain: ".youtube.com", IncludeSubdomains: true, Name: "OTHER", Value: "y"},
	)
	tracks, err := f.provider().ListAuthenticated(context.Background(), testVideo, jar)
	if err != nil {
		t.Fatalf("ListAuthenticated: %v", err)
	}
	if got, _ := f.cookieHeader.Load().(string); got != "SID=abc" {
		t.Errorf("Cookie header = %q, want %q", got, "SID=abc")
	}
	if _, err := tracks[0].Fetch(context.Background()); err != nil {
		t.Errorf("Fetch: %v", err)
	}
}

func TestListAuthenticatedRejected(t *testing.T) {
	f := newFakeYouTube(t, func(string) string {
		return `{"playabilityStatus":{"status":"LOGIN_REQUIRED","reason":"Sign in"}}`
	})
	jar := cookies.NewJar(cookies.Cookie{Domain: "127.0.0.1", Name: "SID", Value: "abc"})
	_, err := f.provider().ListAuthenticated(context.Background(), testVideo, jar)
	if !errors.Is(err, transcript.ErrAuthRejected) {
		t.Fatalf("err = %v, want ErrAuthRejected", err)
	}

	f.watchStatus = http.StatusForbidden
	_, err = f.provider().ListAuthenticated(context.Background(), testVideo, jar)
	if !errors.Is(err, transcript.ErrAuthRejected) {
		t.Fatalf("403 err = %v, want ErrAuthRejected", err)
	}
}

func TestListAuthenticatedEmptyJar(t *testing.T) {
	f := newFakeYouTube(t, captionsJSON(manualDE))
	_, err := f.provider().ListAuthenticated(context.Background(), testVideo, cookies.NewJar())
	if !errors.Is(err, transcript.ErrAuthRejected) {
		t.Fatalf("err = %v, want ErrAuthRejected", err)
	}
	if f.watchHits.Load() != 0 {
		t.Error("empty jar must not reach the network")
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`{"a":1};var x`, `{"a":1}`},
		{`{"a":"}\"{"};`, `{"a":"}\"{"}`},
		{`{"a":"\\"};rest`, `{"a":"\\"}`},
		{`{"a":{"b":{}}}}`, `{"a":{"b":{}}}`},
		{`not json`, ``},
		{`{"open":`, ``},
	}
	for _, tt := range tests {
		if got := string(extractJSON([]byte(tt.in))); got != tt.want {
			t.Errorf("extractJSON(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNeedsPoToken(t *testing.T) {
	if !needsPoToken("https://www.youtube.com/api/timedtext?v=x&exp=xpe") {
		t.Error("exp=xpe should need PoToken")
	}
	if needsPoToken("https://www.youtube.com/api/timedtext?v=x&lang=en") {
		t.Error("plain track should not need PoToken")
	}
}
