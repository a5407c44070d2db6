package transcript

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_ytsum/internal/browser"
	"github.com/anatolykoptev/go_ytsum/internal/cookies"
	"github.com/anatolykoptev/go_ytsum/internal/session"
	"github.com/anatolykoptev/go_ytsum/internal/videoref"
)

const testRef = videoref.Ref("dQw4w9WgXcQ")

type fakeTrack struct {
	lang   string
	manual bool
	segs   []string
	err    error
}

func (t fakeTrack) Language() string { return t.lang }
func (t fakeTrack) Manual() bool     { return t.manual }
func (t fakeTrack) Fetch(context.Context) ([]string, error) {
	return t.segs, t.err
}

type fakeListing struct {
	tracks []Track
	err    error
	calls  int
}

func (f *fakeListing) List(context.Context, videoref.Ref) ([]Track, error) {
	f.calls++
	return f.tracks, f.err
}

// fakeAuthListing replays results in order, one per call.
type fakeAuthListing struct {
	results []error
	tracks  []Track
	jars    []*cookies.Jar
}

func (f *fakeAuthListing) ListAuthenticated(_ context.Context, _ videoref.Ref, jar *cookies.Jar) ([]Track, error) {
	f.jars = append(f.jars, jar)
	i := len(f.jars) - 1
	if i < len(f.results) && f.results[i] != nil {
		return nil, f.results[i]
	}
	return f.tracks, nil
}

type fakeJars struct {
	ensureRefreshed bool
	ensureErr       error
	refreshErr      error
	ensures         int
	refreshes       int
	restores        int
}

func (f *fakeJars) Ensure(context.Context) (*cookies.Jar, bool, error) {
	f.ensures++
	if f.ensureErr != nil {
		return nil, false, f.ensureErr
	}
	return cookies.NewJar(cookies.Cookie{Domain: ".youtube.com", Name: "SID", Value: "old", Expires: 1}), f.ensureRefreshed, nil
}

func (f *fakeJars) Refresh(context.Context) (*cookies.Jar, error) {
	f.refreshes++
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return cookies.NewJar(cookies.Cookie{Domain: ".youtube.com", Name: "SID", Value: "new", Expires: 1}), nil
}

func (f *fakeJars) Restore() error {
	f.restores++
	return nil
}

func kinds(outs []Outcome) []string {
	var s []string
	for _, o := range outs {
		s = append(s, o.String())
	}
	return s
}

func TestNativePrefersManualTrack(t *testing.T) {
	e := &Engine{Listing: &fakeListing{tracks: []Track{
		fakeTrack{lang: "en", segs: []string{"auto"}},
		fakeTrack{lang: "de", manual: true, segs: []string{"hallo", "hallo", " welt "}},
		fakeTrack{lang: "fr", manual: true, segs: []string{"bonjour"}},
	}}}

	res, err := e.Acquire(context.Background(), testRef)
	require.NoError(t, err)
	assert.Equal(t, "hallo hallo welt", res.Text, "order kept, repeats kept")
	assert.Equal(t, "de", res.Language)
	assert.Equal(t, NativeAPI, res.Source)
	require.Len(t, res.Attempts, 1)
	assert.Equal(t, Succeeded, res.Attempts[0].Kind)
}

func TestNativeFallsBackToFirstTrack(t *testing.T) {
	e := &Engine{Listing: &fakeListing{tracks: []Track{
		fakeTrack{lang: "ja", segs: []string{"こんにちは"}},
		fakeTrack{lang: "en", segs: []string{"hello"}},
	}}}
	res, err := e.Acquire(context.Background(), testRef)
	require.NoError(t, err)
	assert.Equal(t, "ja", res.Language)
	assert.Equal(t, "こんにちは", res.Text)
}

func TestRateLimitedNativeThenAuthenticatedSuccess(t *testing.T) {
	jars := &fakeJars{}
	e := &Engine{
		Listing:     &fakeListing{err: ErrRateLimited},
		AuthListing: &fakeAuthListing{tracks: []Track{fakeTrack{lang: "en", segs: []string{"a", "b"}}}},
		Jars:        jars,
	}

	res, err := e.Acquire(context.Background(), testRef)
	require.NoError(t, err)
	assert.Equal(t, AuthenticatedAPI, res.Source)
	assert.Equal(t, "a b", res.Text)
	require.Len(t, res.Attempts, 2)
	assert.Equal(t, Outcome{Strategy: NativeAPI, Kind: Failed, Reason: ErrRateLimited.Error(), Err: ErrRateLimited}, res.Attempts[0])
	assert.Equal(t, AuthenticatedAPI, res.Attempts[1].Strategy)
	assert.Equal(t, Succeeded, res.Attempts[1].Kind)
	assert.Zero(t, jars.refreshes)
}

func TestNoCaptionsSkipsAuthenticated(t *testing.T) {
	auth := &fakeAuthListing{}
	e := &Engine{
		Listing:     &fakeListing{err: ErrNoTranscript},
		AuthListing: auth,
		Jars:        &fakeJars{},
	}
	_, err := e.Acquire(context.Background(), testRef)

	var acqErr *AcquisitionError
	require.ErrorAs(t, err, &acqErr)
	assert.Empty(t, auth.jars)
	assert.Equal(t, []string{
		"native_api: failed (no transcript available)",
		"authenticated_api: skipped (video has no captions)",
		"browser_scrape: skipped (no browser configured)",
		"audio_transcription: skipped (no audio pipeline configured)",
	}, kinds(acqErr.Attempts))
	assert.ErrorIs(t, err, ErrNoTranscript)
}

func TestAuthRejectedRefreshesOnce(t *testing.T) {
	jars := &fakeJars{}
	auth := &fakeAuthListing{
		results: []error{ErrAuthRejected},
		tracks:  []Track{fakeTrack{lang: "en", segs: []string{"ok"}}},
	}
	e := &Engine{Listing: &fakeListing{err: ErrRateLimited}, AuthListing: auth, Jars: jars}

	res, err := e.Acquire(context.Background(), testRef)
	require.NoError(t, err)
	assert.Equal(t, AuthenticatedAPI, res.Source)
	assert.Equal(t, 1, jars.refreshes)
	assert.Zero(t, jars.restores)
	require.Len(t, auth.jars, 2)
	sid, _ := auth.jars[1].Get("SID")
	assert.Equal(t, "new", sid.Value, "retry uses refreshed jar")
}

func TestAuthRejectedTwiceIsTerminalAndRestores(t *testing.T) {
	jars := &fakeJars{}
	auth := &fakeAuthListing{results: []error{ErrAuthRejected, ErrAuthRejected, ErrAuthRejected}}
	e := &Engine{Listing: &fakeListing{err: ErrRateLimited}, AuthListing: auth, Jars: jars}

	_, err := e.Acquire(context.Background(), testRef)
	var acqErr *AcquisitionError
	require.ErrorAs(t, err, &acqErr)
	assert.Len(t, auth.jars, 2, "exactly one retry")
	assert.Equal(t, 1, jars.refreshes)
	assert.Equal(t, 1, jars.restores)
	assert.ErrorIs(t, err, ErrAuthRejected)
}

func TestAuthNoSecondRefreshWhenEnsureRefreshed(t *testing.T) {
	jars := &fakeJars{ensureRefreshed: true}
	auth := &fakeAuthListing{results: []error{ErrAuthRejected}}
	e := &Engine{Listing: &fakeListing{err: ErrRateLimited}, AuthListing: auth, Jars: jars}

	_, err := e.Acquire(context.Background(), testRef)
	require.Error(t, err)
	assert.Len(t, auth.jars, 1)
	assert.Zero(t, jars.refreshes)
	assert.Equal(t, 1, jars.restores)
}

func TestSessionFailureRecorded(t *testing.T) {
	boom := errors.New("login wall")
	e := &Engine{
		Listing:     &fakeListing{err: ErrRateLimited},
		AuthListing: &fakeAuthListing{},
		Jars:        &fakeJars{ensureErr: boom},
	}
	_, err := e.Acquire(context.Background(), testRef)
	var acqErr *AcquisitionError
	require.ErrorAs(t, err, &acqErr)
	assert.Equal(t, Failed, acqErr.Attempts[1].Kind)
	assert.ErrorIs(t, err, boom)
}

func TestEmptyTracksAreFailures(t *testing.T) {
	e := &Engine{Listing: &fakeListing{tracks: []Track{fakeTrack{lang: "en", segs: []string{" ", ""}}}}}
	_, err := e.Acquire(context.Background(), testRef)
	assert.ErrorIs(t, err, ErrEmptyTranscript)
}

func TestJoinSegments(t *testing.T) {
	tests := []struct {
		name string
		segs []string
		want string
	}{
		{"ordered", []string{"b", "a", "b"}, "b a b"},
		{"trimmed", []string{" hello\n", "\tworld "}, "hello world"},
		{"blank dropped", []string{"one", "  ", "", "two"}, "one two"},
		{"inner spacing kept", []string{"a  b"}, "a  b"},
		{"all blank", []string{" ", "\n"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, joinSegments(tt.segs))
		})
	}
}

func TestOnOutcomeObservesEveryStep(t *testing.T) {
	var seen []Strategy
	e := &Engine{
		Listing:   &fakeListing{err: ErrRateLimited},
		OnOutcome: func(o Outcome) { seen = append(seen, o.Strategy) },
	}
	_, _ = e.Acquire(context.Background(), testRef)
	assert.Equal(t, []Strategy{NativeAPI, AuthenticatedAPI, BrowserScrape, AudioTranscription}, seen)
}

func TestCanceledContextStopsChain(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l := &fakeListing{}
	_, err := (&Engine{Listing: l}).Acquire(ctx, testRef)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, l.calls)
}

// --- browser scrape ---

type fakeBrowser struct {
	texts   []string
	lang    string
	clicked []string
	jar     *cookies.Jar
	closed  bool
	navErr  error
}

func (f *fakeBrowser) Navigate(context.Context, string) error    { return f.navErr }
func (f *fakeBrowser) WaitVisible(context.Context, string) error { return nil }
func (f *fakeBrowser) Click(_ context.Context, sel string) error {
	f.clicked = append(f.clicked, sel)
	return nil
}
func (f *fakeBrowser) Fill(context.Context, string, string) error { return nil }
func (f *fakeBrowser) Texts(context.Context, string) ([]string, error) {
	return f.texts, nil
}
func (f *fakeBrowser) Attr(_ context.Context, _, _ string) (string, bool, error) {
	return f.lang, f.lang != "", nil
}
func (f *fakeBrowser) ImportCookies(_ context.Context, jar *cookies.Jar) error {
	f.jar = jar
	return nil
}
func (f *fakeBrowser) ExportCookies(context.Context) (*cookies.Jar, error) { return nil, nil }
func (f *fakeBrowser) Close() error                                       { f.closed = true; return nil }

type fakeLauncher struct{ b *fakeBrowser }

func (l fakeLauncher) Launch(context.Context) (browser.Browser, error) { return l.b, nil }

func TestBrowserScrape(t *testing.T) {
	fb := &fakeBrowser{texts: []string{"never gonna", "give you up"}, lang: "en-GB"}
	e := &Engine{
		Listing:  &fakeListing{err: ErrNoTranscript},
		Jars:     &fakeJars{},
		Launcher: fakeLauncher{fb},
	}
	res, err := e.Acquire(context.Background(), testRef)
	require.NoError(t, err)
	assert.Equal(t, BrowserScrape, res.Source)
	assert.Equal(t, "never gonna give you up", res.Text)
	assert.Equal(t, "en", res.Language)
	assert.Equal(t, []string{selShowTranscript}, fb.clicked)
	assert.NotNil(t, fb.jar, "session cookies imported")
	assert.True(t, fb.closed)
}

func TestBrowserScrapeNavigationFailure(t *testing.T) {
	fb := &fakeBrowser{navErr: errors.New("net::ERR_NAME_NOT_RESOLVED")}
	e := &Engine{Launcher: fakeLauncher{fb}}
	_, err := e.Acquire(context.Background(), testRef)
	var acqErr *AcquisitionError
	require.ErrorAs(t, err, &acqErr)
	assert.Contains(t, acqErr.Attempts[2].Reason, "open watch page")
	assert.True(t, fb.closed)
}

type countingAcquirer struct{ calls int }

func (c *countingAcquirer) Name() string { return "counting" }

func (c *countingAcquirer) Acquire(context.Context, session.Credentials) (*cookies.Jar, error) {
	c.calls++
	return cookies.NewJar(cookies.Cookie{
		Domain: ".youtube.com", IncludeSubdomains: true, Path: "/", Secure: true,
		Expires: 1, Name: "SID", Value: "fresh",
	}), nil
}

func TestRejectedSessionIsNotRefreshedAgainByScrape(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	store := cookies.NewStore(filepath.Join(t.TempDir(), "cookies.txt"))
	require.NoError(t, store.Save(cookies.NewJar(cookies.Cookie{
		Domain: ".youtube.com", IncludeSubdomains: true, Path: "/", Secure: true,
		Expires: now.Add(-time.Hour).Unix(), Name: "SID", Value: "stale",
	})))
	acq := &countingAcquirer{}
	m := session.NewManager(store, acq, session.Credentials{}, session.WithClock(func() time.Time { return now }))

	fb := &fakeBrowser{texts: []string{"scraped"}}
	e := &Engine{
		Listing:     &fakeListing{err: ErrRateLimited},
		AuthListing: &fakeAuthListing{results: []error{ErrAuthRejected, ErrAuthRejected}},
		Jars:        m,
		Launcher:    fakeLauncher{fb},
	}

	res, err := e.Acquire(context.Background(), testRef)
	require.NoError(t, err)
	assert.Equal(t, BrowserScrape, res.Source)
	assert.Equal(t, 1, acq.calls, "one login per Acquire")
	assert.Nil(t, fb.jar, "rejected session is not imported")

	jar, err := store.Load()
	require.NoError(t, err)
	sid, _ := jar.Get("SID")
	assert.Equal(t, "stale", sid.Value, "restored generation stays on disk")
}

func TestScrapeReusesSessionFromAuthenticatedStep(t *testing.T) {
	jars := &fakeJars{}
	fb := &fakeBrowser{texts: []string{"scraped"}}
	e := &Engine{
		Listing:     &fakeListing{err: ErrRateLimited},
		AuthListing: &fakeAuthListing{},
		Jars:        jars,
		Launcher:    fakeLauncher{fb},
	}

	res, err := e.Acquire(context.Background(), testRef)
	require.NoError(t, err)
	assert.Equal(t, BrowserScrape, res.Source)
	assert.Equal(t, 1, jars.ensures)
	assert.Zero(t, jars.refreshes)
	require.NotNil(t, fb.jar)
	sid, _ := fb.jar.Get("SID")
	assert.Equal(t, "old", sid.Value)
}

// --- audio ---

type fakeDownloader struct{ dir string }

func (f *fakeDownloader) Download(_ context.Context, id videoref.Ref, dir string) (string, error) {
	f.dir = dir
	p := filepath.Join(dir, id.String()+".webm")
	return p, os.WriteFile(p, []byte("raw audio"), 0o600)
}

type fakeTranscoder struct{ err error }

func (f fakeTranscoder) Transcode(_ context.Context, in, out string) error {
	if f.err != nil {
		return f.err
	}
	if _, err := os.Stat(in); err != nil {
		return err
	}
	return os.WriteFile(out, []byte("mp3"), 0o600)
}

type fakeTranscriber struct {
	text string
	err  error
	path string
}

func (f *fakeTranscriber) Transcribe(_ context.Context, p string) (string, error) {
	f.path = p
	return f.text, f.err
}

func TestAudioTranscriptionCleansUpOnSuccess(t *testing.T) {
	scratch := t.TempDir()
	dl := &fakeDownloader{}
	tr := &fakeTranscriber{text: " spoken words \n"}
	e := &Engine{Downloader: dl, Transcoder: fakeTranscoder{}, Transcriber: tr, ScratchDir: scratch}

	res, err := e.Acquire(context.Background(), testRef)
	require.NoError(t, err)
	assert.Equal(t, AudioTranscription, res.Source)
	assert.Equal(t, "spoken words", res.Text)
	assert.Equal(t, DefaultLanguage, res.Language)
	assert.Equal(t, filepath.Join(dl.dir, "dQw4w9WgXcQ-mono.mp3"), tr.path)

	assert.NoDirExists(t, dl.dir)
	entries, err := os.ReadDir(scratch)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAudioTranscriptionCleansUpOnFailure(t *testing.T) {
	for name, e := range map[string]*Engine{
		"transcode": {Transcoder: fakeTranscoder{err: errors.New("ffmpeg exit 1")}, Transcriber: &fakeTranscriber{text: "x"}},
		"transcribe": {Transcoder: fakeTranscoder{}, Transcriber: &fakeTranscriber{err: errors.New("413")}},
		"empty":      {Transcoder: fakeTranscoder{}, Transcriber: &fakeTranscriber{text: "  "}},
	} {
		t.Run(name, func(t *testing.T) {
			scratch := t.TempDir()
			dl := &fakeDownloader{}
			e.Downloader, e.ScratchDir = dl, scratch

			_, err := e.Acquire(context.Background(), testRef)
			require.Error(t, err)
			assert.NoDirExists(t, dl.dir)
			entries, rerr := os.ReadDir(scratch)
			require.NoError(t, rerr)
			assert.Empty(t, entries)
		})
	}
}

func TestStrategyStrings(t *testing.T) {
	assert.Equal(t, "native_api", NativeAPI.String())
	assert.Equal(t, "audio_transcription", AudioTranscription.String())
	assert.Equal(t, "skipped", Skipped.String())
	assert.Equal(t, "en", primaryTag("EN-us"))
	assert.Equal(t, "pt", primaryTag("pt_BR"))
}
