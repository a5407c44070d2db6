package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/anatolykoptev/go_ytsum/internal/engine"
	"github.com/anatolykoptev/go_ytsum/internal/transcript"
	"github.com/anatolykoptev/go_ytsum/internal/videoref"
)

// YouTube lists and fetches caption tracks through the watch page and the
// Innertube API. It implements transcript.Listing and transcript.AuthListing.
type YouTube struct {
	http    *http.Client
	stealth *engine.BrowserClient // nil = cookie-bearing calls use http too
	base    string
	retry   engine.RetryConfig
	backoff time.Duration // first timedtext retry interval
	now     func() time.Time
}

// NewYouTube returns a provider using httpClient for anonymous calls and
// stealth (optional) for calls that carry session cookies.
func NewYouTube(httpClient *http.Client, stealth *engine.BrowserClient) *YouTube {
	return &YouTube{
		http:    httpClient,
		stealth: stealth,
		base:    ytOrigin,
		retry:   engine.DefaultRetryConfig,
		backoff: time.Second,
		now:     time.Now,
	}
}

// List returns the public caption tracks of id in listing order.
// Primary:  watch page ytInitialPlayerResponse → captionTracks
// Fallback: ANDROID Innertube /player → captionTracks
func (y *YouTube) List(ctx context.Context, id videoref.Ref) ([]transcript.Track, error) {
	s := session{}
	tracks, err := y.listFromWatchPage(ctx, s, id)
	if err == nil || errors.Is(err, transcript.ErrNoTranscript) {
		return tracks, err
	}
	slog.Warn("youtube: watch page failed, trying player",
		slog.String("id", id.String()), slog.Any("error", err))

	tracks, perr := y.listFromPlayer(ctx, id)
	if perr != nil {
		return nil, fmt.Errorf("%w; player fallback: %v", err, perr)
	}
	return tracks, nil
}

// ytInitialPlayerResponseMarker marks the start of the player response JSON in watch page HTML.
const ytInitialPlayerResponseMarker = "ytInitialPlayerResponse = "

// consentMarker appears on the cookie-consent interstitial served instead of the watch page.
const consentMarker = `action="https://consent.youtube.com`

func (y *YouTube) listFromWatchPage(ctx context.Context, s session, id videoref.Ref) ([]transcript.Track, error) {
	body, err := y.get(ctx, s, y.base+"/watch?v="+id.String(), map[string]string{
		"Accept": "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	})
	if err != nil {
		return nil, classify(fmt.Errorf("watch page: %w", err), s.cookie != "")
	}
	if bytes.Contains(body, []byte(consentMarker)) {
		return nil, wall(s, "consent interstitial")
	}

	idx := bytes.Index(body, []byte(ytInitialPlayerResponseMarker))
	if idx < 0 {
		return nil, errors.New("ytInitialPlayerResponse not found in watch page")
	}
	jsonData := extractJSON(body[idx+len(ytInitialPlayerResponseMarker):])
	if jsonData == nil {
		return nil, errors.New("failed to extract ytInitialPlayerResponse JSON")
	}

	var playerResp innertubePlayerResp
	if err := json.Unmarshal(jsonData, &playerResp); err != nil {
		return nil, fmt.Errorf("decode ytInitialPlayerResponse: %w", err)
	}
	return y.tracksFrom(s, id, playerResp)
}

// listFromPlayer uses the ANDROID Innertube /player endpoint.
// Works from non-blocked (residential/cloud) IP addresses.
func (y *YouTube) listFromPlayer(ctx context.Context, id videoref.Ref) ([]transcript.Track, error) {
	reqBody, err := json.Marshal(innertubeReq{
		VideoID: id.String(),
		Context: innertubeCtx{
			Client: innertubeClient{
				ClientName:        "ANDROID",
				ClientVersion:     ytAndroidVersion,
				AndroidSdkVersion: 30,
				Hl:                "en",
				Gl:                "US",
			},
		},
		RacyCheckOk:    true,
		ContentCheckOk: true,
	})
	if err != nil {
		return nil, err
	}

	data, err := y.send(ctx, session{}, http.MethodPost, y.base+ytPlayerPath+"?prettyPrint=false", map[string]string{
		"Content-Type":             "application/json",
		"User-Agent":               ytAndroidUA,
		"X-Youtube-Client-Name":    "3",
		"X-Youtube-Client-Version": ytAndroidVersion,
	}, reqBody)
	if err != nil {
		return nil, classify(fmt.Errorf("android innertube: %w", err), false)
	}

	var playerResp innertubePlayerResp
	if err := json.Unmarshal(data, &playerResp); err != nil {
		return nil, fmt.Errorf("decode player: %w", err)
	}
	return y.tracksFrom(session{}, id, playerResp)
}

// tracksFrom maps a player response onto tracks, turning playability
// problems into provider sentinels.
func (y *YouTube) tracksFrom(s session, id videoref.Ref, pr innertubePlayerResp) ([]transcript.Track, error) {
	if pr.Captions == nil || len(pr.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks) == 0 {
		if pr.PlayabilityStatus != nil {
			switch pr.PlayabilityStatus.Status {
			case "LOGIN_REQUIRED":
				return nil, wall(s, pr.PlayabilityStatus.Reason)
			case "OK", "":
			default:
				return nil, fmt.Errorf("%w: %s", transcript.ErrNoTranscript, playability(pr))
			}
		}
		return nil, transcript.ErrNoTranscript
	}

	cts := pr.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	tracks := make([]transcript.Track, 0, len(cts))
	for _, ct := range cts {
		tracks = append(tracks, &ytTrack{y: y, s: s, videoID: id, ct: ct})
	}
	return tracks, nil
}

func playability(pr innertubePlayerResp) string {
	if pr.PlayabilityStatus.Reason != "" {
		return pr.PlayabilityStatus.Status + ": " + pr.PlayabilityStatus.Reason
	}
	return pr.PlayabilityStatus.Status
}

// wall reports a sign-in or consent wall: rate limiting for anonymous
// calls, a rejected session for cookie-bearing ones.
func wall(s session, reason string) error {
	if s.cookie != "" {
		return fmt.Errorf("%w: %s", transcript.ErrAuthRejected, reason)
	}
	return fmt.Errorf("%w: %s", transcript.ErrRateLimited, reason)
}

// classify maps HTTP statuses onto provider sentinels.
func classify(err error, authed bool) error {
	switch code := engine.HTTPStatus(err); {
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %v", transcript.ErrRateLimited, err)
	case (code == http.StatusUnauthorized || code == http.StatusForbidden) && authed:
		return fmt.Errorf("%w: %v", transcript.ErrAuthRejected, err)
	case code == http.StatusForbidden:
		return fmt.Errorf("%w: %v", transcript.ErrRateLimited, err)
	}
	return err
}

// get fetches a page: anonymous calls retry with exponential backoff,
// cookie-bearing calls go through send.
func (y *YouTube) get(ctx context.Context, s session, target string, headers map[string]string) ([]byte, error) {
	if s.cookie == "" && s.stealth == nil {
		return engine.FetchBytes(ctx, y.http, target, engine.FetchOptions{
			Headers:         headers,
			MaxBytes:        6 * 1024 * 1024,
			InitialInterval: y.backoff,
		})
	}
	if headers == nil {
		headers = map[string]string{}
	}
	headers["User-Agent"] = engine.UserAgentChrome
	headers["Accept-Language"] = "en-US,en;q=0.9"
	return y.send(ctx, s, http.MethodGet, target, headers, nil)
}

// ytTrack is one caption track from a player response.
type ytTrack struct {
	y       *YouTube
	s       session
	videoID videoref.Ref
	ct      captionTrack
	// panel is set when Fetch fell back to the engagement panel, which
	// serves the video's default transcript rather than this track.
	panel bool
}

// Language is the track's code, or the default language once Fetch has
// read the engagement panel instead.
func (t *ytTrack) Language() string {
	if t.panel {
		return transcript.DefaultLanguage
	}
	return t.ct.LanguageCode
}

func (t *ytTrack) Manual() bool     { return t.ct.Kind != "asr" }

// Fetch reads the timedtext XML for the track. Tracks that need a PoToken
// (or return an empty document) are read through the engagement panel.
func (t *ytTrack) Fetch(ctx context.Context) ([]string, error) {
	if !needsPoToken(t.ct.BaseURL) {
		segs, err := t.y.fetchTimedText(ctx, t.s, t.ct.BaseURL)
		if err != nil {
			return nil, classify(err, t.s.cookie != "")
		}
		if len(segs) > 0 {
			return segs, nil
		}
	}
	segs, err := t.y.fetchViaEngagementPanel(ctx, t.s, t.videoID)
	if err != nil {
		return nil, classify(err, t.s.cookie != "")
	}
	t.panel = true
	return segs, nil
}

// needsPoToken reports whether a caption track URL requires a PoToken (browser-only).
// Tracks with &exp=xpe cannot be fetched server-side.
func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}

// fetchTimedText fetches and parses a YouTube timedtext XML caption URL.
func (y *YouTube) fetchTimedText(ctx context.Context, s session, baseURL string) ([]string, error) {
	body, err := y.get(ctx, s, baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch timedtext: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	var tt ytTimedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return nil, fmt.Errorf("parse timedtext XML: %w", err)
	}
	segs := make([]string, 0, len(tt.Lines))
	for _, line := range tt.Lines {
		if text := engine.CollapseSpace(engine.CleanHTML(line.Text)); text != "" {
			segs = append(segs, text)
		}
	}
	return segs, nil
}

// getTranscriptRE extracts the continuation token from a raw /next JSON response.
var getTranscriptRE = regexp.MustCompile(`"getTranscriptEndpoint":\{"params":"([^"]+)"`)

func extractTranscriptToken(data []byte) (string, error) {
	if m := getTranscriptRE.FindSubmatch(data); len(m) >= 2 {
		// The params value in the /next JSON response is URL-encoded.
		// /get_transcript expects the decoded (raw base64) form.
		decoded, err := url.QueryUnescape(string(m[1]))
		if err != nil {
			return string(m[1]), nil
		}
		return decoded, nil
	}
	return "", transcript.ErrNoTranscript
}

// parseTranscriptSegments extracts one text per segment from a /get_transcript response.
func parseTranscriptSegments(resp ytGetTranscriptResp) []string {
	var segs []string
	for _, action := range resp.Actions {
		if action.UpdateEngagementPanelAction == nil {
			continue
		}
		initial := action.UpdateEngagementPanelAction.Content.
			TranscriptRenderer.Content.
			TranscriptSearchPanelRenderer.Body.
			TranscriptSegmentListRenderer.InitialSegments
		for _, seg := range initial {
			if seg.TranscriptSegmentRenderer == nil {
				continue
			}
			var sb strings.Builder
			for _, run := range seg.TranscriptSegmentRenderer.Snippet.Runs {
				sb.WriteString(run.Text)
			}
			if text := engine.CollapseSpace(sb.String()); text != "" {
				segs = append(segs, text)
			}
		}
	}
	return segs
}

// fetchViaEngagementPanel fetches a transcript via:
//  1. POST /next → engagementPanels containing the transcript continuation token
//  2. POST /get_transcript with the token → JSON segments
//
// This works from datacenter IPs where /player returns LOGIN_REQUIRED.
func (y *YouTube) fetchViaEngagementPanel(ctx context.Context, s session, id videoref.Ref) ([]string, error) {
	visitorData := generateVisitorData()

	nextData, err := y.postInnerTubeWEB(ctx, s, ytNextPath, map[string]any{
		"videoId": id.String(),
		"context": ytWebContext(visitorData),
	}, visitorData)
	if err != nil {
		return nil, fmt.Errorf("/next: %w", err)
	}

	token, err := extractTranscriptToken(nextData)
	if err != nil {
		return nil, fmt.Errorf("engagement panel: %w", err)
	}

	transcriptData, err := y.postInnerTubeWEB(ctx, s, ytGetTranscriptPath, map[string]any{
		"params":  token,
		"context": ytWebContext(visitorData),
	}, visitorData)
	if err != nil {
		return nil, fmt.Errorf("/get_transcript: %w", err)
	}

	var resp ytGetTranscriptResp
	if err := json.Unmarshal(transcriptData, &resp); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}
	return parseTranscriptSegments(resp), nil
}

// extractJSON returns the balanced JSON object at the start of b.
func extractJSON(b []byte) []byte {
	if len(b) == 0 || b[0] != '{' {
		return nil
	}
	depth := 0
	inStr := false
	escaped := false
	for i, c := range b {
		if inStr {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return b[:i+1]
			}
		}
	}
	return nil
}
