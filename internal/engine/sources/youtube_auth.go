package sources

import (
	"context"
	"errors"
	"net/url"

	"github.com/anatolykoptev/go_ytsum/internal/cookies"
	"github.com/anatolykoptev/go_ytsum/internal/transcript"
	"github.com/anatolykoptev/go_ytsum/internal/videoref"
)

// ListAuthenticated lists caption tracks with jar attached as the Cookie
// header. Sign-in walls and 401/403 responses surface as
// transcript.ErrAuthRejected so the caller can refresh the jar.
func (y *YouTube) ListAuthenticated(ctx context.Context, id videoref.Ref, jar *cookies.Jar) ([]transcript.Track, error) {
	host := "www.youtube.com"
	if u, err := url.Parse(y.base); err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}
	header := jar.HeaderFor(host, y.now())
	if header == "" {
		return nil, errors.Join(transcript.ErrAuthRejected, errors.New("jar has no cookies for "+host))
	}
	return y.listFromWatchPage(ctx, session{cookie: header, stealth: y.stealth}, id)
}
