// Package videoref normalizes the many URL shapes a YouTube video can be
// referenced by into its canonical 11-character identifier.
package videoref

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidReference is returned when no known URL shape matches the input.
var ErrInvalidReference = errors.New("invalid video reference")

// Ref is a canonical video identifier.
type Ref string

// String returns the identifier itself.
func (r Ref) String() string { return string(r) }

// WatchURL returns the canonical watch page URL for the video.
func (r Ref) WatchURL() string { return "https://www.youtube.com/watch?v=" + string(r) }

// idTail terminates every pattern: the 11-char token must not be a prefix of
// a longer path segment (e.g. "youtube-nocookie" in a host name).
const idTail = `(?:[^0-9A-Za-z_-]|$)`

// patterns are tried in priority order, first match wins.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`v=([0-9A-Za-z_-]{11})` + idTail),
	regexp.MustCompile(`/([0-9A-Za-z_-]{11})` + idTail),
	regexp.MustCompile(`embed/([0-9A-Za-z_-]{11})` + idTail),
	regexp.MustCompile(`youtu\.be/([0-9A-Za-z_-]{11})` + idTail),
	regexp.MustCompile(`shorts/([0-9A-Za-z_-]{11})` + idTail),
	regexp.MustCompile(`^([0-9A-Za-z_-]{11})$`),
}

// Normalize extracts the canonical video ID from raw.
// An already-canonical ID normalizes to itself.
func Normalize(raw string) (Ref, error) {
	s := strings.TrimSpace(raw)
	for _, re := range patterns {
		if m := re.FindStringSubmatch(s); len(m) >= 2 {
			return Ref(m[1]), nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidReference, raw)
}

// MustNormalize is like Normalize but panics on error. Intended for tests and constants.
func MustNormalize(raw string) Ref {
	r, err := Normalize(raw)
	if err != nil {
		panic(err)
	}
	return r
}
