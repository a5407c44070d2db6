// Package session produces fresh cookie jars for authenticated transcript
// retrieval and tracks the jar lifecycle on disk.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anatolykoptev/go_ytsum/internal/cookies"
)

// Credentials for an identity-provider login.
type Credentials struct {
	Email    string
	Password string
}

// Empty reports whether no usable credentials are configured.
func (c Credentials) Empty() bool { return c.Email == "" || c.Password == "" }

// Acquirer obtains a cookie jar. Implementations are best-effort and fragile
// against upstream page changes; swap them without touching callers.
type Acquirer interface {
	Name() string
	Acquire(ctx context.Context, creds Credentials) (*cookies.Jar, error)
}

// ErrNoCredentials is returned by acquirers that need credentials when none are set.
var ErrNoCredentials = errors.New("no credentials configured")

// AuthenticationError reports that a session refresh could not produce a usable jar.
type AuthenticationError struct {
	Method string
	Err    error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed (%s): %v", e.Method, e.Err)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// youtubeCookie reports whether a cookie belongs to the domains a YouTube
// session needs.
func youtubeCookie(c cookies.Cookie) bool {
	d := strings.TrimPrefix(strings.ToLower(c.Domain), ".")
	for _, suffix := range []string{"youtube.com", "google.com"} {
		if d == suffix || strings.HasSuffix(d, "."+suffix) {
			return true
		}
	}
	return false
}
