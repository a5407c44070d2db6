package cookies

import (
	"strings"
	"time"
)

// Lifetimes applied by RewriteExpiries.
const (
	VisitorTTL     = 2 * 365 * 24 * time.Hour
	AuthRefreshTTL = 48 * time.Hour
	AuthMediumTTL  = 7 * 24 * time.Hour
	DefaultTTL     = 365 * 24 * time.Hour
)

// ExpiryRule assigns a lifetime to cookies whose name matches.
// A zero TTL marks the cookie session-scoped.
type ExpiryRule struct {
	Name  string
	Match func(name string) bool
	TTL   time.Duration
}

func oneOf(names ...string) func(string) bool {
	return func(n string) bool {
		for _, m := range names {
			if n == m {
				return true
			}
		}
		return false
	}
}

func secureSuffix(suffix string) func(string) bool {
	return func(n string) bool {
		return strings.HasPrefix(n, "__Secure-") && strings.HasSuffix(n, suffix)
	}
}

// DefaultRules is the expiry policy; the first matching rule wins and
// unmatched cookies get DefaultTTL.
var DefaultRules = []ExpiryRule{
	{Name: "session", Match: oneOf("YSC"), TTL: 0},
	{Name: "visitor", Match: oneOf("VISITOR_INFO1_LIVE", "VISITOR_PRIVACY_METADATA", "CONSENT", "SOCS"), TTL: VisitorTTL},
	{Name: "auth-refresh", Match: secureSuffix("PSIDTS"), TTL: AuthRefreshTTL},
	{Name: "auth-medium", Match: secureSuffix("PSIDCC"), TTL: AuthMediumTTL},
}

// RewriteExpiries returns a copy of jar with every expiry recomputed from now
// under DefaultRules. Session cookies stay session cookies. Pure: applying it
// twice with the same now yields the same jar.
func RewriteExpiries(jar *Jar, now time.Time) *Jar {
	return RewriteExpiriesWith(jar, now, DefaultRules)
}

// RewriteExpiriesWith is RewriteExpiries with an explicit rule set.
func RewriteExpiriesWith(jar *Jar, now time.Time, rules []ExpiryRule) *Jar {
	out := NewJar()
	for _, c := range jar.Cookies() {
		c.Expires = expiryFor(c, now, rules)
		out.Set(c)
	}
	return out
}

func expiryFor(c Cookie, now time.Time, rules []ExpiryRule) int64 {
	if c.Session() {
		return 0
	}
	ttl := DefaultTTL
	for _, r := range rules {
		if r.Match(c.Name) {
			ttl = r.TTL
			break
		}
	}
	if ttl == 0 {
		return 0
	}
	return now.Add(ttl).Unix()
}
