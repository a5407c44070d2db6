// Package cookies models a browser session cookie jar persisted in the
// Netscape cookie-file format.
package cookies

import (
	"strings"
	"time"
)

// Cookie is one row of a Netscape cookie file.
type Cookie struct {
	Domain            string
	IncludeSubdomains bool
	Path              string
	Secure            bool
	HTTPOnly          bool
	Expires           int64 // unix seconds; 0 = session cookie
	Name              string
	Value             string
}

// Session reports whether the cookie is session-scoped.
func (c Cookie) Session() bool { return c.Expires == 0 }

// Expired reports whether a persistent cookie is past its expiry at now.
func (c Cookie) Expired(now time.Time) bool {
	return c.Expires != 0 && c.Expires <= now.Unix()
}

// normalize enforces the leading-dot invariant for host-wide cookies.
func (c Cookie) normalize() Cookie {
	if c.IncludeSubdomains && c.Domain != "" && !strings.HasPrefix(c.Domain, ".") {
		c.Domain = "." + c.Domain
	}
	if c.Path == "" {
		c.Path = "/"
	}
	return c
}

// matchesHost reports whether the cookie would be sent to host.
func (c Cookie) matchesHost(host string) bool {
	host = strings.ToLower(host)
	d := strings.ToLower(strings.TrimPrefix(c.Domain, "."))
	if host == d {
		return true
	}
	return c.IncludeSubdomains && strings.HasSuffix(host, "."+d)
}

type key struct{ domain, path, name string }

func (c Cookie) key() key { return key{c.Domain, c.Path, c.Name} }

// Jar is an ordered set of cookies, unique by (domain, path, name).
type Jar struct {
	cookies []Cookie
	index   map[key]int
}

// NewJar builds a jar from cookies. Later duplicates replace earlier ones in place.
func NewJar(cs ...Cookie) *Jar {
	j := &Jar{index: make(map[key]int, len(cs))}
	for _, c := range cs {
		j.Set(c)
	}
	return j
}

// Set inserts c or replaces the cookie with the same (domain, path, name).
func (j *Jar) Set(c Cookie) {
	if j.index == nil {
		j.index = make(map[key]int)
	}
	c = c.normalize()
	if i, ok := j.index[c.key()]; ok {
		j.cookies[i] = c
		return
	}
	j.index[c.key()] = len(j.cookies)
	j.cookies = append(j.cookies, c)
}

// Get returns the first cookie named name, in jar order.
func (j *Jar) Get(name string) (Cookie, bool) {
	if j == nil {
		return Cookie{}, false
	}
	for _, c := range j.cookies {
		if c.Name == name {
			return c, true
		}
	}
	return Cookie{}, false
}

// Len returns the number of cookies.
func (j *Jar) Len() int {
	if j == nil {
		return 0
	}
	return len(j.cookies)
}

// Cookies returns a copy of the jar contents in order.
func (j *Jar) Cookies() []Cookie {
	if j == nil {
		return nil
	}
	out := make([]Cookie, len(j.cookies))
	copy(out, j.cookies)
	return out
}

// Clone returns a deep copy.
func (j *Jar) Clone() *Jar {
	return NewJar(j.Cookies()...)
}

// LatestExpiry returns the furthest persistent expiry in the jar, or 0 when
// the jar holds only session cookies.
func (j *Jar) LatestExpiry() int64 {
	var latest int64
	for _, c := range j.Cookies() {
		if c.Expires > latest {
			latest = c.Expires
		}
	}
	return latest
}

// Stale reports whether the jar is unusable at now: empty, or every
// persistent cookie has expired. A jar of only session cookies is not stale.
func (j *Jar) Stale(now time.Time) bool {
	if j.Len() == 0 {
		return true
	}
	latest := j.LatestExpiry()
	return latest != 0 && latest <= now.Unix()
}

// HeaderFor builds a Cookie request header value for host, skipping expired cookies.
func (j *Jar) HeaderFor(host string, now time.Time) string {
	var parts []string
	for _, c := range j.Cookies() {
		if !c.matchesHost(host) || c.Expired(now) {
			continue
		}
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}

// Filter returns a new jar with the cookies for which keep returns true.
func (j *Jar) Filter(keep func(Cookie) bool) *Jar {
	out := NewJar()
	for _, c := range j.Cookies() {
		if keep(c) {
			out.Set(c)
		}
	}
	return out
}
