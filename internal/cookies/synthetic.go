package cookies

import (
	"encoding/base64"
	"math/rand/v2"
	"time"
)

// syntheticShape lists the cookie names a signed-in YouTube session carries.
var syntheticShape = []struct {
	name   string
	domain string
	secure bool
	size   int
}{
	{"YSC", ".youtube.com", true, 11},
	{"VISITOR_INFO1_LIVE", ".youtube.com", true, 11},
	{"VISITOR_PRIVACY_METADATA", ".youtube.com", true, 24},
	{"PREF", ".youtube.com", true, 0},
	{"SID", ".youtube.com", false, 71},
	{"HSID", ".youtube.com", false, 17},
	{"SSID", ".youtube.com", true, 17},
	{"APISID", ".youtube.com", false, 34},
	{"SAPISID", ".youtube.com", true, 34},
	{"__Secure-1PSID", ".youtube.com", true, 71},
	{"__Secure-3PSID", ".youtube.com", true, 71},
	{"__Secure-1PSIDTS", ".youtube.com", true, 64},
	{"__Secure-3PSIDTS", ".youtube.com", true, 64},
	{"__Secure-1PSIDCC", ".youtube.com", true, 72},
	{"__Secure-3PSIDCC", ".youtube.com", true, 72},
	{"LOGIN_INFO", ".youtube.com", true, 120},
}

// Synthesize builds a jar with the cookie names of a signed-in session and
// random values drawn from seed. It cannot authenticate anything: it only
// gives providers that gate on cookie presence something to look at.
func Synthesize(seed uint64, now time.Time) *Jar {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	jar := NewJar()
	for _, s := range syntheticShape {
		value := "f6=40000000&tz=UTC"
		if s.size > 0 {
			value = randomToken(rng, s.size)
		}
		if s.name == "YSC" {
			jar.Set(Cookie{Domain: s.domain, IncludeSubdomains: true, Path: "/", Secure: s.secure, Name: s.name, Value: value})
			continue
		}
		jar.Set(Cookie{
			Domain:            s.domain,
			IncludeSubdomains: true,
			Path:              "/",
			Secure:            s.secure,
			Expires:           now.Unix() + 1,
			Name:              s.name,
			Value:             value,
		})
	}
	return RewriteExpiries(jar, now)
}

func randomToken(rng *rand.Rand, n int) string {
	raw := make([]byte, n)
	for i := range raw {
		raw[i] = byte(rng.UintN(256))
	}
	return base64.RawURLEncoding.EncodeToString(raw)[:n]
}
