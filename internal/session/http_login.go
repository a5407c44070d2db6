package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	fhttp "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"

	"github.com/anatolykoptev/go_ytsum/internal/cookies"
	"github.com/anatolykoptev/go_ytsum/internal/engine"
)

// HTTPLoginConfig describes a plain HTML form login.
type HTTPLoginConfig struct {
	LoginURL      string
	UserField     string   // form field carrying the email; default "email"
	PasswordField string   // default "password"
	CookieURLs    []string // origins whose cookies are exported after login
	Timeout       time.Duration
}

// HTTPLogin signs in by submitting the identity provider's login form over
// a Chrome-fingerprinted engine.TLSSession and exports the cookie
// jar. It works against providers that serve a static HTML form; JavaScript
// driven sign-in pages need BrowserLogin.
type HTTPLogin struct {
	cfg HTTPLoginConfig
	now func() time.Time
}

// NewHTTPLogin returns an HTTP form login for cfg.
func NewHTTPLogin(cfg HTTPLoginConfig) *HTTPLogin {
	if cfg.UserField == "" {
		cfg.UserField = "email"
	}
	if cfg.PasswordField == "" {
		cfg.PasswordField = "password"
	}
	if len(cfg.CookieURLs) == 0 {
		cfg.CookieURLs = []string{"https://www.youtube.com/", "https://accounts.google.com/"}
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &HTTPLogin{cfg: cfg, now: time.Now}
}

func (h *HTTPLogin) Name() string { return "http" }

func (h *HTTPLogin) Acquire(ctx context.Context, creds Credentials) (*cookies.Jar, error) {
	if creds.Empty() {
		return nil, ErrNoCredentials
	}
	if h.cfg.LoginURL == "" {
		return nil, errors.New("no login URL configured")
	}

	sess, err := engine.NewTLSSession(h.cfg.Timeout)
	if err != nil {
		return nil, err
	}

	page, status, err := sess.Do(ctx, fhttp.MethodGet, h.cfg.LoginURL, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("login page: %w", err)
	}
	if status != fhttp.StatusOK {
		return nil, fmt.Errorf("login page status %d", status)
	}

	form, err := parseLoginForm(page, h.cfg.LoginURL, h.cfg.PasswordField)
	if err != nil {
		return nil, err
	}
	form.Fields.Set(h.cfg.UserField, creds.Email)
	form.Fields.Set(h.cfg.PasswordField, creds.Password)

	_, status, err = sess.Do(ctx, fhttp.MethodPost, form.Action, map[string]string{
		"content-type": "application/x-www-form-urlencoded",
		"referer":      h.cfg.LoginURL,
	}, strings.NewReader(form.Fields.Encode()))
	if err != nil {
		return nil, fmt.Errorf("submit login: %w", err)
	}
	if status >= 400 {
		return nil, fmt.Errorf("submit login status %d", status)
	}

	jar := h.exportJar(sess.Jar())
	if jar.Len() == 0 {
		return nil, errors.New("login returned no cookies")
	}
	slog.Info("session: http login complete", slog.Int("cookies", jar.Len()))
	return jar, nil
}

// exportJar converts the session's cookies into Netscape rows. The client
// jar only exposes name and value per origin, so every cookie is recorded as
// host-wide on the origin's registrable domain with a one-year expiry, which
// the expiry policy rewrites on save anyway.
func (h *HTTPLogin) exportJar(tlsJar tls_client.CookieJar) *cookies.Jar {
	jar := cookies.NewJar()
	exp := h.now().Add(cookies.DefaultTTL).Unix()
	for _, raw := range h.cfg.CookieURLs {
		u, err := url.Parse(raw)
		if err != nil {
			continue
		}
		for _, c := range tlsJar.Cookies(u) {
			jar.Set(cookies.Cookie{
				Domain:            registrableDomain(u.Hostname()),
				IncludeSubdomains: true,
				Path:              "/",
				Secure:            u.Scheme == "https",
				Expires:           exp,
				Name:              c.Name,
				Value:             c.Value,
			})
		}
	}
	return jar
}

// registrableDomain keeps the last two labels of host ("www.youtube.com" →
// "youtube.com"). Good enough for the .com origins this login targets.
func registrableDomain(host string) string {
	labels := strings.Split(host, ".")
	if len(labels) <= 2 {
		return host
	}
	return strings.Join(labels[len(labels)-2:], ".")
}

// loginForm is a discovered HTML login form.
type loginForm struct {
	Action string
	Fields url.Values
}

// parseLoginForm finds the first form holding a password input (by type or
// by passwordField name) and collects its pre-filled inputs.
func parseLoginForm(page []byte, pageURL, passwordField string) (*loginForm, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(page)))
	if err != nil {
		return nil, fmt.Errorf("goquery parse: %w", err)
	}
	sel := fmt.Sprintf(`input[type="password"], input[name=%q]`, passwordField)
	form := doc.Find("form").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.Find(sel).Length() > 0
	}).First()
	if form.Length() == 0 {
		return nil, errors.New("no login form on page")
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse login URL: %w", err)
	}
	action := base
	if a, ok := form.Attr("action"); ok && strings.TrimSpace(a) != "" {
		ref, err := url.Parse(strings.TrimSpace(a))
		if err != nil {
			return nil, fmt.Errorf("parse form action: %w", err)
		}
		action = base.ResolveReference(ref)
	}

	fields := url.Values{}
	form.Find("input").Each(func(_ int, s *goquery.Selection) {
		name, ok := s.Attr("name")
		if !ok || name == "" {
			return
		}
		typ, _ := s.Attr("type")
		if strings.EqualFold(typ, "submit") || strings.EqualFold(typ, "button") {
			return
		}
		val, _ := s.Attr("value")
		fields.Set(name, val)
	})
	return &loginForm{Action: action.String(), Fields: fields}, nil
}
