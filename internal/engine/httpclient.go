package engine

import (
	"context"
	"fmt"
	"io"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
)

// TLSSession is a cookie-keeping HTTP session with a Chrome 131 TLS
// fingerprint (JA3 hash), used for form logins.
type TLSSession struct {
	client tls_client.HttpClient
	jar    tls_client.CookieJar
}

// NewTLSSession creates a session that impersonates Chrome 131 and follows
// redirects so login flows land on their final page.
func NewTLSSession(timeout time.Duration) (*TLSSession, error) {
	jar := tls_client.NewCookieJar()
	opts := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(int(timeout / time.Second)),
		tls_client.WithClientProfile(profiles.Chrome_131),
		tls_client.WithCookieJar(jar),
	}
	client, err := tls_client.NewHttpClient(nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("tls-client init: %w", err)
	}
	return &TLSSession{client: client, jar: jar}, nil
}

// Jar exposes the session's cookie jar.
func (s *TLSSession) Jar() tls_client.CookieJar { return s.jar }

// Do executes a request with Chrome TLS fingerprint.
// Returns body bytes (capped at 4 MiB), HTTP status code, and any error.
func (s *TLSSession) Do(ctx context.Context, method, url string, headers map[string]string, body io.Reader) ([]byte, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	req, err := fhttp.NewRequest(method, url, body)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}

	for k, v := range ChromeHeaders() {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	// Chrome-like header order matters for fingerprinting
	req.Header[fhttp.HeaderOrderKey] = []string{
		"accept",
		"accept-language",
		"accept-encoding",
		"content-type",
		"referer",
		"cookie",
		"user-agent",
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("tls request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return data, resp.StatusCode, nil
}
