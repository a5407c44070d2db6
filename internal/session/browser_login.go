package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/anatolykoptev/go_ytsum/internal/browser"
	"github.com/anatolykoptev/go_ytsum/internal/cookies"
)

// Google sign-in page selectors.
const (
	googleSignInURL   = "https://accounts.google.com/ServiceLogin?service=youtube&continue=https://www.youtube.com/"
	selIdentifier     = `input[name="identifier"]`
	selIdentifierNext = `#identifierNext button`
	selPassword       = `input[type="password"]`
	selPasswordNext   = `#passwordNext button`
	youtubeHomeURL    = "https://www.youtube.com/"
	selYouTubeApp     = "ytd-app"
)

// BrowserLogin signs in through the identity provider's web form in a
// headless browser and exports the resulting cookies.
type BrowserLogin struct {
	Launcher browser.Launcher
}

func (b *BrowserLogin) Name() string { return "browser" }

func (b *BrowserLogin) Acquire(ctx context.Context, creds Credentials) (jar *cookies.Jar, err error) {
	if creds.Empty() {
		return nil, ErrNoCredentials
	}
	if b.Launcher == nil {
		return nil, errors.New("no browser launcher configured")
	}
	br, err := b.Launcher.Launch(ctx)
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	defer br.Close()

	steps := []struct {
		name string
		run  func() error
	}{
		{"open sign-in", func() error { return br.Navigate(ctx, googleSignInURL) }},
		{"enter identifier", func() error { return br.Fill(ctx, selIdentifier, creds.Email) }},
		{"submit identifier", func() error { return br.Click(ctx, selIdentifierNext) }},
		{"enter password", func() error { return br.Fill(ctx, selPassword, creds.Password) }},
		{"submit password", func() error { return br.Click(ctx, selPasswordNext) }},
		{"open youtube", func() error { return br.Navigate(ctx, youtubeHomeURL) }},
		{"wait youtube", func() error { return br.WaitVisible(ctx, selYouTubeApp) }},
	}
	for _, s := range steps {
		if err := s.run(); err != nil {
			return nil, fmt.Errorf("%s: %w", s.name, err)
		}
	}

	all, err := br.ExportCookies(ctx)
	if err != nil {
		return nil, err
	}
	jar = all.Filter(youtubeCookie)
	if jar.Len() == 0 {
		return nil, errors.New("browser login produced no youtube cookies")
	}
	slog.Info("session: browser login complete", slog.Int("cookies", jar.Len()))
	return jar, nil
}
