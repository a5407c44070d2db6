// Package browser drives a headless Chrome for flows that need a rendered
// page: interactive login and reading the transcript panel.
package browser

import (
	"context"

	"github.com/anatolykoptev/go_ytsum/internal/cookies"
)

// Browser is one live headless browser tab.
type Browser interface {
	Navigate(ctx context.Context, url string) error
	WaitVisible(ctx context.Context, selector string) error
	Click(ctx context.Context, selector string) error
	Fill(ctx context.Context, selector, value string) error
	// Texts returns the trimmed text of every element matching selector, in document order.
	Texts(ctx context.Context, selector string) ([]string, error)
	// Attr returns the value of attr on the first element matching selector.
	Attr(ctx context.Context, selector, attr string) (string, bool, error)
	ImportCookies(ctx context.Context, jar *cookies.Jar) error
	ExportCookies(ctx context.Context) (*cookies.Jar, error)
	Close() error
}

// Launcher starts browsers.
type Launcher interface {
	Launch(ctx context.Context) (Browser, error)
}
