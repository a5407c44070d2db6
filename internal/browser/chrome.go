package browser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/anatolykoptev/go_ytsum/internal/cookies"
)

// ChromeConfig configures a ChromeLauncher.
type ChromeConfig struct {
	ExecPath  string // empty = chromedp default lookup
	UserAgent string
	Headless  bool
}

// ChromeLauncher starts headless Chrome instances through chromedp.
type ChromeLauncher struct {
	cfg ChromeConfig
}

// NewChromeLauncher returns a launcher for cfg.
func NewChromeLauncher(cfg ChromeConfig) *ChromeLauncher {
	return &ChromeLauncher{cfg: cfg}
}

// Launch starts Chrome and opens one tab. The browser outlives ctx; call Close.
func (l *ChromeLauncher) Launch(ctx context.Context) (Browser, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", l.cfg.Headless),
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("lang", "en-US"),
	)
	if l.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(l.cfg.ExecPath))
	}
	if l.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(l.cfg.UserAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	c := &Chrome{ctx: tabCtx, cancel: func() { cancelTab(); cancelAlloc() }}

	if err := c.run(ctx, network.Enable()); err != nil {
		c.cancel()
		return nil, fmt.Errorf("start chrome: %w", err)
	}
	slog.Debug("browser: chrome started", slog.Bool("headless", l.cfg.Headless))
	return c, nil
}

// Chrome is a Browser backed by one chromedp tab.
type Chrome struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// run executes actions on the tab. ctx is only checked before the call:
// an in-flight CDP command is not preempted.
func (c *Chrome) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return chromedp.Run(c.ctx, actions...)
}

func (c *Chrome) Navigate(ctx context.Context, url string) error {
	return c.run(ctx, chromedp.Navigate(url))
}

func (c *Chrome) WaitVisible(ctx context.Context, selector string) error {
	return c.run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

func (c *Chrome) Click(ctx context.Context, selector string) error {
	return c.run(ctx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery),
	)
}

func (c *Chrome) Fill(ctx context.Context, selector, value string) error {
	return c.run(ctx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, value, chromedp.ByQuery),
	)
}

// document snapshots the rendered DOM and parses it with goquery.
func (c *Chrome) document(ctx context.Context) (*goquery.Document, error) {
	var html string
	if err := c.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("goquery parse: %w", err)
	}
	return doc, nil
}

func (c *Chrome) Texts(ctx context.Context, selector string) ([]string, error) {
	doc, err := c.document(ctx)
	if err != nil {
		return nil, err
	}
	return TextsIn(doc, selector), nil
}

func (c *Chrome) Attr(ctx context.Context, selector, attr string) (string, bool, error) {
	doc, err := c.document(ctx)
	if err != nil {
		return "", false, err
	}
	v, ok := doc.Find(selector).First().Attr(attr)
	return v, ok, nil
}

// TextsIn returns the trimmed, non-empty texts of selector matches in doc.
func TextsIn(doc *goquery.Document, selector string) []string {
	var out []string
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if t := strings.Join(strings.Fields(s.Text()), " "); t != "" {
			out = append(out, t)
		}
	})
	return out
}

func (c *Chrome) ImportCookies(ctx context.Context, jar *cookies.Jar) error {
	params := make([]*network.CookieParam, 0, jar.Len())
	for _, ck := range jar.Cookies() {
		p := &network.CookieParam{
			Name:     ck.Name,
			Value:    ck.Value,
			Domain:   ck.Domain,
			Path:     ck.Path,
			Secure:   ck.Secure,
			HTTPOnly: ck.HTTPOnly,
		}
		if !ck.Session() {
			exp := cdp.TimeSinceEpoch(time.Unix(ck.Expires, 0))
			p.Expires = &exp
		}
		params = append(params, p)
	}
	return c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return network.SetCookies(params).Do(ctx)
	}))
}

func (c *Chrome) ExportCookies(ctx context.Context) (*cookies.Jar, error) {
	var raw []*network.Cookie
	err := c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		raw, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("export cookies: %w", err)
	}
	jar := cookies.NewJar()
	for _, rc := range raw {
		ck := cookies.Cookie{
			Domain:            rc.Domain,
			IncludeSubdomains: strings.HasPrefix(rc.Domain, "."),
			Path:              rc.Path,
			Secure:            rc.Secure,
			HTTPOnly:          rc.HTTPOnly,
			Name:              rc.Name,
			Value:             rc.Value,
		}
		if !rc.Session && rc.Expires > 0 {
			ck.Expires = int64(rc.Expires)
		}
		jar.Set(ck)
	}
	return jar, nil
}

func (c *Chrome) Close() error {
	c.cancel()
	return nil
}
