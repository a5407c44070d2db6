// Package app wires configuration into the acquisition engine, the session
// manager, the summarizer and the run history, and exposes the two
// request flows shared by the MCP server and the CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/anatolykoptev/go_ytsum/internal/browser"
	"github.com/anatolykoptev/go_ytsum/internal/cookies"
	"github.com/anatolykoptev/go_ytsum/internal/engine"
	"github.com/anatolykoptev/go_ytsum/internal/engine/sources"
	"github.com/anatolykoptev/go_ytsum/internal/history"
	"github.com/anatolykoptev/go_ytsum/internal/session"
	"github.com/anatolykoptev/go_ytsum/internal/summarize"
	"github.com/anatolykoptev/go_ytsum/internal/transcript"
)

// App holds the long-lived collaborators of one process.
type App struct {
	Config     engine.Config
	Cookies    *cookies.Store
	Sessions   *session.Manager
	Engine     *transcript.Engine
	Summarizer *summarize.Summarizer
	Cache      *engine.Cache
	History    history.Store // nil when disabled or unavailable
}

// New builds an App from cfg. Optional collaborators that fail to start
// (proxy pool, history database) are logged and left out.
func New(ctx context.Context, cfg engine.Config) (*App, error) {
	var launcher browser.Launcher
	if cfg.BrowserScrape || cfg.SessionMethod == engine.SessionBrowser {
		launcher = browser.NewChromeLauncher(browser.ChromeConfig{
			ExecPath:  cfg.ChromePath,
			UserAgent: engine.UserAgentChrome,
			Headless:  true,
		})
	}

	acquirer, err := NewAcquirer(cfg, launcher)
	if err != nil {
		return nil, err
	}
	store := cookies.NewStore(cfg.CookieFile)
	sessions := session.NewManager(store, acquirer, session.Credentials{
		Email:    cfg.GoogleEmail,
		Password: cfg.GooglePassword,
	})

	yt := sources.NewYouTube(cfg.HTTPClient(), engine.NewStealthClient(cfg))
	eng := &transcript.Engine{
		Listing:     yt,
		AuthListing: yt,
		Jars:        sessions,
		Downloader:  sources.NewYtDlp(cfg.YtDlpPath),
		Transcoder:  sources.NewFFmpeg(cfg.FFmpegPath),
	}
	if cfg.BrowserScrape {
		eng.Launcher = launcher
	}
	if cfg.WhisperAPIKey != "" {
		eng.Transcriber = sources.NewWhisper(cfg)
	} else {
		slog.Info("WHISPER_API_KEY not set, audio transcription disabled")
	}

	registry := summarize.NewRegistry()
	if cfg.TemplatesFile != "" {
		if err := registry.LoadFile(cfg.TemplatesFile); err != nil {
			return nil, err
		}
		slog.Info("prompt templates loaded", slog.String("file", cfg.TemplatesFile),
			slog.Int("languages", len(registry.Languages())))
	}
	summarizer := summarize.New(engine.NewChatClient(cfg), registry,
		summarize.WithChunking(cfg.ChunkSize, cfg.ChunkOverlap),
		summarize.WithRateLimit(cfg.LLMRPS),
	)

	a := &App{
		Config:     cfg,
		Cookies:    store,
		Sessions:   sessions,
		Engine:     eng,
		Summarizer: summarizer,
		Cache:      engine.NewCache(cfg.RedisURL, cfg.CacheTTL, cfg.CacheMaxEntries, cfg.CacheCleanupInterval),
	}

	if cfg.DatabaseURL != "" || cfg.HistoryPath != "" {
		h, err := history.Open(ctx, cfg.DatabaseURL, cfg.HistoryPath)
		if err != nil {
			slog.Warn("history disabled", slog.Any("error", err))
		} else {
			a.History = h
		}
	}
	return a, nil
}

// NewAcquirer returns the SessionAcquirer selected by SESSION_METHOD.
func NewAcquirer(cfg engine.Config, launcher browser.Launcher) (session.Acquirer, error) {
	switch cfg.SessionMethod {
	case engine.SessionBrowser, "":
		if launcher == nil {
			launcher = browser.NewChromeLauncher(browser.ChromeConfig{
				ExecPath:  cfg.ChromePath,
				UserAgent: engine.UserAgentChrome,
				Headless:  true,
			})
		}
		return &session.BrowserLogin{Launcher: launcher}, nil
	case engine.SessionHTTP:
		return session.NewHTTPLogin(session.HTTPLoginConfig{
			LoginURL: cfg.LoginURL,
			Timeout:  2 * cfg.FetchTimeout,
		}), nil
	case engine.SessionSynthetic:
		slog.Warn("synthetic session cookies cannot authenticate; authenticated fetches will likely be rejected")
		return session.NewSynthetic(), nil
	}
	return nil, fmt.Errorf("unknown SESSION_METHOD %q (want %s, %s or %s)",
		cfg.SessionMethod, engine.SessionBrowser, engine.SessionHTTP, engine.SessionSynthetic)
}

// Close releases the cache and the history store.
func (a *App) Close() error {
	var err error
	if a.History != nil {
		err = a.History.Close()
	}
	if cerr := a.Cache.Close(); err == nil {
		err = cerr
	}
	return err
}
