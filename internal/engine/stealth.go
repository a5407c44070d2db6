package engine

import (
	"log/slog"

	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/anatolykoptev/go-stealth/proxypool"
)

// Re-export stealth types and functions for engine consumers.
type BrowserClient = stealth.BrowserClient

func ChromeHeaders() map[string]string { return stealth.ChromeHeaders() }
func RandomUserAgent() string          { return stealth.RandomUserAgent() }

// NewStealthClient builds the Chrome-fingerprint client used for
// authenticated Innertube calls, routed through the Webshare proxy pool when
// WEBSHARE_API_KEY is set. Returns nil when the client cannot be built.
func NewStealthClient(cfg Config) *BrowserClient {
	opts := []stealth.ClientOption{stealth.WithTimeout(int(cfg.FetchTimeout.Seconds()))}

	if cfg.WebshareAPIKey != "" {
		pool, err := proxypool.NewWebshare(cfg.WebshareAPIKey)
		if err != nil {
			slog.Warn("proxy pool init failed, running without proxy", slog.Any("error", err))
		} else {
			opts = append(opts, stealth.WithProxyPool(pool))
			slog.Info("proxy pool initialized", slog.Int("proxies", pool.Len()))
		}
	}

	bc, err := stealth.NewClient(opts...)
	if err != nil {
		slog.Error("stealth client init failed", slog.Any("error", err))
		return nil
	}
	slog.Info("stealth browser client initialized")
	return bc
}
