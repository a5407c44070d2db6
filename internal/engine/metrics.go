package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	TranscriptRequests     atomic.Int64
	TranscriptFailures     atomic.Int64
	NativeAPIWins          atomic.Int64
	AuthenticatedAPIWins   atomic.Int64
	BrowserScrapeWins      atomic.Int64
	AudioTranscriptionWins atomic.Int64
	StrategyFailures       atomic.Int64
	StrategySkips          atomic.Int64
	CookieRefreshes        atomic.Int64
	CookieRestores         atomic.Int64
	InnertubeRequests      atomic.Int64
	WhisperRequests        atomic.Int64
	LLMCalls               atomic.Int64
	LLMErrors              atomic.Int64
	Summaries              atomic.Int64
	CacheHits              atomic.Int64
	CacheMisses            atomic.Int64
}

var metricKeys = []string{
	"transcript_requests", "transcript_failures",
	"native_api_wins", "authenticated_api_wins", "browser_scrape_wins", "audio_transcription_wins",
	"strategy_failures", "strategy_skips",
	"cookie_refreshes", "cookie_restores",
	"innertube_requests", "whisper_requests",
	"llm_calls", "llm_errors", "summaries",
	"cache_hits", "cache_misses",
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	return map[string]int64{
		"transcript_requests":      metrics.TranscriptRequests.Load(),
		"transcript_failures":      metrics.TranscriptFailures.Load(),
		"native_api_wins":          metrics.NativeAPIWins.Load(),
		"authenticated_api_wins":   metrics.AuthenticatedAPIWins.Load(),
		"browser_scrape_wins":      metrics.BrowserScrapeWins.Load(),
		"audio_transcription_wins": metrics.AudioTranscriptionWins.Load(),
		"strategy_failures":        metrics.StrategyFailures.Load(),
		"strategy_skips":           metrics.StrategySkips.Load(),
		"cookie_refreshes":         metrics.CookieRefreshes.Load(),
		"cookie_restores":          metrics.CookieRestores.Load(),
		"innertube_requests":       metrics.InnertubeRequests.Load(),
		"whisper_requests":         metrics.WhisperRequests.Load(),
		"llm_calls":                metrics.LLMCalls.Load(),
		"llm_errors":               metrics.LLMErrors.Load(),
		"summaries":                metrics.Summaries.Load(),
		"cache_hits":               metrics.CacheHits.Load(),
		"cache_misses":             metrics.CacheMisses.Load(),
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	for _, k := range metricKeys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// IncrStrategyWin counts a successful acquisition by strategy name.
func IncrStrategyWin(strategy string) {
	switch strategy {
	case "native_api":
		metrics.NativeAPIWins.Add(1)
	case "authenticated_api":
		metrics.AuthenticatedAPIWins.Add(1)
	case "browser_scrape":
		metrics.BrowserScrapeWins.Add(1)
	case "audio_transcription":
		metrics.AudioTranscriptionWins.Add(1)
	}
}

func IncrTranscriptRequests() { metrics.TranscriptRequests.Add(1) }
func IncrTranscriptFailures() { metrics.TranscriptFailures.Add(1) }
func IncrStrategyFailure()    { metrics.StrategyFailures.Add(1) }
func IncrStrategySkip()       { metrics.StrategySkips.Add(1) }
func IncrCookieRefresh()      { metrics.CookieRefreshes.Add(1) }
func IncrCookieRestore()      { metrics.CookieRestores.Add(1) }
func IncrInnertube()          { metrics.InnertubeRequests.Add(1) }
func IncrWhisper()            { metrics.WhisperRequests.Add(1) }
func IncrSummaries()          { metrics.Summaries.Add(1) }

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, threshold time.Duration, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > threshold {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
