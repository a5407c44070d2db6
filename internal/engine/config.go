package engine

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/joho/godotenv"
)

// Config holds all runtime configuration. It is built once by LoadConfig and
// passed explicitly to the components that need it.
type Config struct {
	LLMAPIBase         string
	LLMAPIKey          string
	LLMAPIKeyFallbacks []string
	LLMModel           string
	LLMTemperature     float64
	LLMMaxTokens       int
	LLMRPS             float64 // 0 = unpaced

	ChunkSize    int
	ChunkOverlap int

	CookieFile     string
	SessionMethod  string // browser | http | synthetic
	GoogleEmail    string
	GooglePassword string
	LoginURL       string
	ChromePath     string
	BrowserScrape  bool

	YtDlpPath      string
	FFmpegPath     string
	WhisperAPIKey  string
	WhisperAPIBase string
	WhisperModel   string

	RedisURL             string
	CacheTTL             time.Duration
	CacheMaxEntries      int
	CacheCleanupInterval time.Duration

	DatabaseURL   string // set = PostgreSQL history
	HistoryPath   string // SQLite history file
	TemplatesFile string

	MCPPort        string
	WebshareAPIKey string
	FetchTimeout   time.Duration
}

// Session methods accepted in SESSION_METHOD.
const (
	SessionBrowser   = "browser"
	SessionHTTP      = "http"
	SessionSynthetic = "synthetic"
)

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() Config {
	if err := godotenv.Load(); err == nil {
		slog.Debug("config: loaded .env")
	}
	return Config{
		LLMAPIBase:         env.Str("LLM_API_BASE", "https://api.groq.com/openai/v1"),
		LLMAPIKey:          env.Str("LLM_API_KEY", ""),
		LLMAPIKeyFallbacks: env.List("LLM_API_KEY_FALLBACKS", ""),
		LLMModel:           env.Str("LLM_MODEL", "llama-3.1-8b-instant"),
		LLMTemperature:     env.Float("LLM_TEMPERATURE", 0.7),
		LLMMaxTokens:       env.Int("LLM_MAX_TOKENS", 4000),
		LLMRPS:             env.Float("LLM_RPS", 0),

		ChunkSize:    env.Int("CHUNK_SIZE", 2000),
		ChunkOverlap: env.Int("CHUNK_OVERLAP", 200),

		CookieFile:     env.Str("COOKIE_FILE", "cookies.txt"),
		SessionMethod:  env.Str("SESSION_METHOD", SessionBrowser),
		GoogleEmail:    env.Str("GOOGLE_EMAIL", ""),
		GooglePassword: env.Str("GOOGLE_PASSWORD", ""),
		LoginURL:       env.Str("LOGIN_URL", ""),
		ChromePath:     env.Str("CHROME_PATH", ""),
		BrowserScrape:  envBool("BROWSER_SCRAPE", true),

		YtDlpPath:      env.Str("YTDLP_PATH", "yt-dlp"),
		FFmpegPath:     env.Str("FFMPEG_PATH", "ffmpeg"),
		WhisperAPIKey:  env.Str("WHISPER_API_KEY", env.Str("LLM_API_KEY", "")),
		WhisperAPIBase: env.Str("WHISPER_API_BASE", "https://api.groq.com/openai/v1"),
		WhisperModel:   env.Str("WHISPER_MODEL", "whisper-large-v3"),

		RedisURL:             env.Str("REDIS_URL", ""),
		CacheTTL:             env.Duration("CACHE_TTL", 24*time.Hour),
		CacheMaxEntries:      env.Int("CACHE_MAX_ENTRIES", 500),
		CacheCleanupInterval: env.Duration("CACHE_CLEANUP_INTERVAL", 300*time.Second),

		DatabaseURL:   env.Str("DATABASE_URL", ""),
		HistoryPath:   env.Str("HISTORY_PATH", "ytsum.db"),
		TemplatesFile: env.Str("TEMPLATES_FILE", ""),

		MCPPort:        env.Str("MCP_PORT", "8893"),
		WebshareAPIKey: env.Str("WEBSHARE_API_KEY", ""),
		FetchTimeout:   env.Duration("FETCH_TIMEOUT", 15*time.Second),
	}
}

// HTTPClient returns a pooled client honoring FetchTimeout.
func (c Config) HTTPClient() *http.Client {
	return &http.Client{
		Timeout: c.FetchTimeout,
		Transport: &http.Transport{
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     60 * time.Second,
		},
	}
}

func envBool(key string, def bool) bool {
	v, err := strconv.ParseBool(env.Str(key, strconv.FormatBool(def)))
	if err != nil {
		return def
	}
	return v
}
