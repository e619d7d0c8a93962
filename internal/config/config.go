package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the service configuration, read from the environment.
type Config struct {
	Port string

	// Summary completion API.
	SummaryAPIKey      string
	SummaryBaseURL     string
	SummaryModel       string
	SummaryTemperature float32
	SummaryMaxTokens   int

	// GoogleAPIKey enables title lookup through the Data API.
	GoogleAPIKey string
	// YtDlpPath is the fallback extractor binary. Empty disables the fallback.
	YtDlpPath string
	// YtDlpTimeout bounds one fallback extraction. A failed fetch takes at most
	// FetchAttempts*FetchAttemptTimeout + (FetchAttempts-1)*FetchBackoff + YtDlpTimeout.
	YtDlpTimeout time.Duration

	RedisURL        string
	CaptionCacheTTL time.Duration

	FetchAttempts       int
	FetchBackoff        time.Duration
	FetchAttemptTimeout time.Duration
	GroupInterval       time.Duration

	LogLevel  string
	LogFormat string
}

// Load reads the configuration. Unset variables take their defaults;
// malformed values are an error.
func Load() (*Config, error) {
	l := &loader{}
	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		SummaryAPIKey:       os.Getenv("DEEPSEEK_API_KEY"),
		SummaryBaseURL:      getEnv("SUMMARY_BASE_URL", "https://api.deepseek.com"),
		SummaryModel:        getEnv("SUMMARY_MODEL", "deepseek-chat"),
		SummaryTemperature:  float32(l.float("SUMMARY_TEMPERATURE", 0.7)),
		SummaryMaxTokens:    l.int("SUMMARY_MAX_TOKENS", 2000),
		GoogleAPIKey:        os.Getenv("GOOGLE_API_KEY"),
		YtDlpPath:           lookupEnv("YTDLP_PATH", "yt-dlp"),
		YtDlpTimeout:        l.duration("YTDLP_TIMEOUT", 45*time.Second),
		RedisURL:            os.Getenv("REDIS_URL"),
		CaptionCacheTTL:     l.duration("CAPTION_CACHE_TTL", 6*time.Hour),
		FetchAttempts:       l.int("FETCH_ATTEMPTS", 3),
		FetchBackoff:        l.duration("FETCH_BACKOFF", 1500*time.Millisecond),
		FetchAttemptTimeout: l.duration("FETCH_ATTEMPT_TIMEOUT", 10*time.Second),
		GroupInterval:       l.duration("GROUP_INTERVAL", 30*time.Second),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "text"),
	}
	if l.err != nil {
		return nil, l.err
	}
	if cfg.FetchAttempts < 1 {
		return nil, fmt.Errorf("config: FETCH_ATTEMPTS must be at least 1, got %d", cfg.FetchAttempts)
	}
	// The completion client omits a zero temperature, which would silently
	// fall back to the provider default.
	if cfg.SummaryTemperature <= 0 || cfg.SummaryTemperature > 2 {
		return nil, fmt.Errorf("config: SUMMARY_TEMPERATURE must be in (0, 2], got %v", cfg.SummaryTemperature)
	}
	if cfg.YtDlpTimeout <= 0 {
		return nil, fmt.Errorf("config: YTDLP_TIMEOUT must be positive, got %s", cfg.YtDlpTimeout)
	}
	if cfg.GroupInterval <= 0 {
		return nil, fmt.Errorf("config: GROUP_INTERVAL must be positive, got %s", cfg.GroupInterval)
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// Logger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// lookupEnv is like getEnv but keeps an explicitly empty value.
func lookupEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

// loader keeps the first parse error so Load can report it once.
type loader struct {
	err error
}

func (l *loader) int(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		l.fail(key, v, err)
		return fallback
	}
	return n
}

func (l *loader) float(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		l.fail(key, v, err)
		return fallback
	}
	return f
}

func (l *loader) duration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		l.fail(key, v, err)
		return fallback
	}
	return d
}

func (l *loader) fail(key, value string, err error) {
	if l.err == nil {
		l.err = fmt.Errorf("config: invalid %s %q: %w", key, value, err)
	}
}
