package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds client settings for the QuickNotes terminal app.
type Config struct {
	RemoteURL string // base URL of the remote table service (ex: https://xyz.supabase.co)
	APIKey    string // anon/service key sent with every request

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	PageSize       int           // notes per page (default: 10)
	DebounceWindow time.Duration // quiet period before a search fires (default: 300ms)
	HTTPTimeout    time.Duration // per-request timeout for remote calls (default: 10s)
	HealthInterval time.Duration // connection status poll interval (default: 30s)

	TokenFile string // override for the cached session token path (default: user config dir)
}

// ServerConfig holds settings for the devserver stand-in.
type ServerConfig struct {
	ListenPort      string        // ex: ":8090"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string
	PrettyLog bool

	JWTSecret string        // HS256 signing secret for issued tokens
	TokenTTL  time.Duration // issued token lifetime (default: 24h)

	SeedFile string // optional YAML seed notes file (empty = no seed)

	// Redis (optional; empty addr = in-memory store)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RateRPS   int // rate limit: requests per second
	RateBurst int // rate limit: burst size
}

// Load reads client configuration from the environment. A .env file in the
// working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		RemoteURL: requireEnv("QUICKNOTES_REMOTE_URL"),
		APIKey:    requireEnv("QUICKNOTES_API_KEY"),

		// The command loop shares stdout with log output, so default to quiet.
		LogLevel:  getenv("QUICKNOTES_LOG_LEVEL", "warn"),
		PrettyLog: mustBool("QUICKNOTES_PRETTY_LOG", true),

		PageSize:       getenvInt("QUICKNOTES_PAGE_SIZE", 10),
		DebounceWindow: mustDuration("QUICKNOTES_DEBOUNCE_WINDOW", 300*time.Millisecond),
		HTTPTimeout:    mustDuration("QUICKNOTES_HTTP_TIMEOUT", 10*time.Second),
		HealthInterval: mustDuration("QUICKNOTES_HEALTH_INTERVAL", 30*time.Second),

		TokenFile: getenv("QUICKNOTES_TOKEN_FILE", ""),
	}

	if !strings.HasPrefix(cfg.RemoteURL, "http://") && !strings.HasPrefix(cfg.RemoteURL, "https://") {
		return nil, fmt.Errorf("QUICKNOTES_REMOTE_URL must be an http(s) URL, got %q", cfg.RemoteURL)
	}
	if cfg.PageSize < 1 {
		return nil, fmt.Errorf("QUICKNOTES_PAGE_SIZE must be >= 1, got %d", cfg.PageSize)
	}
	if cfg.DebounceWindow <= 0 {
		return nil, fmt.Errorf("QUICKNOTES_DEBOUNCE_WINDOW must be > 0, got %v", cfg.DebounceWindow)
	}

	return cfg, nil
}

// LoadServer reads devserver configuration from the environment.
func LoadServer() (*ServerConfig, error) {
	_ = godotenv.Load()

	cfg := &ServerConfig{
		ListenPort:      getenv("QUICKNOTES_DEV_LISTEN_PORT", ":8090"),
		ShutdownTimeout: mustDuration("QUICKNOTES_DEV_SHUTDOWN_TIMEOUT", 5*time.Second),

		LogLevel:  getenv("QUICKNOTES_DEV_LOG_LEVEL", "info"),
		PrettyLog: mustBool("QUICKNOTES_DEV_PRETTY_LOG", true),

		JWTSecret: getenv("QUICKNOTES_DEV_JWT_SECRET", "quicknotes-dev-secret"),
		TokenTTL:  mustDuration("QUICKNOTES_DEV_TOKEN_TTL", 24*time.Hour),

		SeedFile: getenv("QUICKNOTES_DEV_SEED_FILE", ""),

		RedisAddr:     getenv("QUICKNOTES_DEV_REDIS_ADDR", ""),
		RedisPassword: getenv("QUICKNOTES_DEV_REDIS_PASSWORD", ""),
		RedisDB:       getenvInt("QUICKNOTES_DEV_REDIS_DB", 0),

		RateRPS:   getenvInt("QUICKNOTES_DEV_RATE_RPS", 50),
		RateBurst: getenvInt("QUICKNOTES_DEV_RATE_BURST", 100),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("QUICKNOTES_DEV_JWT_SECRET must not be empty")
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("QUICKNOTES_DEV_TOKEN_TTL must be > 0, got %v", cfg.TokenTTL)
	}

	return cfg, nil
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
