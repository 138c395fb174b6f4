package configs

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Realtime RealtimeConfig
	Analysis AnalysisConfig
	Auth     AuthConfig
	Markets  MarketsConfig
	Sync     SyncConfig
	Log      LogConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port    string
	OpsPort string
	Env     string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL string
}

// RealtimeConfig selects the change feed backing the sync layer
type RealtimeConfig struct {
	Driver string // "postgres" or "redis"
	// Relay forwards database notifications to redis; one replica needs it
	Relay bool
}

// AnalysisConfig holds the external analysis service configuration
type AnalysisConfig struct {
	URL               string
	Kind              string // "signal" (POST /api/analyze envelope) or "forex" (FastAPI engine)
	MarketDataURL     string // forex engine serving charts and predictions; defaults to URL when Kind is "forex"
	Timeout           time.Duration
	RequestsPerMin    int
	StatusPollCron    string
	PairRefetchDelay  time.Duration
	SweepRefetchDelay time.Duration
}

// AuthConfig holds session token configuration
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// MarketsConfig lists the pairs shown in the market overview
type MarketsConfig struct {
	Pairs       []string
	RefreshCron string
}

// SyncConfig tunes the data-sync layer
type SyncConfig struct {
	Sequenced bool
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level string
}

// DefaultPairs are the major pairs of the market overview
var DefaultPairs = []string{"EURUSD", "GBPUSD", "USDJPY", "USDCHF", "AUDUSD", "USDCAD"}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:    getEnv("PORT", "8080"),
			OpsPort: getEnv("OPS_PORT", "9090"),
			Env:     getEnv("GO_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
		Realtime: RealtimeConfig{
			Driver: getEnv("REALTIME_DRIVER", "postgres"),
			Relay:  getBool("REALTIME_RELAY", true),
		},
		Analysis: AnalysisConfig{
			URL:               getEnv("ANALYSIS_API_URL", "http://localhost:8000"),
			Kind:              getEnv("ANALYSIS_API_KIND", "signal"),
			MarketDataURL:     getEnv("MARKET_DATA_URL", ""),
			Timeout:           getDuration("ANALYSIS_TIMEOUT", 120*time.Second),
			RequestsPerMin:    getInt("ANALYSIS_RATE_PER_MIN", 30),
			StatusPollCron:    getEnv("ANALYSIS_STATUS_CRON", "@every 1m"),
			PairRefetchDelay:  getDuration("ANALYSIS_PAIR_REFETCH_DELAY", 3*time.Second),
			SweepRefetchDelay: getDuration("ANALYSIS_SWEEP_REFETCH_DELAY", 5*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "default-secret-change-in-production"),
			TokenTTL:  getDuration("TOKEN_TTL", 24*time.Hour),
		},
		Markets: MarketsConfig{
			Pairs:       getList("MARKET_PAIRS", DefaultPairs),
			RefreshCron: getEnv("MARKET_REFRESH_CRON", "0 */5 * * * *"),
		},
		Sync: SyncConfig{
			Sequenced: getBool("SYNC_SEQUENCED", false),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}
}

// MarketDataBaseURL returns the forex engine URL for chart data, empty when none
// is configured
func (c AnalysisConfig) MarketDataBaseURL() string {
	if c.MarketDataURL != "" {
		return c.MarketDataURL
	}
	if c.Kind == "forex" {
		return c.URL
	}
	return ""
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getList splits a comma-separated variable, dropping blanks
func getList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return append([]string(nil), defaultValue...)
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.ToUpper(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), defaultValue...)
	}
	return out
}
