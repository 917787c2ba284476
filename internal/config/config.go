// Package config handles loading and validating configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the radar.
type Config struct {
	// Feed
	GammaAPIURL  string
	MarketLimit  int
	FetchTimeout time.Duration

	// Alert thresholds (percentage points / USD)
	ChangeThreshold float64
	DeltaThreshold  float64
	// HighVolumeThreshold defaults to 150000 USD. The project docs at one
	// point also mentioned 200000; the operative value is 150000 and it is
	// configurable here.
	HighVolumeThreshold float64

	// Compliance
	ExcludeKeywords []string

	// History
	HistoryPath string

	// Telegram push
	TelegramBotToken string
	TelegramChatID   string
	EnableTelegram   bool

	// Live watch (WebSocket price stream between scans)
	PolymarketWSURL string

	// Scheduling
	ScanSchedule string

	// Metrics
	MetricsPort int

	// Logging
	LogLevel string
}

// DefaultExcludeKeywords is the built-in compliance exclusion list. Matching
// is case-insensitive substring containment on the event title.
var DefaultExcludeKeywords = []string{"Taiwan", "台灣"}

// Load reads configuration from environment variables with fallback to .env file.
// Priority order: Environment variables > .env file > hardcoded defaults
func Load() (*Config, error) {
	// Attempt to load .env file (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		// Feed
		GammaAPIURL:  getEnv("GAMMA_API_URL", "https://gamma-api.polymarket.com/markets"),
		MarketLimit:  getEnvInt("MARKET_LIMIT", 500),
		FetchTimeout: time.Duration(getEnvInt("FETCH_TIMEOUT_SECONDS", 30)) * time.Second,

		// Thresholds
		ChangeThreshold:     getEnvFloat("CHANGE_THRESHOLD", 5.0),
		DeltaThreshold:      getEnvFloat("DELTA_THRESHOLD", 2.0),
		HighVolumeThreshold: getEnvFloat("HIGH_VOLUME_THRESHOLD", 150000),

		// Compliance
		ExcludeKeywords: getEnvList("EXCLUDE_KEYWORDS", DefaultExcludeKeywords),

		// History
		HistoryPath: getEnv("HISTORY_PATH", "history.json"),

		// Telegram
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
		EnableTelegram:   getEnvBool("ENABLE_TELEGRAM", false),

		// Live watch
		PolymarketWSURL: getEnv("POLYMARKET_WS_URL", "wss://ws-subscriptions-clob.polymarket.com/ws/"),

		// Scheduling
		ScanSchedule: getEnv("SCAN_SCHEDULE", "@hourly"),

		// Metrics
		MetricsPort: getEnvInt("METRICS_PORT", 9091),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "INFO"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set and valid.
func (c *Config) Validate() error {
	if c.GammaAPIURL == "" {
		return fmt.Errorf("GAMMA_API_URL is required")
	}

	if c.MarketLimit < 1 {
		return fmt.Errorf("MARKET_LIMIT must be at least 1")
	}

	if c.ChangeThreshold <= 0 {
		return fmt.Errorf("CHANGE_THRESHOLD must be positive")
	}

	if c.DeltaThreshold <= 0 {
		return fmt.Errorf("DELTA_THRESHOLD must be positive")
	}

	if c.HighVolumeThreshold <= 0 {
		return fmt.Errorf("HIGH_VOLUME_THRESHOLD must be positive")
	}

	if c.HistoryPath == "" {
		return fmt.Errorf("HISTORY_PATH is required")
	}

	if c.EnableTelegram && (c.TelegramBotToken == "" || c.TelegramChatID == "") {
		return fmt.Errorf("ENABLE_TELEGRAM requires TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID")
	}

	if c.MetricsPort < 1 || c.MetricsPort > 65535 {
		return fmt.Errorf("METRICS_PORT must be between 1 and 65535")
	}

	return nil
}

// MaskedBotToken returns the Telegram bot token with most characters hidden for logging.
func (c *Config) MaskedBotToken() string {
	return maskSecret(c.TelegramBotToken)
}

// maskSecret hides all but the first and last 4 characters of a secret.
func maskSecret(s string) string {
	if len(s) <= 8 {
		if len(s) == 0 {
			return "(not set)"
		}
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an environment variable as an integer or returns a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat retrieves an environment variable as a float64 or returns a default.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// getEnvBool retrieves an environment variable as a boolean or returns a default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvList retrieves a comma-separated environment variable or returns a default.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
