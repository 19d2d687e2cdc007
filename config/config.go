package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment variables
type Config struct {
	PGURL string
	AVKey string
	Port  string

	LogLevel  string
	LogFormat string

	QuoteTTL             time.Duration
	QuoteStaleMax        time.Duration
	AVRequestsPerMinute  int
	QuoteRefreshSchedule string

	RebalanceThreshold float64
	DefaultStrategy    string
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first; variables already set in the shell win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	pgURL := os.Getenv("PG_URL")
	if pgURL == "" {
		return nil, fmt.Errorf("PG_URL environment variable is required")
	}

	avKey := os.Getenv("AV_KEY")
	if avKey == "" {
		return nil, fmt.Errorf("AV_KEY environment variable is required")
	}

	cfg := &Config{
		PGURL:                pgURL,
		AVKey:                avKey,
		Port:                 getenv("PORT", "8080"),
		LogLevel:             getenv("LOG_LEVEL", "info"),
		LogFormat:            getenv("LOG_FORMAT", "text"),
		QuoteRefreshSchedule: "@every 15m",
		DefaultStrategy:      getenv("DEFAULT_STRATEGY", "Balanced AI"),
	}

	// An explicitly empty schedule disables the refresh job.
	if v, ok := os.LookupEnv("QUOTE_REFRESH_SCHEDULE"); ok {
		cfg.QuoteRefreshSchedule = v
	}

	var err error
	if cfg.QuoteTTL, err = durationEnv("QUOTE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.QuoteStaleMax, err = durationEnv("QUOTE_STALE_MAX", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.AVRequestsPerMinute, err = intEnv("AV_REQUESTS_PER_MINUTE", 5); err != nil {
		return nil, err
	}
	if cfg.AVRequestsPerMinute <= 0 {
		return nil, fmt.Errorf("AV_REQUESTS_PER_MINUTE must be positive, got %d", cfg.AVRequestsPerMinute)
	}
	if cfg.RebalanceThreshold, err = floatEnv("REBALANCE_THRESHOLD", 5); err != nil {
		return nil, err
	}
	if math.IsNaN(cfg.RebalanceThreshold) || cfg.RebalanceThreshold < 0 || cfg.RebalanceThreshold > 100 {
		return nil, fmt.Errorf("REBALANCE_THRESHOLD must be between 0 and 100, got %v", cfg.RebalanceThreshold)
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return f, nil
}
