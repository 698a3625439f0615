// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing or malformed, the process
// exits with an error.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration for the posting service.
type Config struct {
	Port        string
	GRPCPort    string
	DatabaseURL string
	RedisURL    string

	ElasticsearchURL   string // empty disables candidate search
	ElasticsearchIndex string

	GeminiAPIKey string // empty disables content assist
	GeminiModel  string

	TokensPerPost       int
	FeaturedSweepSpec   string // cron spec, e.g. "@every 15m"
	EntitlementCacheTTL time.Duration
	LogLevel            string
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	tokens := 1
	if s := os.Getenv("TOKENS_PER_POST"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("TOKENS_PER_POST must be a non-negative integer, got %q", s)
		}
		tokens = v
	}

	ttl := 30 * time.Second
	if s := os.Getenv("ENTITLEMENT_CACHE_TTL"); s != "" {
		v, err := time.ParseDuration(s)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("ENTITLEMENT_CACHE_TTL must be a positive duration, got %q", s)
		}
		ttl = v
	}

	return &Config{
		Port:                getenv("POSTING_PORT", "8083"),
		GRPCPort:            getenv("POSTING_GRPC_PORT", "9083"),
		DatabaseURL:         dbURL,
		RedisURL:            redisURL,
		ElasticsearchURL:    os.Getenv("ELASTICSEARCH_URL"),
		ElasticsearchIndex:  getenv("ELASTICSEARCH_INDEX", "job_postings"),
		GeminiAPIKey:        os.Getenv("GEMINI_API_KEY"),
		GeminiModel:         getenv("GEMINI_MODEL", "gemini-2.0-flash"),
		TokensPerPost:       tokens,
		FeaturedSweepSpec:   getenv("FEATURED_SWEEP_SPEC", "@every 15m"),
		EntitlementCacheTTL: ttl,
		LogLevel:            getenv("LOG_LEVEL", "info"),
	}, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
