package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	ServerPort  string
	DatabaseURL string
	RedisURL    string
	JWTSecret   string

	HubspotClientID     string
	HubspotClientSecret string
	HubspotBaseURL      string

	SyncSchedule string
	Sync         SyncConfig
}

// SyncConfig exposes the worker's tuning knobs. The defaults mirror the
// upstream API's limits (pages of 100, ~10k max search depth) but none of
// them are load-bearing constants in code.
type SyncConfig struct {
	PageLimit      int
	MaxOffset      int
	FlushThreshold int
	QueueCapacity  int
	MaxRetries     int
	RetryBaseDelay time.Duration
}

func LoadConfig() (*Config, error) {
	baseDelayStr := getEnv("SYNC_RETRY_BASE_DELAY", "5s")
	baseDelay, err := time.ParseDuration(baseDelayStr)
	if err != nil {
		return nil, errors.New("invalid SYNC_RETRY_BASE_DELAY format")
	}

	cfg := &Config{
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),

		HubspotClientID:     os.Getenv("HUBSPOT_CID"),
		HubspotClientSecret: os.Getenv("HUBSPOT_CS"),
		HubspotBaseURL:      getEnv("HUBSPOT_BASE_URL", "https://api.hubapi.com"),

		SyncSchedule: getEnv("SYNC_SCHEDULE", "0 0 * * *"),
	}

	cfg.Sync = SyncConfig{
		RetryBaseDelay: baseDelay,
	}
	if cfg.Sync.PageLimit, err = getEnvInt("SYNC_PAGE_LIMIT", 100); err != nil {
		return nil, err
	}
	if cfg.Sync.MaxOffset, err = getEnvInt("SYNC_MAX_OFFSET", 9900); err != nil {
		return nil, err
	}
	if cfg.Sync.FlushThreshold, err = getEnvInt("SYNC_FLUSH_THRESHOLD", 2000); err != nil {
		return nil, err
	}
	if cfg.Sync.QueueCapacity, err = getEnvInt("SYNC_QUEUE_CAPACITY", 1000); err != nil {
		return nil, err
	}
	if cfg.Sync.MaxRetries, err = getEnvInt("SYNC_MAX_RETRIES", 4); err != nil {
		return nil, err
	}

	// Validate required fields
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.HubspotClientID == "" {
		return nil, errors.New("HUBSPOT_CID is required")
	}
	if cfg.HubspotClientSecret == "" {
		return nil, errors.New("HUBSPOT_CS is required")
	}

	return cfg, nil
}

// Helper: get env with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
