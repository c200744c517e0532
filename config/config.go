package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL string

	// Result provider configuration
	ProviderBaseURL string
	ProviderAPIKey  string
	ProviderTimeout time.Duration

	// Redis fixture cache (optional; empty address disables caching)
	RedisAddr       string
	FixtureCacheTTL time.Duration

	// Settlement configuration
	SettlementWorkers  int
	SettlementInterval time.Duration

	// Metrics server
	MetricsPort string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		ProviderBaseURL: os.Getenv("RESULT_PROVIDER_URL"),
		ProviderAPIKey:  os.Getenv("RESULT_PROVIDER_API_KEY"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		MetricsPort:     os.Getenv("METRICS_PORT"),
		Environment:     os.Getenv("ENVIRONMENT"),

		// Defaults
		ProviderTimeout:    10 * time.Second,
		FixtureCacheTTL:    24 * time.Hour,
		SettlementWorkers:  8,
		SettlementInterval: 5 * time.Minute,
	}

	if timeout := os.Getenv("RESULT_PROVIDER_TIMEOUT_SECONDS"); timeout != "" {
		if parsed, err := strconv.Atoi(timeout); err == nil && parsed > 0 {
			config.ProviderTimeout = time.Duration(parsed) * time.Second
		}
	}
	if workers := os.Getenv("SETTLEMENT_WORKERS"); workers != "" {
		if parsed, err := strconv.Atoi(workers); err == nil && parsed > 0 {
			config.SettlementWorkers = parsed
		}
	}
	if interval := os.Getenv("SETTLEMENT_INTERVAL_SECONDS"); interval != "" {
		if parsed, err := strconv.Atoi(interval); err == nil && parsed > 0 {
			config.SettlementInterval = time.Duration(parsed) * time.Second
		}
	}

	if config.MetricsPort == "" {
		config.MetricsPort = "9091"
	}
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.ProviderBaseURL == "" {
			return nil, fmt.Errorf("RESULT_PROVIDER_URL is required")
		}
	}

	return config, nil
}
