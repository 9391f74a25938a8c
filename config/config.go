package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"sjsage522/partsworker/pkg/errors"
)

// Config represents the application configuration
type Config struct {
	// Target site
	SiteBaseURL     string
	RequestTimeout  time.Duration
	RetryAttempts   int
	RetryBackoff    time.Duration
	RequestInterval time.Duration
	MaxPages        int
	BlockTime       time.Duration

	// Memcache configuration, empty address disables the rate limit flag
	MemcacheAddr string

	// Redis configuration, empty address disables the stream sink
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// SQLite database file
	DBPath string

	// Job API
	Port       string
	JobTimeout time.Duration

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	return Config{
		SiteBaseURL:          getEnv("SITE_BASE_URL", "https://www.onderdelenlijn.nl"),
		RequestTimeout:       time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 20)) * time.Second,
		RetryAttempts:        getEnvInt("RETRY_ATTEMPTS", 1),
		RetryBackoff:         time.Duration(getEnvInt("RETRY_BACKOFF_MS", 1000)) * time.Millisecond,
		RequestInterval:      time.Duration(getEnvInt("REQUEST_INTERVAL_MS", 500)) * time.Millisecond,
		MaxPages:             getEnvInt("MAX_PAGES", 50),
		BlockTime:            time.Duration(getEnvInt("RATE_LIMIT_BLOCK_SECONDS", 300)) * time.Second,
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", ""),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		RedisStream:          getEnv("REDIS_STREAM", "parts"),
		RedisStreamCount:     getEnvInt("REDIS_STREAM_COUNT", 1),
		RedisStreamMaxLength: getEnvInt("REDIS_STREAM_MAX_LENGTH", 10000),
		DBPath:               getEnv("DB_PATH", "onderdelen.db"),
		Port:                 getEnv("PORT", "5000"),
		JobTimeout:           time.Duration(getEnvInt("JOB_TIMEOUT_SECONDS", 240)) * time.Second,
		Environment:          getEnv("SCRAPER_ENVIRONMENT", "development"),
	}
}

// Validate checks that the configuration can be used to run scrapes
func (c Config) Validate() error {
	u, err := url.Parse(c.SiteBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.NewConfiguration(fmt.Sprintf("invalid SITE_BASE_URL %q", c.SiteBaseURL), err)
	}
	if c.RequestTimeout <= 0 {
		return errors.NewConfiguration("REQUEST_TIMEOUT_SECONDS must be positive", nil)
	}
	if c.RetryAttempts < 0 {
		return errors.NewConfiguration("RETRY_ATTEMPTS must not be negative", nil)
	}
	if c.MaxPages <= 0 {
		return errors.NewConfiguration("MAX_PAGES must be positive", nil)
	}
	if c.RedisAddr != "" && c.RedisStreamCount <= 0 {
		return errors.NewConfiguration("REDIS_STREAM_COUNT must be positive", nil)
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return errors.NewConfiguration(fmt.Sprintf("invalid PORT %q", c.Port), err)
	}
	if c.JobTimeout <= 0 {
		return errors.NewConfiguration("JOB_TIMEOUT_SECONDS must be positive", nil)
	}
	return nil
}

// IsProduction reports whether the worker runs in production
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an integer environment variable, falling back on parse errors
func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return value
}
