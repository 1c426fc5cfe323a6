/**
 * @description
 * Configuration loader for the catalog backend.
 * Responsible for reading environment variables, setting defaults, and performing strict validation.
 *
 * @dependencies
 * - github.com/joho/godotenv: For loading .env files
 * - standard "os": For reading env vars
 *
 * @notes
 * - Fails fast if the database URL is missing.
 * - The ETL section is shared by cmd/sync, cmd/worker and the admin trigger in cmd/api.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig
	DB      DBConfig
	Redis   RedisConfig
	ETL     ETLConfig
	Auth    AuthConfig
	Metrics MetricsConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port     string
	Env      string // "development", "staging", "production" or "test"
	CacheTTL time.Duration
}

// DBConfig holds PostgreSQL settings
type DBConfig struct {
	URL          string
	MaxOpenConns int  // 0 means derive from ETL.Workers
	AutoMigrate  bool // apply schema migrations on connect
}

// RedisConfig holds Redis settings
type RedisConfig struct {
	URL      string
	PoolSize int
	Timeout  time.Duration // dial, read and write timeout
}

// ETLConfig holds reconciliation pipeline settings
type ETLConfig struct {
	BatchLimit          int // 0 means no limit
	Workers             int
	MaxReportedFailures int
	Schedule            string // cron spec for cmd/worker
	RunLockTTL          time.Duration
	VocabularyPath      string // optional YAML condition vocabulary
}

// AuthConfig holds admin endpoint credentials
type AuthConfig struct {
	JobSecret string // HMAC secret for admin JWTs
	JWKSURL   string // optional; takes precedence over JobSecret
}

// MetricsConfig holds the Prometheus listener used by cmd/worker
type MetricsConfig struct {
	Addr string
}

// Load reads .env file and populates the Config struct
func Load() (*Config, error) {
	// Attempt to load .env, but don't crash if it fails (k8s/prod might inject env vars directly)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:     getEnv("PORT", "8080"),
			Env:      getEnv("GO_ENV", "development"),
			CacheTTL: time.Duration(getEnvAsInt("CACHE_TTL_SECONDS", 300)) * time.Second,
		},
		DB: DBConfig{
			URL:          getEnv("DATABASE_URL", ""),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 0),
			AutoMigrate:  getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			PoolSize: getEnvAsInt("REDIS_POOL_SIZE", 10),
			Timeout:  time.Duration(getEnvAsInt("REDIS_TIMEOUT_SECONDS", 5)) * time.Second,
		},
		ETL: ETLConfig{
			BatchLimit:          getEnvAsInt("ETL_BATCH_LIMIT", 0),
			Workers:             getEnvAsInt("ETL_WORKERS", 4),
			MaxReportedFailures: getEnvAsInt("ETL_MAX_REPORTED_FAILURES", 20),
			Schedule:            getEnv("ETL_SCHEDULE", "10 * * * *"),
			RunLockTTL:          time.Duration(getEnvAsInt("ETL_RUN_LOCK_TTL_SECONDS", 900)) * time.Second,
			VocabularyPath:      strings.TrimSpace(getEnv("CONDITION_VOCAB_PATH", "")),
		},
		Auth: AuthConfig{
			JobSecret: sanitizeCredential(getEnv("JOB_SYNC_SECRET", "")),
			JWKSURL:   getEnv("ADMIN_JWKS_URL", ""),
		},
		Metrics: MetricsConfig{
			Addr: getEnv("METRICS_ADDR", ":9090"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks for required variables
func validate(cfg *Config) error {
	if cfg.DB.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.ETL.BatchLimit < 0 {
		return fmt.Errorf("ETL_BATCH_LIMIT must not be negative, got %d", cfg.ETL.BatchLimit)
	}
	if cfg.ETL.Workers < 1 {
		cfg.ETL.Workers = 1
	}
	if cfg.DB.MaxOpenConns < 0 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must not be negative, got %d", cfg.DB.MaxOpenConns)
	}
	if cfg.Auth.JobSecret == "" && cfg.Auth.JWKSURL == "" && cfg.Server.Env != "test" {
		fmt.Println("Warning: JOB_SYNC_SECRET and ADMIN_JWKS_URL are empty. Admin endpoints will reject every request.")
	}
	return nil
}

// Helper to get env var with default
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func sanitizeCredential(value string) string {
	trimmed := strings.TrimSpace(value)
	return strings.Trim(trimmed, "\"")
}

// Helper to get env var as int
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

// Helper to get env var as bool
func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}
