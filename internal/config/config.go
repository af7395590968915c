// Package config loads the service configuration from the environment,
// with an optional .env file for local development.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// API modes.
const (
	ModeMock = "mock"
	ModeLive = "live"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Backoffice API
	APIMode     string // mock | live
	APIURL      string
	APIToken    string
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Cache
	CacheTTL time.Duration

	// Observability
	OTLPEndpoint   string
	TracingEnabled bool

	// JWT / Auth
	JWTSecret     string
	JWTAccessTTL  time.Duration
	JWTRefreshTTL time.Duration

	// Preferences store. Empty address keeps preferences in memory.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Audit log. Empty URL keeps the audit trail in memory.
	AuditDatabaseURL string

	// HTTP
	SearchRateLimit    string // limiter format, e.g. "30-M"
	CORSAllowedOrigins []string
	DefaultLanguage    string

	// Mock API
	MockSeed             int64
	MockTransactionCount int
}

var defaults = map[string]any{
	"PORT":                        8080,
	"LOG_LEVEL":                   "info",
	"API_MODE":                    ModeMock,
	"BACKOFFICE_API_URL":          "http://localhost:8081",
	"BACKOFFICE_API_TOKEN":        "",
	"HTTP_TIMEOUT":                10 * time.Second,
	"MAX_RETRIES":                 3,
	"INITIAL_BACKOFF":             100 * time.Millisecond,
	"MAX_CONCURRENCY":             50,
	"CACHE_TTL":                   5 * time.Minute,
	"OTEL_EXPORTER_OTLP_ENDPOINT": "localhost:4317",
	"TRACING_ENABLED":             false,
	"JWT_SECRET":                  "backoffice-dev-secret-change-me",
	"JWT_ACCESS_TTL":              15 * time.Minute,
	"JWT_REFRESH_TTL":             7 * 24 * time.Hour,
	"REDIS_ADDR":                  "",
	"REDIS_PASSWORD":              "",
	"REDIS_DB":                    0,
	"AUDIT_DATABASE_URL":          "",
	"SEARCH_RATE_LIMIT":           "30-M",
	"CORS_ALLOWED_ORIGINS":        "*",
	"DEFAULT_LANGUAGE":            "en",
	"MOCK_SEED":                   42,
	"MOCK_TRANSACTION_COUNT":      300,
}

// Load reads configuration from the environment. A .env file at envFile,
// when present, fills variables that are not already set.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		// a missing file is fine: the environment alone is enough
		_ = godotenv.Load(envFile)
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	cfg := &Config{
		Port:     v.GetInt("PORT"),
		LogLevel: v.GetString("LOG_LEVEL"),

		APIMode:     strings.ToLower(v.GetString("API_MODE")),
		APIURL:      v.GetString("BACKOFFICE_API_URL"),
		APIToken:    v.GetString("BACKOFFICE_API_TOKEN"),
		HTTPTimeout: v.GetDuration("HTTP_TIMEOUT"),

		MaxRetries:     v.GetInt("MAX_RETRIES"),
		InitialBackoff: v.GetDuration("INITIAL_BACKOFF"),
		MaxConcurrency: v.GetInt("MAX_CONCURRENCY"),

		CacheTTL: v.GetDuration("CACHE_TTL"),

		OTLPEndpoint:   v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TracingEnabled: v.GetBool("TRACING_ENABLED"),

		JWTSecret:     v.GetString("JWT_SECRET"),
		JWTAccessTTL:  v.GetDuration("JWT_ACCESS_TTL"),
		JWTRefreshTTL: v.GetDuration("JWT_REFRESH_TTL"),

		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),

		AuditDatabaseURL: v.GetString("AUDIT_DATABASE_URL"),

		SearchRateLimit:    v.GetString("SEARCH_RATE_LIMIT"),
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		DefaultLanguage:    v.GetString("DEFAULT_LANGUAGE"),

		MockSeed:             v.GetInt64("MOCK_SEED"),
		MockTransactionCount: v.GetInt("MOCK_TRANSACTION_COUNT"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.APIMode {
	case ModeMock:
	case ModeLive:
		if c.APIURL == "" {
			return fmt.Errorf("BACKOFFICE_API_URL is required when API_MODE=%s", ModeLive)
		}
	default:
		return fmt.Errorf("API_MODE must be %q or %q, got %q", ModeMock, ModeLive, c.APIMode)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
