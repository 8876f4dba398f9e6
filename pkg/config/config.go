package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Network partitions persisted gift-card state alongside the wallet's
// blockchain network selection.
const (
	NetworkLivenet = "livenet"
	NetworkTestnet = "testnet"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	BitPay    BitPayConfig
	Sentry    SentryConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	Environment  string
	ServiceName  string
	ReadTimeout  int
	WriteTimeout int
	CORSOrigins  string // Comma-separated list of allowed origins
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// BitPayConfig holds merchant API configuration
type BitPayConfig struct {
	Network        string // livenet or testnet
	LivenetURL     string
	TestnetURL     string
	RequestTimeout int // seconds, applies to invoice/redemption calls
	RetryAttempts  int
}

// SentryConfig holds crash reporting configuration
type SentryConfig struct {
	DSN     string
	Enabled bool
}

// RateLimitConfig holds request rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	WindowSeconds     int
	DefaultLimit      int
	DefaultBurst      int
	AnonymousLimit    int
	AnonymousBurst    int
	RedisPrefix       string
	EndpointOverrides map[string]EndpointRateLimitConfig
}

// EndpointRateLimitConfig overrides the default limits for one endpoint.
// Zero limits fall back to the defaults; bursts are taken as-is.
type EndpointRateLimitConfig struct {
	AuthenticatedLimit int
	AuthenticatedBurst int
	AnonymousLimit     int
	AnonymousBurst     int
	WindowSeconds      int
}

// Window returns the rate-limit window, defaulting to one minute.
func (c *RateLimitConfig) Window() time.Duration {
	if c.WindowSeconds > 0 {
		return time.Duration(c.WindowSeconds) * time.Second
	}
	return time.Minute
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			ServiceName:  serviceName,
			ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 10),
			WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 10),
			CORSOrigins:  getEnv("CORS_ORIGINS", "http://localhost:3000"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		BitPay: BitPayConfig{
			Network:        getEnv("BITPAY_NETWORK", NetworkLivenet),
			LivenetURL:     getEnv("BITPAY_API_URL", "https://bitpay.com"),
			TestnetURL:     getEnv("BITPAY_TESTNET_API_URL", "https://test.bitpay.com"),
			RequestTimeout: getEnvAsInt("BITPAY_REQUEST_TIMEOUT", 3),
			RetryAttempts:  getEnvAsInt("BITPAY_RETRY_ATTEMPTS", 2),
		},
		Sentry: SentryConfig{
			DSN:     getEnv("SENTRY_DSN", ""),
			Enabled: getEnvAsBool("SENTRY_ENABLED", false),
		},
		RateLimit: RateLimitConfig{
			Enabled:        getEnvAsBool("RATE_LIMIT_ENABLED", true),
			WindowSeconds:  getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 60),
			DefaultLimit:   getEnvAsInt("RATE_LIMIT_DEFAULT", 100),
			DefaultBurst:   getEnvAsInt("RATE_LIMIT_BURST", 10),
			AnonymousLimit: getEnvAsInt("RATE_LIMIT_ANONYMOUS", 30),
			AnonymousBurst: getEnvAsInt("RATE_LIMIT_ANONYMOUS_BURST", 5),
			RedisPrefix:    getEnv("RATE_LIMIT_REDIS_PREFIX", "rl"),
		},
	}

	if cfg.BitPay.Network != NetworkLivenet && cfg.BitPay.Network != NetworkTestnet {
		return nil, fmt.Errorf("invalid BITPAY_NETWORK %q", cfg.BitPay.Network)
	}

	return cfg, nil
}

// APIURL returns the merchant API base URL for the configured network.
func (c *BitPayConfig) APIURL() string {
	if c.Network == NetworkTestnet {
		return c.TestnetURL
	}
	return c.LivenetURL
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
