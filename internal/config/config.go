package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

type Config struct {
	ServerPort  string
	DatabaseURL string
	RedisURL    string
	JWTSecret   string
	JWTExpiry   time.Duration

	// CallRingTimeout is how long an unanswered call rings before both
	// participants get a timeout. A tunable default, not a business rule.
	CallRingTimeout time.Duration

	// Per-user token bucket for message-bearing socket events.
	MessageRatePerSec float64
	MessageRateBurst  int

	LogLevel string
}

func LoadConfig() (*Config, error) {
	expiry, err := time.ParseDuration(getEnv("JWT_EXPIRY", "168h"))
	if err != nil {
		return nil, errors.New("invalid JWT_EXPIRY format")
	}

	ringTimeout, err := time.ParseDuration(getEnv("CALL_RING_TIMEOUT", "30s"))
	if err != nil {
		return nil, errors.New("invalid CALL_RING_TIMEOUT format")
	}

	ratePerSec, err := strconv.ParseFloat(getEnv("MESSAGE_RATE_PER_SEC", "5"), 64)
	if err != nil {
		return nil, errors.New("invalid MESSAGE_RATE_PER_SEC format")
	}

	rateBurst, err := strconv.Atoi(getEnv("MESSAGE_RATE_BURST", "20"))
	if err != nil {
		return nil, errors.New("invalid MESSAGE_RATE_BURST format")
	}

	cfg := &Config{
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          os.Getenv("REDIS_URL"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		JWTExpiry:         expiry,
		CallRingTimeout:   ringTimeout,
		MessageRatePerSec: ratePerSec,
		MessageRateBurst:  rateBurst,
		LogLevel:          getEnv("LOG_LEVEL", "info"),
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

	return cfg, nil
}

// Helper: get env with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
