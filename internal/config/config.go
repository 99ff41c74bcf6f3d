package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Common
	Env      string
	LogLevel string
	// API
	Port        string
	DatabaseURL string
	// Providers
	CurrencyBeaconURL  string
	CurrencyBeaconKey  string
	ExchangeRateAPIURL string
	ExchangeRateAPIKey string
	RequestTimeout     time.Duration
	// Backfill
	BackfillConcurrency int
	// Worker
	WorkerPoll      time.Duration
	WorkerBatchSize int
	// Redis (idempotency)
	IdempotencyBackend string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	RedisTTL           time.Duration
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoiDef(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

// Load reads environment variables and applies defaults.
func Load() Config {
	return Config{
		Env:                 getEnv("ENV", "local"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		Port:                getEnv("PORT", "8080"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		CurrencyBeaconURL:   getEnv("CURRENCY_BEACON_URL", "https://api.currencybeacon.com/v1"),
		CurrencyBeaconKey:   getEnv("CURRENCY_BEACON_KEY", ""),
		ExchangeRateAPIURL:  getEnv("EXCHANGERATE_API_URL", "https://v6.exchangerate-api.com/v6"),
		ExchangeRateAPIKey:  getEnv("EXCHANGERATE_API_KEY", ""),
		RequestTimeout:      time.Duration(atoiDef(getEnv("REQUEST_TIMEOUT_MS", "10000"), 10000)) * time.Millisecond,
		BackfillConcurrency: atoiDef(getEnv("BACKFILL_CONCURRENCY", "8"), 8),
		WorkerPoll:          time.Duration(atoiDef(getEnv("WORKER_POLL_MS", "1000"), 1000)) * time.Millisecond,
		WorkerBatchSize:     atoiDef(getEnv("WORKER_BATCH_LIMIT", "1"), 1),
		IdempotencyBackend:  getEnv("IDEMPOTENCY_BACKEND", "none"),
		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisDB:             atoiDef(getEnv("REDIS_DB", "0"), 0),
		RedisTTL:            time.Duration(atoiDef(getEnv("IDEMPOTENCY_TTL_MS", "86400000"), 86400000)) * time.Millisecond,
	}
}
