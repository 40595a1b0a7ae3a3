package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr  string
	PublicURL string

	// Table store backend: csv (blob-backed files), sqlite, postgres.
	StoreDriver  string
	StoreDSN     string
	BlobBasePath string

	// Read cache over the table store.
	CacheTTL time.Duration

	// Retry policy for store reads/writes.
	RetryMaxAttempts int
	RetryBaseDelay   time.Duration

	// Exam session snapshots.
	SessionTTL          time.Duration
	SessionMaxQuestions int

	AuthHMACSecret string
	TokenTTL       time.Duration

	CORSOrigins []string
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr:  addr,
		PublicURL: os.Getenv("PUBLIC_URL"),

		StoreDriver:  envOr("STORE_DRIVER", "csv"),
		StoreDSN:     envOr("STORE_DSN", ""),
		BlobBasePath: envOr("BLOB_BASE_PATH", "./data"),

		CacheTTL: envDuration("CACHE_TTL", 5*time.Minute),

		RetryMaxAttempts: envInt("RETRY_MAX_ATTEMPTS", 5),
		RetryBaseDelay:   envDuration("RETRY_BASE_DELAY", 500*time.Millisecond),

		SessionTTL:          envDuration("SESSION_TTL", 3*time.Hour),
		SessionMaxQuestions: envInt("SESSION_MAX_QUESTIONS", 200),

		AuthHMACSecret: envOr("AUTH_HMAC_SECRET", "examportal-dev-key"),
		TokenTTL:       envDuration("TOKEN_TTL", 8*time.Hour),

		CORSOrigins: csvOr("CORS_ORIGINS", "http://localhost:3000"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
