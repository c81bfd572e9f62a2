package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the server settings read from the environment.
type Config struct {
	Port           string
	AllowedOrigins []string

	NATSURL    string
	NATSStream string

	CatalogPath string

	BidTimeLimit time.Duration
	RTMWindow    time.Duration
	AutoAdvance  time.Duration
	CleanupGrace time.Duration
	ChatHistory  int
	RandomSeed   uint64

	LogLevel  string
	LogFormat string
}

// NewConfigFromEnv reads environment variables (with defaults).
func NewConfigFromEnv() Config {
	return Config{
		Port:           getEnv("PORT", "4000"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),
		NATSURL:        getEnv("NATS_URL", ""),
		NATSStream:     getEnv("NATS_STREAM", "AUCTION_EVENTS"),
		CatalogPath:    getEnv("CATALOG_PATH", ""),
		BidTimeLimit:   getEnvAsSeconds("BID_TIME_LIMIT_SEC", 15),
		RTMWindow:      getEnvAsSeconds("RTM_WINDOW_SEC", 10),
		AutoAdvance:    getEnvAsSeconds("AUTO_ADVANCE_SEC", 0),
		CleanupGrace:   getEnvAsSeconds("CLEANUP_GRACE_SEC", 60),
		ChatHistory:    getEnvAsInt("CHAT_HISTORY", 50),
		RandomSeed:     getEnvAsUint("RANDOM_SEED", 0),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "console"),
	}
}

// EventsEnabled reports whether domain events go to NATS.
func (c Config) EventsEnabled() bool {
	return c.NATSURL != ""
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil && v >= 0 {
		return v
	}
	return fallback
}

func getEnvAsUint(key string, fallback uint64) uint64 {
	if v, err := strconv.ParseUint(getEnv(key, ""), 10, 64); err == nil {
		return v
	}
	return fallback
}

func getEnvAsSeconds(key string, fallback int) time.Duration {
	return time.Duration(getEnvAsInt(key, fallback)) * time.Second
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
