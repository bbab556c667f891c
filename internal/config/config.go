package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	LogLevel    slog.Level

	// Storage selects the snapshot backend: "file" or "redis".
	Storage  string
	SavePath string // file backend
	RedisURL string // redis backend
	SaveKey  string // redis save slot

	// Memory tunables.
	MemoryHalfLife   int64
	MemoryCap        int
	GossipBaseChance float64

	// Observer tunables.
	ObservationRadius float64
	CheckInterval     int64
}

func Load() *Config {
	// A local .env is optional; real env vars win either way.
	_ = godotenv.Load()

	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),

		Storage:  getEnv("STORAGE", "file"),
		SavePath: getEnv("SAVE_PATH", "player_relationships.json"),
		RedisURL: getEnv("REDIS_URL", "localhost:6379"),
		SaveKey:  getEnv("SAVE_KEY", "default"),

		MemoryHalfLife:   getEnvInt64("MEMORY_HALF_LIFE", 10000),
		MemoryCap:        int(getEnvInt64("MEMORY_CAP", 200)),
		GossipBaseChance: getEnvFloat("GOSSIP_BASE_CHANCE", 0.3),

		ObservationRadius: getEnvFloat("OBSERVATION_RADIUS", 300),
		CheckInterval:     getEnvInt64("CHECK_INTERVAL", 1000),
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
