package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ServerEnv holds leaderboard server settings read from the environment.
type ServerEnv struct {
	Addr            string
	DBPath          string
	RateRPS         int
	RateBurst       int
	ShutdownTimeout time.Duration
}

// LoadServerEnv reads .env when present, then the KEYRUSH_* variables.
func LoadServerEnv() ServerEnv {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] Failed to load .env: %v", err)
	}
	return ServerEnv{
		Addr:            getEnv("KEYRUSH_ADDR", ":8080"),
		DBPath:          getEnv("KEYRUSH_DB", DefaultDBPath()),
		RateRPS:         getEnvInt("KEYRUSH_RATE_RPS", 5),
		RateBurst:       getEnvInt("KEYRUSH_RATE_BURST", 10),
		ShutdownTimeout: getEnvDuration("KEYRUSH_SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvDuration reads a time.Duration from the environment or returns a fallback.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		log.Printf("[WARN] Invalid duration for %s: %v, using default %v", key, err, fallback)
		return fallback
	}
	return d
}

// getEnvInt reads an int from the environment or returns a fallback.
func getEnvInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		log.Printf("[WARN] Invalid int for %s: %v, using default %d", key, err, fallback)
		return fallback
	}
	return i
}
