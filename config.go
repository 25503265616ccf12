package main

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// config captures runtime settings for the API server.
type config struct {
	DBURL       string
	HTTPAddress string
	DefaultTZ   *time.Location
	GinMode     string
}

// loadConfig reads .env (if present) and the environment into config,
// applying defaults for local dev.
func loadConfig() config {
	// A missing .env is normal in deployed environments; variables come from the host.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[loadConfig] .env not loaded: %v", err)
	}

	cfg := config{
		DBURL:       os.Getenv("DB_URL"),
		HTTPAddress: getEnv("HTTP_ADDRESS", "localhost:3000"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		DefaultTZ:   time.UTC,
	}
	if tz := os.Getenv("DEFAULT_TZ"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			log.Printf("[loadConfig] unknown DEFAULT_TZ %q, using UTC: %v", tz, err)
		} else {
			cfg.DefaultTZ = loc
		}
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
