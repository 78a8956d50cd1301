package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds everything the API process needs from the environment.
// RedisAddr and AMQPURL are optional; when empty the related wiring is skipped.
type Config struct {
	AppPort        string
	DatabaseURL    string
	JWTSecret      string
	MigrationsPath string
	RedisAddr      string
	AMQPURL        string
}

func Load() (*Config, error) {
	// Missing .env is fine in container deployments; env vars win either way.
	_ = godotenv.Load()

	cfg := &Config{
		AppPort:        getenv("APP_PORT", "8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		MigrationsPath: getenv("MIGRATIONS_PATH", "migrations"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		AMQPURL:        os.Getenv("AMQP_URL"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
