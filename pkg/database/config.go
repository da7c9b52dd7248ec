package database

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// LoadConfigFromEnv layers DB_* environment variables over the given
// defaults (typically the values from the YAML config). The password only
// ever comes from the environment.
func LoadConfigFromEnv(defaults Config) (Config, error) {
	port := defaults.Port
	if v := os.Getenv("DB_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DB_PORT: %w", err)
		}
		port = p
	}

	maxOpen, err := intEnvOrDefault("DB_MAX_OPEN_CONNS", 10)
	if err != nil {
		return Config{}, err
	}
	maxIdle, err := intEnvOrDefault("DB_MAX_IDLE_CONNS", 5)
	if err != nil {
		return Config{}, err
	}

	return Config{
		Host:            getEnvOrDefault("DB_HOST", defaults.Host),
		Port:            port,
		User:            getEnvOrDefault("DB_USER", defaults.User),
		Password:        os.Getenv("DB_PASSWORD"),
		Database:        getEnvOrDefault("DB_NAME", defaults.Database),
		SSLMode:         getEnvOrDefault("DB_SSLMODE", defaults.SSLMode),
		MaxOpenConns:    maxOpen,
		MaxIdleConns:    maxIdle,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
	}, nil
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func intEnvOrDefault(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
