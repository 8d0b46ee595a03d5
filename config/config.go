package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL          string
	DBMaxOpenConns       int
	DBMaxIdleConns       int
	DBConnMaxLifetime    time.Duration
	DBLogLevel           string
	JWTSecret            string
	JWTExpiration        time.Duration
	ServerPort           string
	DefaultAdminPassword string

	// AssignRetryAttempts bounds how many times a scheduling transaction is
	// replayed after a serialization failure or deadlock.
	AssignRetryAttempts int
}

func Load() *Config {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Ignoring .env: %v", err)
	}

	return &Config{
		DatabaseURL:          getEnv("DATABASE_URL", "postgresql://postgres@localhost:5432/labsched"),
		DBMaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 50),
		DBMaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 10),
		DBConnMaxLifetime:    getEnvDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		DBLogLevel:           getEnv("DB_LOG_LEVEL", "warn"),
		JWTSecret:            getEnv("JWT_SECRET", "your-super-secret-key-change-in-production"),
		JWTExpiration:        getEnvDuration("JWT_EXPIRATION", 12*time.Hour),
		ServerPort:           getEnv("SERVER_PORT", "8080"),
		DefaultAdminPassword: getEnv("DEFAULT_ADMIN_PASSWORD", "admin"),
		AssignRetryAttempts:  getEnvInt("ASSIGN_RETRY_ATTEMPTS", 3),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid %s=%q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
