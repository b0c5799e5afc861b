package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Artifacts ArtifactsConfig
	Auth      AuthConfig
}

// DatabaseConfig holds record-store configuration
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr            string
	PublicBaseURL   string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// ArtifactsConfig holds object-store configuration
type ArtifactsConfig struct {
	Dir        string
	PresignTTL time.Duration
}

// AuthConfig holds identity and URL-signing configuration
type AuthConfig struct {
	JWTSecret     string
	SigningSecret string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 10*time.Second),
		},
		Server: ServerConfig{
			Addr:            getEnv("HTTP_ADDR", ":8080"),
			PublicBaseURL:   getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
			RequestTimeout:  getEnvAsDuration("HTTP_REQUEST_TIMEOUT", 25*time.Second),
			ShutdownTimeout: getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Artifacts: ArtifactsConfig{
			Dir:        getEnv("ARTIFACTS_DIR", ""),
			PresignTTL: getEnvAsDuration("PRESIGN_TTL", 15*time.Minute),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("JWT_SECRET", ""),
			SigningSecret: getEnv("URL_SIGNING_SECRET", ""),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewConfig("DB_URL is required")
	}
	if c.Artifacts.Dir == "" {
		return NewConfig("ARTIFACTS_DIR is required")
	}
	if c.Auth.SigningSecret == "" {
		return NewConfig("URL_SIGNING_SECRET is required")
	}
	if c.Auth.JWTSecret == "" {
		return NewConfig("JWT_SECRET is required")
	}
	if c.Server.Addr == "" {
		return NewConfig("HTTP_ADDR is required")
	}
	return nil
}
