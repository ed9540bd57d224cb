package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	ServerPort     int
	DatabasePath   string
	JWTSecret      string
	TokenTTL       time.Duration
	AllowedOrigins []string
	BackupPath     string
	BackupSchedule string // standard 5-field cron expression
	BackupKeep     int
}

// Load loads configuration from environment variables or sets defaults.
// A .env file in the working directory is applied first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, err
	}

	ttl, err := time.ParseDuration(getEnv("TOKEN_TTL", "168h"))
	if err != nil {
		return nil, err
	}

	keep, err := strconv.Atoi(getEnv("BACKUP_KEEP", "7"))
	if err != nil {
		return nil, err
	}

	return &Config{
		ServerPort:     port,
		DatabasePath:   getEnv("DATABASE_PATH", "./spendtrack.db"),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		TokenTTL:       ttl,
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		BackupPath:     getEnv("BACKUP_PATH", "./backups"),
		BackupSchedule: getEnv("BACKUP_SCHEDULE", "0 3 * * *"),
		BackupKeep:     keep,
	}, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
