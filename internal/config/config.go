// Package config loads application configuration from environment variables.
package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the service.
type Config struct {
	Port        string
	AppEnv      string
	AdminSecret string

	// Origins allowed to call the API in addition to loopback hosts,
	// which are always accepted.
	AllowedOrigins []string

	// Object storage (S3-compatible: AWS S3 in production, MinIO locally)
	StorageEndpoint  string
	StorageRegion    string
	StorageAccessKey string
	StorageSecretKey string
	StorageBucket    string
	StorageUseSSL    bool
}

// Load reads configuration from a .env file (if present) and environment variables.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading from environment")
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		AppEnv:      getEnv("APP_ENV", "development"),
		AdminSecret: getEnv("ADMIN_SECRET", "change_me_in_production"),

		AllowedOrigins: splitCSV(getEnv("ALLOWED_ORIGINS", "")),

		StorageEndpoint:  getEnv("STORAGE_ENDPOINT", "s3.ap-northeast-2.amazonaws.com"),
		StorageRegion:    getEnv("STORAGE_REGION", "ap-northeast-2"),
		StorageAccessKey: getEnv("STORAGE_ACCESS_KEY", ""),
		StorageSecretKey: getEnv("STORAGE_SECRET_KEY", ""),
		StorageBucket:    getEnv("STORAGE_BUCKET", "gallery-uploads"),
		StorageUseSSL:    getEnv("STORAGE_USE_SSL", "true") == "true",
	}
}

// IsProduction returns true when the app is running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated value, trimming whitespace and
// dropping empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
