package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Env holds the server settings read from the environment.
type Env struct {
	Port        int
	DatabaseURL string

	// GeminiAPIKey enables the model-backed optimizer behind /api/optimize.
	GeminiAPIKey string
	// RewriteURL points generation at an external optimize endpoint instead of Gemini.
	RewriteURL string

	ChromePath  string
	CORSOrigins []string

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string

	SessionIdleTimeout time.Duration
}

// Load reads the server settings from environment variables.
func Load() *Env {
	return &Env{
		Port:               getEnvInt("PORT", 8080),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		RewriteURL:         os.Getenv("REWRITE_URL"),
		ChromePath:         os.Getenv("CHROME_PATH"),
		CORSOrigins:        splitList(getEnvString("CORS_ORIGINS", "*")),
		S3Bucket:           os.Getenv("S3_BUCKET"),
		S3Region:           getEnvString("S3_REGION", "eu-west-3"),
		S3Endpoint:         os.Getenv("S3_ENDPOINT"),
		S3AccessKey:        os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:        os.Getenv("S3_SECRET_KEY"),
		SessionIdleTimeout: getEnvDuration("SESSION_IDLE_TIMEOUT", 2*time.Hour),
	}
}

// ArchiveEnabled reports whether exported PDFs should be copied to object storage.
func (e *Env) ArchiveEnabled() bool {
	return e.S3Bucket != ""
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(list string) []string {
	var out []string
	for _, part := range strings.Split(list, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
