package config

import (
	"os"
	"strconv"
	"time"
)

const (
	defaultMaxPartBytes    = int64(100 * 1024 * 1024)
	defaultCopyBufferBytes = 32 * 1024
	// multipartOverhead leaves room for the json part, headers and boundaries on top of the file part.
	multipartOverhead = int64(1024 * 1024)
)

// UploadConfig holds settings for the multipart ingest pipeline.
type UploadConfig struct {
	Dir             string
	MaxPartBytes    int64
	CopyBufferBytes int
}

// HTTPConfig holds transport settings handed to Fiber.
type HTTPConfig struct {
	BodyLimitBytes int64
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost        string
	Port           string
	ServiceName    string
	LogTimezone    string
	MetricsEnabled bool
	Upload         UploadConfig
	HTTP           HTTPConfig
}

// Load reads configuration from environment variables.
// A .env file is auto-loaded by cmd/api through _ "github.com/joho/godotenv/autoload";
// real environment variables take precedence.
func Load() *AppConfig {
	maxPart := getEnvInt64("UPLOAD_MAX_PART_BYTES", defaultMaxPartBytes)
	if maxPart <= 0 {
		maxPart = defaultMaxPartBytes
	}

	return &AppConfig{
		AppHost:        getEnv("APP_HOST", "localhost:8080"),
		Port:           getEnv("PORT", "8080"),
		ServiceName:    getEnv("OTEL_SERVICE_NAME", "uploadapi"),
		LogTimezone:    getEnv("LOG_TIMEZONE", "UTC"),
		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
		Upload: UploadConfig{
			Dir:             getEnv("UPLOAD_DIR", "uploads"),
			MaxPartBytes:    maxPart,
			CopyBufferBytes: getEnvInt("UPLOAD_COPY_BUFFER_BYTES", defaultCopyBufferBytes),
		},
		HTTP: HTTPConfig{
			BodyLimitBytes: getEnvInt64("HTTP_BODY_LIMIT_BYTES", maxPart+multipartOverhead),
		},
	}
}

// Location resolves LogTimezone, falling back to UTC for unknown zones.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.LogTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			return i
		}
	}
	return def
}
