package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	Port        string
	Environment string

	LogLevel string
	LogFile  string

	// Persistence collaborators
	DatabaseURL   string
	RedisHost     string
	RedisPort     string
	RedisPassword string

	// Auth
	JWTSecret []byte
	TokenTTL  time.Duration

	// Feed
	DefaultRadiusKm float64
	MaxRadiusKm     float64
	FeedCacheTTL    time.Duration

	// Post lifecycle
	PostTTL        time.Duration
	ExpiringWindow time.Duration
	SweepInterval  time.Duration

	// Moderation
	ReportThreshold int

	// Images
	MaxImagesPerPost int
	MaxImageBytes    int64
	StorageBackend   string // "s3" or "inline"
	AWSRegion        string
	AWSBucket        string
	CDNBaseURL       string

	// Tracing
	TracingEnabled bool
	OTLPEndpoint   string
	SamplingRate   float64
}

// Load reads configuration from the environment. JWT_SECRET is the only
// hard-required variable; everything else has a development default.
func Load() (*Config, error) {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	cfg := &Config{
		Port:        getEnvOrDefault("PORT", "8686"),
		Environment: getEnvOrDefault("ENVIRONMENT", "development"),

		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:  getEnvOrDefault("LOG_FILE", "server.log"),

		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisHost:     getEnvOrDefault("REDIS_HOST", "localhost"),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		JWTSecret: []byte(jwtSecret),
		// The web client stores the token in a 7-day cookie; keep them in sync.
		TokenTTL: getEnvDuration("TOKEN_TTL", 7*24*time.Hour),

		DefaultRadiusKm: getEnvFloat("FEED_DEFAULT_RADIUS_KM", 5),
		MaxRadiusKm:     getEnvFloat("FEED_MAX_RADIUS_KM", 20),
		FeedCacheTTL:    getEnvDuration("FEED_CACHE_TTL", 30*time.Second),

		PostTTL:        getEnvDuration("POST_TTL", 30*24*time.Hour),
		ExpiringWindow: getEnvDuration("POST_EXPIRING_WINDOW", 3*24*time.Hour),
		SweepInterval:  getEnvDuration("POST_SWEEP_INTERVAL", time.Hour),

		ReportThreshold: getEnvInt("REPORT_THRESHOLD", 3),

		MaxImagesPerPost: getEnvInt("MAX_IMAGES_PER_POST", 4),
		MaxImageBytes:    int64(getEnvInt("MAX_IMAGE_BYTES", 5*1024*1024)),
		StorageBackend:   getEnvOrDefault("STORAGE_BACKEND", "inline"),
		AWSRegion:        os.Getenv("AWS_REGION"),
		AWSBucket:        os.Getenv("AWS_BUCKET"),
		CDNBaseURL:       os.Getenv("CDN_BASE_URL"),

		TracingEnabled: getEnvOrDefault("OTEL_ENABLED", "false") == "true",
		OTLPEndpoint:   getEnvOrDefault("OTLP_ENDPOINT", "localhost:4318"),
		SamplingRate:   getEnvFloat("OTEL_SAMPLING_RATE", 1.0),
	}

	if cfg.StorageBackend == "s3" && cfg.AWSBucket == "" {
		return nil, fmt.Errorf("STORAGE_BACKEND=s3 requires AWS_BUCKET to be set")
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
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
