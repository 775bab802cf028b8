package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Matching service
	MatchingServiceURL    string
	MatchingEnabled       bool
	MatchingHealthTimeout time.Duration
	MatchingCallTimeout   time.Duration

	// Supabase
	SupabaseURL            string
	SupabasePublishableKey string
	SupabaseJWTSecret      string
	PhotoBucket            string
	DesignBucket           string

	// Upload policy
	ConstrainedUploads bool
	UploadDelay        time.Duration

	// Database
	DatabaseURL string

	// Server
	Port        string
	Environment string
}

func Load() (*Config, error) {
	cfg := &Config{
		MatchingServiceURL:    getEnv("MATCHING_SERVICE_URL", "http://localhost:5000"),
		MatchingEnabled:       getEnvBool("MATCHING_ENABLED", true),
		MatchingHealthTimeout: getEnvDuration("MATCHING_HEALTH_TIMEOUT", 30*time.Second),
		MatchingCallTimeout:   getEnvDuration("MATCHING_CALL_TIMEOUT", 60*time.Second),

		SupabaseURL:            getEnv("SUPABASE_URL", ""),
		SupabasePublishableKey: getEnv("SUPABASE_PUBLISHABLE_KEY", ""),
		SupabaseJWTSecret:      getEnv("SUPABASE_JWT_SECRET", ""),
		PhotoBucket:            getEnv("SUPABASE_PHOTO_BUCKET", "fotos-sellos"),
		DesignBucket:           getEnv("SUPABASE_DESIGN_BUCKET", "archivos-ventas"),

		ConstrainedUploads: getEnvBool("CONSTRAINED_UPLOADS", false),
		UploadDelay:        getEnvDuration("UPLOAD_DELAY", 100*time.Millisecond),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabasePublishableKey == "" {
		return fmt.Errorf("SUPABASE_PUBLISHABLE_KEY is required")
	}
	if c.SupabaseJWTSecret == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET is required")
	}
	if c.MatchingEnabled && c.MatchingServiceURL == "" {
		return fmt.Errorf("MATCHING_SERVICE_URL is required when matching is enabled")
	}
	return nil
}

// MaxUploadBytes returns the per-file size cap for the active upload policy.
func (c *Config) MaxUploadBytes() int64 {
	if c.ConstrainedUploads {
		return 5 << 20
	}
	return 10 << 20
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
