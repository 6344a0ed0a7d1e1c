package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Storage backends
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// Database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all configuration for the application
type Config struct {
	Env Environment

	// Server configuration
	ServerPort  string
	ServerHost  string
	CORSOrigins []string
	LogLevel    string

	// Database configuration
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBPath     string

	// Redis configuration, rate limiting is disabled when neither URL nor host is set
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Image storage
	StorageBackend string
	MediaRoot      string
	MediaURL       string
	S3Bucket       string
	S3Region       string
	S3Endpoint     string
	S3PublicURL    string
	S3AccessKey    string
	S3SecretKey    string
	MaxUploadBytes int64
	MaxImagePixels int64

	// Accounts
	PasswordMinLength int

	// Rate limits per window
	RateLimitWindow   time.Duration
	RecipeCreateLimit int
	RecipeModifyLimit int
}

// LoadConfig creates a new Config instance with values from environment
// variables, falling back to Docker secrets and then to defaults.
func LoadConfig() (*Config, error) {
	cfg := &Config{Env: GetEnvironment()}

	cfg.ServerPort = lookup("SERVER_PORT", "8000")
	cfg.ServerHost = lookup("SERVER_HOST", "0.0.0.0")
	cfg.CORSOrigins = splitList(lookup("CORS_ORIGINS", "http://localhost:5173"))
	cfg.LogLevel = lookup("LOG_LEVEL", "info")

	cfg.DBDriver = lookup("DB_DRIVER", DriverPostgres)
	cfg.DBHost = lookup("DB_HOST", "localhost")
	cfg.DBPort = lookup("DB_PORT", "5432")
	cfg.DBUser = lookup("DB_USER", "postgres")
	cfg.DBPassword = lookup("DB_PASSWORD", "")
	cfg.DBName = lookup("DB_NAME", "recipes")
	cfg.DBSSLMode = lookup("DB_SSL_MODE", "disable")
	cfg.DBPath = lookup("DB_PATH", "recipes.db")

	cfg.RedisURL = lookup("REDIS_URL", "")
	cfg.RedisHost = lookup("REDIS_HOST", "")
	cfg.RedisPort = lookup("REDIS_PORT", "6379")
	cfg.RedisPassword = lookup("REDIS_PASSWORD", "")

	cfg.StorageBackend = lookup("STORAGE_BACKEND", StorageLocal)
	cfg.MediaRoot = lookup("MEDIA_ROOT", "media")
	cfg.MediaURL = lookup("MEDIA_URL", "/media")
	cfg.S3Bucket = lookup("S3_BUCKET_NAME", "")
	cfg.S3Region = lookup("AWS_REGION", "us-east-1")
	cfg.S3Endpoint = lookup("S3_ENDPOINT", "")
	cfg.S3PublicURL = lookup("S3_PUBLIC_URL", "")
	cfg.S3AccessKey = lookup("AWS_ACCESS_KEY_ID", "")
	cfg.S3SecretKey = lookup("AWS_SECRET_ACCESS_KEY", "")

	var err error
	if cfg.RedisDB, err = lookupInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.PasswordMinLength, err = lookupInt("PASSWORD_MIN_LENGTH", 5); err != nil {
		return nil, err
	}
	maxUpload, err := lookupInt("MAX_UPLOAD_BYTES", 10<<20)
	if err != nil {
		return nil, err
	}
	cfg.MaxUploadBytes = int64(maxUpload)
	maxPixels, err := lookupInt("MAX_IMAGE_PIXELS", 89_478_485)
	if err != nil {
		return nil, err
	}
	cfg.MaxImagePixels = int64(maxPixels)
	if cfg.RecipeCreateLimit, err = lookupInt("RECIPE_CREATE_LIMIT", 60); err != nil {
		return nil, err
	}
	if cfg.RecipeModifyLimit, err = lookupInt("RECIPE_MODIFY_LIMIT", 120); err != nil {
		return nil, err
	}
	window := lookup("RATE_LIMIT_WINDOW", "1h")
	if cfg.RateLimitWindow, err = time.ParseDuration(window); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_WINDOW %q: %w", window, err)
	}

	// Validate the configuration
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

// PostgresDSN builds a key/value connection string for the postgres drivers
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// RedisEnabled reports whether a redis endpoint is configured
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != "" || c.RedisHost != ""
}

// lookup reads an environment variable, then a Docker secret with the
// lower-cased name, then falls back to def.
func lookup(name, def string) string {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		return strings.TrimSpace(v)
	}
	if v := readSecret(strings.ToLower(name)); v != "" {
		return v
	}
	return def
}

func lookupInt(name string, def int) (int, error) {
	raw := lookup(name, "")
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, raw, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}
