package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the secrets lookup at an empty directory and clears
// variables that would leak in from the host.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SECRETS_DIR", dir)
	for _, name := range []string{
		"ENV", "CI", "DB_DRIVER", "DB_HOST", "DB_PASSWORD", "DB_USER", "DB_NAME",
		"REDIS_URL", "REDIS_HOST", "STORAGE_BACKEND", "S3_BUCKET_NAME",
		"PASSWORD_MIN_LENGTH", "MAX_UPLOAD_BYTES", "MAX_IMAGE_PIXELS", "RATE_LIMIT_WINDOW",
		"CORS_ORIGINS", "S3_PUBLIC_URL", "S3_ENDPOINT", "SERVER_PORT", "SERVER_HOST",
		"DB_PORT", "MEDIA_ROOT",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
	return dir
}

func TestLoadConfig(t *testing.T) {
	isolate(t)
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "recipes_test")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("RATE_LIMIT_WINDOW", "30m")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "db", cfg.DBHost)
	assert.Equal(t, "5433", cfg.DBPort)
	assert.Equal(t, "app", cfg.DBUser)
	assert.Equal(t, "secret", cfg.DBPassword)
	assert.Equal(t, "recipes_test", cfg.DBName)
	assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
	assert.True(t, cfg.RedisEnabled())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, 30*time.Minute, cfg.RateLimitWindow)
	assert.Contains(t, cfg.PostgresDSN(), "dbname=recipes_test")
}

func TestLoadConfigWithDefaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, Development, cfg.Env)
	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, "0.0.0.0:8000", cfg.Addr())
	assert.Equal(t, StorageLocal, cfg.StorageBackend)
	assert.Equal(t, 5, cfg.PasswordMinLength)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	assert.Equal(t, int64(89_478_485), cfg.MaxImagePixels)
	assert.Equal(t, time.Hour, cfg.RateLimitWindow)
	assert.False(t, cfg.RedisEnabled())
}

func TestLoadConfigReadsDockerSecrets(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "db_password"), []byte("from-secret\n"), 0o600))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "from-secret", cfg.DBPassword)
}

func TestLoadConfigRejectsBadNumbers(t *testing.T) {
	isolate(t)
	t.Setenv("PASSWORD_MIN_LENGTH", "five")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	base := func() *Config {
		return &Config{
			Env:               Production,
			DBDriver:          DriverPostgres,
			DBUser:            "app",
			DBPassword:        "pw",
			DBName:            "recipes",
			StorageBackend:    StorageLocal,
			MediaRoot:         "media",
			PasswordMinLength: 5,
			MaxUploadBytes:    1024,
			MaxImagePixels:    1 << 20,
			RateLimitWindow:   time.Hour,
		}
	}

	assert.NoError(t, ValidateConfig(base()))

	cfg := base()
	cfg.DBPassword = ""
	assert.ErrorContains(t, ValidateConfig(cfg), "DB_PASSWORD")

	cfg = base()
	cfg.Env = Development
	cfg.DBPassword = ""
	assert.NoError(t, ValidateConfig(cfg))

	cfg = base()
	cfg.StorageBackend = StorageS3
	assert.ErrorContains(t, ValidateConfig(cfg), "S3_BUCKET_NAME")

	cfg = base()
	cfg.DBDriver = "mysql"
	assert.ErrorContains(t, ValidateConfig(cfg), "DB_DRIVER")

	cfg = base()
	cfg.MaxImagePixels = 0
	assert.ErrorContains(t, ValidateConfig(cfg), "MAX_IMAGE_PIXELS")
}

func TestGetEnvironment(t *testing.T) {
	t.Setenv("CI", "")
	t.Setenv("ENV", "production")
	assert.Equal(t, Production, GetEnvironment())
	assert.True(t, IsProduction())

	t.Setenv("CI", "true")
	assert.Equal(t, CI, GetEnvironment())
}

func TestS3PublicBaseURL(t *testing.T) {
	cfg := &Config{S3Bucket: "media", S3Region: "eu-west-1"}
	assert.Equal(t, "https://media.s3.eu-west-1.amazonaws.com", S3PublicBaseURL(cfg))

	cfg.S3Endpoint = "http://localhost:9000/"
	assert.Equal(t, "http://localhost:9000/media", S3PublicBaseURL(cfg))

	cfg.S3PublicURL = "https://cdn.example.com/"
	assert.Equal(t, "https://cdn.example.com", S3PublicBaseURL(cfg))
}
