package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// requirement ties a configuration key to the value it must populate
type requirement struct {
	name  string
	value func(*Config) string
}

var (
	dbCredentials = []requirement{
		{"DB_USER", func(c *Config) string { return c.DBUser }},
		{"DB_PASSWORD", func(c *Config) string { return c.DBPassword }},
		{"DB_NAME", func(c *Config) string { return c.DBName }},
	}

	// Environment-specific requirements
	requirements = map[Environment][]requirement{
		Development: {},
		Test:        {},
		CI:          dbCredentials,
		Production:  dbCredentials,
	}
)

// ValidateConfig checks if the configuration meets the requirements for its environment
func ValidateConfig(cfg *Config) error {
	var errs []string

	if cfg.DBDriver == DriverPostgres {
		for _, req := range requirements[cfg.Env] {
			if req.value(cfg) == "" {
				errs = append(errs, ValidationError{req.name, "is required in " + string(cfg.Env)}.Error())
			}
		}
	}

	switch cfg.DBDriver {
	case DriverPostgres, DriverSQLite:
	default:
		errs = append(errs, ValidationError{"DB_DRIVER", fmt.Sprintf("unsupported driver %q", cfg.DBDriver)}.Error())
	}

	switch cfg.StorageBackend {
	case StorageLocal:
		if cfg.MediaRoot == "" {
			errs = append(errs, ValidationError{"MEDIA_ROOT", "is required for local storage"}.Error())
		}
	case StorageS3:
		if cfg.S3Bucket == "" {
			errs = append(errs, ValidationError{"S3_BUCKET_NAME", "is required for s3 storage"}.Error())
		}
	default:
		errs = append(errs, ValidationError{"STORAGE_BACKEND", fmt.Sprintf("unsupported backend %q", cfg.StorageBackend)}.Error())
	}

	if cfg.PasswordMinLength < 1 {
		errs = append(errs, ValidationError{"PASSWORD_MIN_LENGTH", "must be positive"}.Error())
	}
	if cfg.MaxUploadBytes <= 0 {
		errs = append(errs, ValidationError{"MAX_UPLOAD_BYTES", "must be positive"}.Error())
	}
	if cfg.MaxImagePixels <= 0 {
		errs = append(errs, ValidationError{"MAX_IMAGE_PIXELS", "must be positive"}.Error())
	}
	if cfg.RateLimitWindow <= 0 {
		errs = append(errs, ValidationError{"RATE_LIMIT_WINDOW", "must be positive"}.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "\n"))
	}
	return nil
}
