// Package storage keeps uploaded recipe images on the local filesystem or
// in an S3 bucket.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/pageza/recipe-api/backend/config"
)

// Storage stores objects under slash-separated keys.
type Storage interface {
	// Save writes the object, replacing any existing object with the same key.
	Save(ctx context.Context, key string, body io.Reader, contentType string) error
	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// URL returns the public location of the object.
	URL(key string) string
}

// New builds the backend selected by cfg.StorageBackend.
func New(ctx context.Context, cfg *config.Config) (Storage, error) {
	switch cfg.StorageBackend {
	case config.StorageS3:
		s3cfg, err := config.NewS3Config(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewS3Storage(s3cfg.Client, s3cfg.BucketName, s3cfg.PublicURL), nil
	case config.StorageLocal, "":
		return NewLocalStorage(cfg.MediaRoot, cfg.MediaURL)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.StorageBackend)
	}
}
