package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"mime"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/pageza/recipe-api/backend/internal/models"
	"github.com/pageza/recipe-api/backend/internal/repository"
	"github.com/pageza/recipe-api/backend/internal/storage"
)

// imageFormats maps decoder names to file extension and content type.
var imageFormats = map[string]struct{ ext, contentType string }{
	"png":  {"png", "image/png"},
	"jpeg": {"jpg", "image/jpeg"},
	"gif":  {"gif", "image/gif"},
	"webp": {"webp", "image/webp"},
	"bmp":  {"bmp", "image/bmp"},
	"tiff": {"tiff", "image/tiff"},
}

// Upload limits used when ImageOptions leaves them unset.
const (
	DefaultMaxImageBytes = 10 << 20
	// DefaultMaxImagePixels matches the decompression bomb threshold of
	// common imaging libraries (about 89.5 megapixels).
	DefaultMaxImagePixels = 89_478_485
)

// ImageOptions caps what UploadImage accepts. Zero values select the defaults.
type ImageOptions struct {
	MaxBytes  int64
	MaxPixels int64
}

// ImageService stores recipe pictures.
type ImageService struct {
	recipes   *RecipeService
	storage   storage.Storage
	maxBytes  int64
	maxPixels int64
	log       *zap.Logger
}

// NewImageService creates an ImageService.
func NewImageService(recipes *RecipeService, store storage.Storage, opts ImageOptions, log *zap.Logger) *ImageService {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxImageBytes
	}
	if opts.MaxPixels <= 0 {
		opts.MaxPixels = DefaultMaxImagePixels
	}
	return &ImageService{
		recipes:   recipes,
		storage:   store,
		maxBytes:  opts.MaxBytes,
		maxPixels: opts.MaxPixels,
		log:       log,
	}
}

// MaxBytes returns the largest accepted payload.
func (s *ImageService) MaxBytes() int64 {
	return s.maxBytes
}

// UploadImage replaces the recipe's image with data and returns the
// updated recipe. Payloads that do not decode as an image are rejected
// before anything is written. contentType is the client's claim; the
// stored type always comes from the decoded format.
func (s *ImageService) UploadImage(ctx context.Context, owner, id uint, data []byte, contentType string) (*models.Recipe, error) {
	recipe, err := s.recipes.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	if int64(len(data)) > s.maxBytes {
		return nil, NewValidationError("image", fmt.Sprintf("Ensure this file is no larger than %d bytes.", s.maxBytes))
	}
	if len(data) == 0 {
		return nil, NewValidationError("image", "The submitted file is empty.")
	}
	// The header alone gives the dimensions, so oversized images are
	// refused before any pixel buffer is allocated.
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, NewValidationError("image", msgInvalidImage)
	}
	kind, ok := imageFormats[format]
	if !ok {
		return nil, NewValidationError("image", msgInvalidImage)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, NewValidationError("image", msgInvalidImage)
	}
	if int64(cfg.Width)*int64(cfg.Height) > s.maxPixels {
		return nil, NewValidationError("image", fmt.Sprintf(
			"Image dimensions %dx%d exceed the limit of %d pixels.", cfg.Width, cfg.Height, s.maxPixels))
	}
	if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
		return nil, NewValidationError("image", msgInvalidImage)
	}
	if declared := declaredMediaType(contentType); declared != "" && declared != kind.contentType {
		s.log.Info("image content type differs from its content",
			zap.String("declared", declared),
			zap.String("detected", kind.contentType))
	}

	key := fmt.Sprintf("recipes/%s.%s", uuid.New().String(), kind.ext)
	if err := s.storage.Save(ctx, key, bytes.NewReader(data), kind.contentType); err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	previous := recipe.Image
	if err := s.recipes.recipes.UpdateImage(ctx, recipe, key); err != nil {
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			s.log.Error("failed to remove orphaned image", zap.String("key", key), zap.Error(delErr))
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	recipe.Image = key

	if previous != "" && previous != key {
		if err := s.storage.Delete(ctx, previous); err != nil {
			s.log.Warn("failed to remove previous image", zap.String("key", previous), zap.Error(err))
		}
	}

	s.log.Info("recipe image uploaded",
		zap.Uint("user_id", owner),
		zap.Uint("recipe_id", id),
		zap.String("key", key))
	return recipe, nil
}

// declaredMediaType returns the lower-cased media type of a Content-Type
// header, or "" when it is missing, unparsable or carries no information.
func declaredMediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType == "application/octet-stream" {
		return ""
	}
	return mediaType
}
