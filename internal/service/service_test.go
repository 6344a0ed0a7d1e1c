package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pageza/recipe-api/backend/internal/models"
	"github.com/pageza/recipe-api/backend/internal/repository"
	"github.com/pageza/recipe-api/backend/internal/storage"
	"github.com/pageza/recipe-api/backend/internal/testhelpers"
)

// services bundles everything wired against one sqlite database.
type services struct {
	db          *gorm.DB
	store       *flakyStorage
	mediaRoot   string
	users       *UserService
	tokens      *TokenService
	tags        *TaxonomyService[models.Tag]
	ingredients *TaxonomyService[models.Ingredient]
	recipes     *RecipeService
	images      *ImageService
}

func newServices(t *testing.T) *services {
	t.Helper()
	db := testhelpers.SetupTestDatabase(t)
	log := zap.NewNop()

	root := filepath.Join(t.TempDir(), "media")
	local, err := storage.NewLocalStorage(root, "/media")
	require.NoError(t, err)
	store := &flakyStorage{Storage: local}

	users := NewUserService(repository.NewUserRepository(db), UserOptions{MinPasswordLength: 5, HashCost: bcrypt.MinCost}, log)
	tags := NewTagService(repository.NewTagRepository(db))
	ingredients := NewIngredientService(repository.NewIngredientRepository(db))
	recipes := NewRecipeService(repository.NewRecipeRepository(db), tags, ingredients, store, log)

	return &services{
		db:          db,
		store:       store,
		mediaRoot:   root,
		users:       users,
		tokens:      NewTokenService(users, repository.NewTokenRepository(db), log),
		tags:        tags,
		ingredients: ingredients,
		recipes:     recipes,
		images:      NewImageService(recipes, store, ImageOptions{MaxBytes: 1 << 20}, log),
	}
}

// flakyStorage fails deletes on demand.
type flakyStorage struct {
	storage.Storage
	failDelete bool
	deleted    []string
}

func (f *flakyStorage) Delete(ctx context.Context, key string) error {
	if f.failDelete {
		return errors.New("storage unavailable")
	}
	f.deleted = append(f.deleted, key)
	return f.Storage.Delete(ctx, key)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
