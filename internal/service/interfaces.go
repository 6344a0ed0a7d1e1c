package service

import (
	"context"

	"github.com/pageza/recipe-api/backend/internal/models"
)

// IUserService defines the account operations used by the API
type IUserService interface {
	CreateUser(ctx context.Context, email, password, name string) (*models.User, error)
	GetUser(ctx context.Context, id uint) (*models.User, error)
	UpdateUser(ctx context.Context, id uint, upd UserUpdate) (*models.User, error)
}

// ITokenService defines token issuance and lookup
type ITokenService interface {
	IssueToken(ctx context.Context, email, password string) (string, error)
	ResolveToken(ctx context.Context, key string) (*models.User, error)
	RevokeToken(ctx context.Context, userID uint) error
}

// ITaxonomyService defines the operations on tags or ingredients
type ITaxonomyService[T models.Taxon] interface {
	List(ctx context.Context, owner uint, opts ListOptions) ([]T, error)
	Create(ctx context.Context, owner uint, name string) (*T, error)
}

// IRecipeService defines recipe operations
type IRecipeService interface {
	List(ctx context.Context, owner uint, filter RecipeFilter) ([]models.Recipe, error)
	Get(ctx context.Context, owner, id uint) (*models.Recipe, error)
	Create(ctx context.Context, owner uint, in RecipeInput) (*models.Recipe, error)
	UpdatePartial(ctx context.Context, owner, id uint, patch RecipePatch) (*models.Recipe, error)
	UpdateFull(ctx context.Context, owner, id uint, in RecipeInput) (*models.Recipe, error)
	Delete(ctx context.Context, owner, id uint) error
	ImageURL(key string) string
}

// IImageService defines recipe image uploads
type IImageService interface {
	UploadImage(ctx context.Context, owner, id uint, data []byte, contentType string) (*models.Recipe, error)
	MaxBytes() int64
}

var (
	_ IUserService                        = (*UserService)(nil)
	_ ITokenService                       = (*TokenService)(nil)
	_ ITaxonomyService[models.Tag]        = (*TaxonomyService[models.Tag])(nil)
	_ ITaxonomyService[models.Ingredient] = (*TaxonomyService[models.Ingredient])(nil)
	_ IRecipeService                      = (*RecipeService)(nil)
	_ IImageService                       = (*ImageService)(nil)
)
