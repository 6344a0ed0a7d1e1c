package service

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/pageza/recipe-api/backend/internal/models"
	"github.com/pageza/recipe-api/backend/internal/repository"
	"github.com/pageza/recipe-api/backend/internal/storage"
)

var maxPrice = decimal.RequireFromString("999.99")

// RecipeInput is a complete set of recipe fields. Nil Tags or Ingredients
// mean none.
type RecipeInput struct {
	Title       string           `json:"title" validate:"required,max=255"`
	TimeMinutes int              `json:"time_minutes" validate:"required,gt=0"`
	Price       *decimal.Decimal `json:"price" validate:"-"`
	Link        string           `json:"link" validate:"omitempty,max=255,http_url"`
	Tags        []uint           `json:"tags" validate:"-"`
	Ingredients []uint           `json:"ingredients" validate:"-"`
}

// RecipePatch holds the fields to change. Nil fields, including Tags and
// Ingredients, are left as they are.
type RecipePatch struct {
	Title       *string
	TimeMinutes *int
	Price       *decimal.Decimal
	Link        *string
	Tags        *[]uint
	Ingredients *[]uint
}

// RecipeFilter narrows List to recipes linked to any of the given ids.
type RecipeFilter = repository.RecipeFilter

// RecipeService manages the recipes of each user.
type RecipeService struct {
	recipes     repository.RecipeRepository
	tags        *TaxonomyService[models.Tag]
	ingredients *TaxonomyService[models.Ingredient]
	storage     storage.Storage
	log         *zap.Logger
}

// NewRecipeService creates a RecipeService.
func NewRecipeService(
	recipes repository.RecipeRepository,
	tags *TaxonomyService[models.Tag],
	ingredients *TaxonomyService[models.Ingredient],
	store storage.Storage,
	log *zap.Logger,
) *RecipeService {
	return &RecipeService{
		recipes:     recipes,
		tags:        tags,
		ingredients: ingredients,
		storage:     store,
		log:         log,
	}
}

// ImageURL returns the public URL for an image key, or "" for no image.
func (s *RecipeService) ImageURL(key string) string {
	if key == "" {
		return ""
	}
	return s.storage.URL(key)
}

// List returns the owner's recipes, newest first.
func (s *RecipeService) List(ctx context.Context, owner uint, filter RecipeFilter) ([]models.Recipe, error) {
	return s.recipes.List(ctx, owner, filter)
}

// Get returns the recipe or ErrNotFound when it is missing or not owned.
func (s *RecipeService) Get(ctx context.Context, owner, id uint) (*models.Recipe, error) {
	recipe, err := s.recipes.Get(ctx, owner, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return recipe, err
}

// Create validates in and stores a new recipe for owner.
func (s *RecipeService) Create(ctx context.Context, owner uint, in RecipeInput) (*models.Recipe, error) {
	tags, ingredients, err := s.validate(ctx, owner, &in)
	if err != nil {
		return nil, err
	}

	recipe := &models.Recipe{UserID: owner}
	applyInput(recipe, in)
	recipe.Tags = tags
	recipe.Ingredients = ingredients
	if err := s.recipes.Create(ctx, recipe); err != nil {
		return nil, err
	}
	return recipe, nil
}

// UpdatePartial merges patch into the recipe.
func (s *RecipeService) UpdatePartial(ctx context.Context, owner, id uint, patch RecipePatch) (*models.Recipe, error) {
	recipe, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	in := RecipeInput{
		Title:       recipe.Title,
		TimeMinutes: recipe.TimeMinutes,
		Price:       &recipe.Price,
		Link:        recipe.Link,
	}
	if patch.Title != nil {
		in.Title = *patch.Title
	}
	if patch.TimeMinutes != nil {
		in.TimeMinutes = *patch.TimeMinutes
	}
	if patch.Price != nil {
		in.Price = patch.Price
	}
	if patch.Link != nil {
		in.Link = *patch.Link
	}
	if patch.Tags != nil {
		in.Tags = *patch.Tags
	}
	if patch.Ingredients != nil {
		in.Ingredients = *patch.Ingredients
	}

	tags, ingredients, err := s.validate(ctx, owner, &in)
	if err != nil {
		return nil, err
	}

	applyInput(recipe, in)
	var tagsArg *[]models.Tag
	if patch.Tags != nil {
		tagsArg = &tags
	}
	var ingredientsArg *[]models.Ingredient
	if patch.Ingredients != nil {
		ingredientsArg = &ingredients
	}
	if err := s.recipes.Update(ctx, recipe, tagsArg, ingredientsArg); err != nil {
		return nil, err
	}
	return recipe, nil
}

// UpdateFull replaces every field of the recipe. Tags and ingredients
// missing from in are cleared.
func (s *RecipeService) UpdateFull(ctx context.Context, owner, id uint, in RecipeInput) (*models.Recipe, error) {
	recipe, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	tags, ingredients, err := s.validate(ctx, owner, &in)
	if err != nil {
		return nil, err
	}

	applyInput(recipe, in)
	if err := s.recipes.Update(ctx, recipe, &tags, &ingredients); err != nil {
		return nil, err
	}
	return recipe, nil
}

// Delete removes the recipe and its image. If the image cannot be removed
// the recipe is kept. The image is removed before the transaction commits,
// so a failed commit leaves a row whose image is gone; that case is logged
// with the key.
func (s *RecipeService) Delete(ctx context.Context, owner, id uint) error {
	recipe, err := s.Get(ctx, owner, id)
	if err != nil {
		return err
	}

	var cleanup func(context.Context) error
	imageRemoved := false
	if recipe.Image != "" {
		key := recipe.Image
		cleanup = func(ctx context.Context) error {
			if err := s.storage.Delete(ctx, key); err != nil {
				return err
			}
			imageRemoved = true
			return nil
		}
	}
	if err := s.recipes.Delete(ctx, recipe, cleanup); err != nil {
		if imageRemoved {
			s.log.Error("recipe delete failed after its image was removed",
				zap.Uint("recipe_id", id),
				zap.String("image_key", recipe.Image),
				zap.Error(err))
		}
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.log.Info("recipe deleted", zap.Uint("user_id", owner), zap.Uint("recipe_id", id))
	return nil
}

// validate normalizes in and checks every field, resolving the tag and
// ingredient ids against the owner's labels. All problems are reported
// together.
func (s *RecipeService) validate(ctx context.Context, owner uint, in *RecipeInput) ([]models.Tag, []models.Ingredient, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Link = strings.TrimSpace(in.Link)

	ve := validateStruct(*in)
	checkPrice(ve, in.Price)

	tags, err := s.tags.ResolveOwned(ctx, owner, in.Tags)
	if err != nil && !mergeValidation(ve, err) {
		return nil, nil, err
	}
	ingredients, err := s.ingredients.ResolveOwned(ctx, owner, in.Ingredients)
	if err != nil && !mergeValidation(ve, err) {
		return nil, nil, err
	}

	if err := ve.OrNil(); err != nil {
		return nil, nil, err
	}
	return tags, ingredients, nil
}

func checkPrice(ve *ValidationError, price *decimal.Decimal) {
	switch {
	case price == nil:
		ve.Add("price", msgRequired)
	case price.IsNegative():
		ve.Add("price", "Ensure this value is greater than or equal to 0.")
	case !price.Equal(price.Round(2)):
		ve.Add("price", "Ensure that there are no more than 2 decimal places.")
	case price.GreaterThan(maxPrice):
		ve.Add("price", "Ensure that there are no more than 5 digits in total.")
	}
}

// mergeValidation copies the messages of a ValidationError into ve and
// reports whether err was one.
func mergeValidation(ve *ValidationError, err error) bool {
	var other *ValidationError
	if !errors.As(err, &other) {
		return false
	}
	for field, msgs := range other.Fields {
		for _, m := range msgs {
			ve.Add(field, m)
		}
	}
	return true
}

func applyInput(recipe *models.Recipe, in RecipeInput) {
	recipe.Title = in.Title
	recipe.TimeMinutes = in.TimeMinutes
	recipe.Price = in.Price.Round(2)
	recipe.Link = in.Link
}
