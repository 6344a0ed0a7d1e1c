package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/recipe-api/backend/internal/models"
)

// RecipeFilter narrows a recipe listing. Recipes linked to any of the
// given tag ids (or ingredient ids) match.
type RecipeFilter struct {
	TagIDs        []uint
	IngredientIDs []uint
}

// RecipeRepository persists recipes and their tag/ingredient links.
type RecipeRepository interface {
	List(ctx context.Context, owner uint, filter RecipeFilter) ([]models.Recipe, error)
	// Get returns ErrNotFound for missing recipes and for recipes owned by
	// someone else.
	Get(ctx context.Context, owner, id uint) (*models.Recipe, error)
	Create(ctx context.Context, recipe *models.Recipe) error
	// Update saves the scalar fields and, for each non-nil slice, replaces
	// the corresponding association. All changes commit together.
	Update(ctx context.Context, recipe *models.Recipe, tags *[]models.Tag, ingredients *[]models.Ingredient) error
	UpdateImage(ctx context.Context, recipe *models.Recipe, key string) error
	// Delete removes the recipe and its links. cleanup runs last inside the
	// transaction and its failure rolls the delete back.
	Delete(ctx context.Context, recipe *models.Recipe, cleanup func(ctx context.Context) error) error
}

type recipeRepository struct {
	db *gorm.DB
}

// NewRecipeRepository returns a gorm-backed RecipeRepository.
func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

func (r *recipeRepository) withAssociations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.id") }).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("ingredients.id") })
}

func (r *recipeRepository) List(ctx context.Context, owner uint, filter RecipeFilter) ([]models.Recipe, error) {
	q := r.withAssociations(ctx).Where("user_id = ?", owner)
	if len(filter.TagIDs) > 0 {
		q = q.Where("id IN (?)", r.db.Table("recipe_tags").Select("recipe_id").Where("tag_id IN ?", filter.TagIDs))
	}
	if len(filter.IngredientIDs) > 0 {
		q = q.Where("id IN (?)", r.db.Table("recipe_ingredients").Select("recipe_id").Where("ingredient_id IN ?", filter.IngredientIDs))
	}

	recipes := []models.Recipe{}
	if err := q.Order("id DESC").Find(&recipes).Error; err != nil {
		return nil, wrapGormError("list recipes", err)
	}
	return recipes, nil
}

func (r *recipeRepository) Get(ctx context.Context, owner, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	err := r.withAssociations(ctx).Where("id = ? AND user_id = ?", id, owner).First(&recipe).Error
	if err != nil {
		return nil, wrapGormError("get recipe", err)
	}
	return &recipe, nil
}

func (r *recipeRepository) Create(ctx context.Context, recipe *models.Recipe) error {
	// Tags and ingredients already exist, only the join rows are written
	err := r.db.WithContext(ctx).Omit("Tags.*", "Ingredients.*").Create(recipe).Error
	return wrapGormError("create recipe", err)
}

func (r *recipeRepository) Update(ctx context.Context, recipe *models.Recipe, tags *[]models.Tag, ingredients *[]models.Ingredient) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(recipe).Error; err != nil {
			return err
		}
		if tags != nil {
			if err := replaceAssociation(tx, recipe, "Tags", *tags); err != nil {
				return err
			}
			recipe.Tags = *tags
		}
		if ingredients != nil {
			if err := replaceAssociation(tx, recipe, "Ingredients", *ingredients); err != nil {
				return err
			}
			recipe.Ingredients = *ingredients
		}
		return nil
	})
	return wrapGormError("update recipe", err)
}

func replaceAssociation[T models.Taxon](tx *gorm.DB, recipe *models.Recipe, name string, values []T) error {
	assoc := tx.Model(recipe).Association(name)
	if len(values) == 0 {
		return assoc.Clear()
	}
	return assoc.Replace(values)
}

func (r *recipeRepository) UpdateImage(ctx context.Context, recipe *models.Recipe, key string) error {
	res := r.db.WithContext(ctx).Model(recipe).Omit(clause.Associations).Update("image", key)
	if res.Error != nil {
		return wrapGormError("update recipe image", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *recipeRepository) Delete(ctx context.Context, recipe *models.Recipe, cleanup func(ctx context.Context) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(recipe).Association("Tags").Clear(); err != nil {
			return err
		}
		if err := tx.Model(recipe).Association("Ingredients").Clear(); err != nil {
			return err
		}
		res := tx.Delete(recipe)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if cleanup != nil {
			return cleanup(ctx)
		}
		return nil
	})
	return wrapGormError("delete recipe", err)
}
