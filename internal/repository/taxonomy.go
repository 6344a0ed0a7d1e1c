package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/pageza/recipe-api/backend/internal/models"
)

// TaxonomyRepository persists one kind of owner-scoped label.
type TaxonomyRepository[T models.Taxon] interface {
	// List returns the owner's labels ordered by name descending. With
	// assignedOnly set, only labels attached to at least one recipe are
	// returned.
	List(ctx context.Context, owner uint, assignedOnly bool) ([]T, error)
	Create(ctx context.Context, item *T) error
	// FindOwned returns the labels among ids that belong to owner.
	FindOwned(ctx context.Context, owner uint, ids []uint) ([]T, error)
}

type taxonomyRepository[T models.Taxon] struct {
	db *gorm.DB
	// join table and column linking recipes to T
	joinTable  string
	joinColumn string
}

// NewTagRepository returns a gorm-backed repository for tags.
func NewTagRepository(db *gorm.DB) TaxonomyRepository[models.Tag] {
	return &taxonomyRepository[models.Tag]{db: db, joinTable: "recipe_tags", joinColumn: "tag_id"}
}

// NewIngredientRepository returns a gorm-backed repository for ingredients.
func NewIngredientRepository(db *gorm.DB) TaxonomyRepository[models.Ingredient] {
	return &taxonomyRepository[models.Ingredient]{db: db, joinTable: "recipe_ingredients", joinColumn: "ingredient_id"}
}

func (r *taxonomyRepository[T]) List(ctx context.Context, owner uint, assignedOnly bool) ([]T, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", owner)
	if assignedOnly {
		q = q.Where("id IN (?)", r.db.Table(r.joinTable).Select(r.joinColumn))
	}

	items := []T{}
	if err := q.Order("name DESC").Order("id DESC").Find(&items).Error; err != nil {
		return nil, wrapGormError("list "+r.joinColumn, err)
	}
	return items, nil
}

func (r *taxonomyRepository[T]) Create(ctx context.Context, item *T) error {
	return wrapGormError("create "+r.joinColumn, r.db.WithContext(ctx).Create(item).Error)
}

func (r *taxonomyRepository[T]) FindOwned(ctx context.Context, owner uint, ids []uint) ([]T, error) {
	items := []T{}
	if len(ids) == 0 {
		return items, nil
	}
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND id IN ?", owner, ids).
		Order("id").
		Find(&items).Error
	if err != nil {
		return nil, wrapGormError("find "+r.joinColumn, err)
	}
	return items, nil
}
