package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/pageza/recipe-api/backend/internal/models"
	"github.com/pageza/recipe-api/backend/internal/repository"
)

// ListOptions narrows a tag or ingredient listing.
type ListOptions struct {
	// AssignedOnly keeps only labels attached to at least one recipe.
	AssignedOnly bool
}

type labelFields struct {
	Name string `json:"name" validate:"required,max=255"`
}

// TaxonomyService manages one kind of owner-scoped label.
type TaxonomyService[T models.Taxon] struct {
	repo repository.TaxonomyRepository[T]
	// field names the recipe attribute that references T
	field string
}

// NewTagService returns the service for tags.
func NewTagService(repo repository.TaxonomyRepository[models.Tag]) *TaxonomyService[models.Tag] {
	return &TaxonomyService[models.Tag]{repo: repo, field: "tags"}
}

// NewIngredientService returns the service for ingredients.
func NewIngredientService(repo repository.TaxonomyRepository[models.Ingredient]) *TaxonomyService[models.Ingredient] {
	return &TaxonomyService[models.Ingredient]{repo: repo, field: "ingredients"}
}

// List returns the owner's labels ordered by name descending.
func (s *TaxonomyService[T]) List(ctx context.Context, owner uint, opts ListOptions) ([]T, error) {
	return s.repo.List(ctx, owner, opts.AssignedOnly)
}

// Create stores a new label for owner.
func (s *TaxonomyService[T]) Create(ctx context.Context, owner uint, name string) (*T, error) {
	fields := labelFields{Name: strings.TrimSpace(name)}
	if err := validateStruct(fields).OrNil(); err != nil {
		return nil, err
	}

	item := T(models.Label{UserID: owner, Name: fields.Name})
	if err := s.repo.Create(ctx, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// ResolveOwned loads the labels with the given ids, in request order and
// without duplicates. Any id that is missing or owned by someone else
// fails the whole call with a ValidationError.
func (s *TaxonomyService[T]) ResolveOwned(ctx context.Context, owner uint, ids []uint) ([]T, error) {
	items, err := s.repo.FindOwned(ctx, owner, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uint]T, len(items))
	for _, item := range items {
		byID[models.Label(item).ID] = item
	}

	resolved := make([]T, 0, len(ids))
	seen := make(map[uint]bool, len(ids))
	ve := &ValidationError{}
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		item, ok := byID[id]
		if !ok {
			ve.Add(s.field, fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id))
			continue
		}
		resolved = append(resolved, item)
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}
	return resolved, nil
}
