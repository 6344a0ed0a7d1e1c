package api

import (
	"github.com/shopspring/decimal"

	"github.com/pageza/recipe-api/backend/internal/models"
	"github.com/pageza/recipe-api/backend/internal/service"
)

// Requests

type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type updateUserRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Name     *string `json:"name"`
}

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type labelRequest struct {
	Name string `json:"name"`
}

// recipeRequest uses pointers so omitted fields can be told apart from
// zero values.
type recipeRequest struct {
	Title       *string          `json:"title"`
	TimeMinutes *int             `json:"time_minutes"`
	Price       *decimal.Decimal `json:"price"`
	Link        *string          `json:"link"`
	Tags        *[]uint          `json:"tags"`
	Ingredients *[]uint          `json:"ingredients"`
}

func (r recipeRequest) input() service.RecipeInput {
	in := service.RecipeInput{Price: r.Price}
	if r.Title != nil {
		in.Title = *r.Title
	}
	if r.TimeMinutes != nil {
		in.TimeMinutes = *r.TimeMinutes
	}
	if r.Link != nil {
		in.Link = *r.Link
	}
	if r.Tags != nil {
		in.Tags = *r.Tags
	}
	if r.Ingredients != nil {
		in.Ingredients = *r.Ingredients
	}
	return in
}

func (r recipeRequest) patch() service.RecipePatch {
	return service.RecipePatch{
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price,
		Link:        r.Link,
		Tags:        r.Tags,
		Ingredients: r.Ingredients,
	}
}

// Responses

type userResponse struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{Email: u.Email, Name: u.Name}
}

type tokenResponse struct {
	Token string `json:"token"`
}

type labelResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func newLabelResponse[T models.Taxon](item T) labelResponse {
	l := models.Label(item)
	return labelResponse{ID: l.ID, Name: l.Name}
}

func newLabelResponses[T models.Taxon](items []T) []labelResponse {
	out := make([]labelResponse, 0, len(items))
	for _, item := range items {
		out = append(out, newLabelResponse(item))
	}
	return out
}

// recipeResponse is the list representation: related rows by id.
type recipeResponse struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	TimeMinutes int    `json:"time_minutes"`
	Price       string `json:"price"`
	Link        string `json:"link"`
	Tags        []uint `json:"tags"`
	Ingredients []uint `json:"ingredients"`
}

func newRecipeResponse(r *models.Recipe) recipeResponse {
	return recipeResponse{
		ID:          r.ID,
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price.StringFixed(2),
		Link:        r.Link,
		Tags:        r.TagIDs(),
		Ingredients: r.IngredientIDs(),
	}
}

// recipeDetailResponse nests related rows and carries the image URL.
type recipeDetailResponse struct {
	ID          uint            `json:"id"`
	Title       string          `json:"title"`
	TimeMinutes int             `json:"time_minutes"`
	Price       string          `json:"price"`
	Link        string          `json:"link"`
	Tags        []labelResponse `json:"tags"`
	Ingredients []labelResponse `json:"ingredients"`
	Image       *string         `json:"image"`
}

func newRecipeDetailResponse(r *models.Recipe, imageURL string) recipeDetailResponse {
	resp := recipeDetailResponse{
		ID:          r.ID,
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price.StringFixed(2),
		Link:        r.Link,
		Tags:        newLabelResponses(r.Tags),
		Ingredients: newLabelResponses(r.Ingredients),
	}
	if imageURL != "" {
		resp.Image = &imageURL
	}
	return resp
}

type imageResponse struct {
	ID    uint   `json:"id"`
	Image string `json:"image"`
}
