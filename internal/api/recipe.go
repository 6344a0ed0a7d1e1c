package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pageza/recipe-api/backend/internal/middleware"
	"github.com/pageza/recipe-api/backend/internal/models"
	"github.com/pageza/recipe-api/backend/internal/service"
)

// multipart framing allowance on top of the image limit
const multipartOverhead = 1 << 20

// RecipeHandler serves the recipe endpoints of the current user.
type RecipeHandler struct {
	recipes service.IRecipeService
	images  service.IImageService
	create  *middleware.RateLimiter
	modify  *middleware.RateLimiter
	log     *zap.Logger
}

func NewRecipeHandler(
	recipes service.IRecipeService,
	images service.IImageService,
	createLimiter, modifyLimiter *middleware.RateLimiter,
	log *zap.Logger,
) *RecipeHandler {
	return &RecipeHandler{
		recipes: recipes,
		images:  images,
		create:  createLimiter,
		modify:  modifyLimiter,
		log:     log,
	}
}

func (h *RecipeHandler) RegisterRoutes(protected *gin.RouterGroup) {
	perRecipe := h.modify.PerRecipeRateLimitMiddleware()
	recipes := protected.Group("/recipes")
	{
		recipes.GET("", h.create.RateLimitMiddleware(), h.ListRecipes)
		recipes.POST("", h.create.RateLimitMiddleware(), h.CreateRecipe)
		recipes.GET("/:id", perRecipe, h.GetRecipe)
		recipes.PATCH("/:id", perRecipe, h.PatchRecipe)
		recipes.PUT("/:id", perRecipe, h.PutRecipe)
		recipes.DELETE("/:id", h.DeleteRecipe)
		recipes.POST("/:id/image", perRecipe, h.UploadImage)
	}
}

func (h *RecipeHandler) detail(r *models.Recipe) recipeDetailResponse {
	return newRecipeDetailResponse(r, h.recipes.ImageURL(r.Image))
}

// recipeID parses the :id parameter. Anything that is not an id cannot
// name a recipe, so it is answered with 404.
func (h *RecipeHandler) recipeID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, h.log, service.ErrNotFound)
		return 0, false
	}
	return uint(id), true
}

// parseIDs reads a comma separated id list such as "1,2,3".
func parseIDs(raw string) ([]uint, error) {
	if raw == "" {
		return nil, nil
	}
	var ids []uint
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	var filter service.RecipeFilter
	ve := &service.ValidationError{}
	var err error
	if filter.TagIDs, err = parseIDs(c.Query("tags")); err != nil {
		ve.Add("tags", "Enter a comma separated list of ids.")
	}
	if filter.IngredientIDs, err = parseIDs(c.Query("ingredients")); err != nil {
		ve.Add("ingredients", "Enter a comma separated list of ids.")
	}
	if ve.HasErrors() {
		respondError(c, h.log, ve)
		return
	}

	recipes, err := h.recipes.List(c.Request.Context(), middleware.UserID(c), filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	resp := make([]recipeResponse, 0, len(recipes))
	for i := range recipes {
		resp = append(resp, newRecipeResponse(&recipes[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := h.recipeID(c)
	if !ok {
		return
	}
	recipe, err := h.recipes.Get(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, h.detail(recipe))
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req recipeRequest
	if !bindJSON(c, &req) {
		return
	}
	recipe, err := h.recipes.Create(c.Request.Context(), middleware.UserID(c), req.input())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, h.detail(recipe))
}

func (h *RecipeHandler) PatchRecipe(c *gin.Context) {
	id, ok := h.recipeID(c)
	if !ok {
		return
	}
	var req recipeRequest
	if !bindJSON(c, &req) {
		return
	}
	recipe, err := h.recipes.UpdatePartial(c.Request.Context(), middleware.UserID(c), id, req.patch())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, h.detail(recipe))
}

func (h *RecipeHandler) PutRecipe(c *gin.Context) {
	id, ok := h.recipeID(c)
	if !ok {
		return
	}
	var req recipeRequest
	if !bindJSON(c, &req) {
		return
	}
	recipe, err := h.recipes.UpdateFull(c.Request.Context(), middleware.UserID(c), id, req.input())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, h.detail(recipe))
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, ok := h.recipeID(c)
	if !ok {
		return
	}
	if err := h.recipes.Delete(c.Request.Context(), middleware.UserID(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadImage accepts a multipart form with the picture in the "image" field.
func (h *RecipeHandler) UploadImage(c *gin.Context) {
	id, ok := h.recipeID(c)
	if !ok {
		return
	}

	maxBytes := h.images.MaxBytes()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartOverhead)
	fileHeader, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			respondError(c, h.log, service.NewValidationError("image",
				fmt.Sprintf("Ensure this file is no larger than %d bytes.", maxBytes)))
		default:
			respondError(c, h.log, service.NewValidationError("image", "No file was submitted."))
		}
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, h.log, fmt.Errorf("open upload: %w", err))
		return
	}
	defer file.Close()

	// One byte past the limit is enough for the service to reject it
	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		respondError(c, h.log, fmt.Errorf("read upload: %w", err))
		return
	}

	recipe, err := h.images.UploadImage(c.Request.Context(), middleware.UserID(c), id, data, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, imageResponse{ID: recipe.ID, Image: h.recipes.ImageURL(recipe.Image)})
}
