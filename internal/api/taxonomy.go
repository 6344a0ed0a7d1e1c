package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pageza/recipe-api/backend/internal/middleware"
	"github.com/pageza/recipe-api/backend/internal/models"
	"github.com/pageza/recipe-api/backend/internal/service"
)

// TaxonomyHandler lists and creates the current user's tags or ingredients.
type TaxonomyHandler[T models.Taxon] struct {
	svc  service.ITaxonomyService[T]
	path string
	log  *zap.Logger
}

// NewTaxonomyHandler serves svc under path, e.g. "/tags".
func NewTaxonomyHandler[T models.Taxon](svc service.ITaxonomyService[T], path string, log *zap.Logger) *TaxonomyHandler[T] {
	return &TaxonomyHandler[T]{svc: svc, path: path, log: log}
}

func (h *TaxonomyHandler[T]) RegisterRoutes(protected *gin.RouterGroup) {
	group := protected.Group(h.path)
	{
		group.GET("", h.List)
		group.POST("", h.Create)
	}
}

func (h *TaxonomyHandler[T]) List(c *gin.Context) {
	assignedOnly, err := parseFlag(c.Query("assigned_only"))
	if err != nil {
		respondError(c, h.log, service.NewValidationError("assigned_only", "Must be 0 or 1."))
		return
	}

	items, err := h.svc.List(c.Request.Context(), middleware.UserID(c), service.ListOptions{AssignedOnly: assignedOnly})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, newLabelResponses(items))
}

func (h *TaxonomyHandler[T]) Create(c *gin.Context) {
	var req labelRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.svc.Create(c.Request.Context(), middleware.UserID(c), req.Name)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, newLabelResponse(*item))
}

// parseFlag accepts an empty value as false and otherwise the forms
// understood by strconv.ParseBool.
func parseFlag(raw string) (bool, error) {
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}
