package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pageza/recipe-api/backend/internal/service"
)

const (
	detailNotFound    = "Not found."
	detailServerError = "A server error occurred."
)

// respondError writes the HTTP response for an error returned by a service.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	var ve *service.ValidationError
	var ae *service.AuthenticationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, ve.Fields)
	case errors.As(err, &ae):
		c.Header("WWW-Authenticate", "Token")
		c.JSON(http.StatusUnauthorized, gin.H{"detail": ae.Message})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": detailNotFound})
	default:
		_ = c.Error(err)
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": detailServerError})
	}
}

// bindJSON decodes the request body into dst. An empty body leaves dst
// untouched. Malformed input is answered with 400 and reported as false.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "JSON parse error - " + err.Error()})
		return false
	}
	return true
}
