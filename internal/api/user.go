package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pageza/recipe-api/backend/internal/middleware"
	"github.com/pageza/recipe-api/backend/internal/service"
)

// UserHandler serves registration, token and profile endpoints.
type UserHandler struct {
	users  service.IUserService
	tokens service.ITokenService
	log    *zap.Logger
}

func NewUserHandler(users service.IUserService, tokens service.ITokenService, log *zap.Logger) *UserHandler {
	return &UserHandler{users: users, tokens: tokens, log: log}
}

// RegisterRoutes mounts the public routes on public and the rest behind auth.
func (h *UserHandler) RegisterRoutes(public *gin.RouterGroup, auth gin.HandlerFunc) {
	users := public.Group("/users")
	{
		users.POST("", h.CreateUser)
		users.POST("/token", h.CreateToken)
		users.DELETE("/token", auth, h.RevokeToken)
		users.GET("/me", auth, h.GetMe)
		users.PATCH("/me", auth, h.PatchMe)
		users.PUT("/me", auth, h.PutMe)
	}
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.CreateUser(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, newUserResponse(user))
}

// CreateToken exchanges credentials for the user's token. Failures are
// always 400 and never carry a token field.
func (h *UserHandler) CreateToken(c *gin.Context) {
	var req tokenRequest
	if !bindJSON(c, &req) {
		return
	}

	ve := &service.ValidationError{}
	if strings.TrimSpace(req.Email) == "" {
		ve.Add("email", "This field is required.")
	}
	if req.Password == "" {
		ve.Add("password", "This field is required.")
	}
	if ve.HasErrors() {
		respondError(c, h.log, ve)
		return
	}

	token, err := h.tokens.IssueToken(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if service.IsAuthentication(err) {
			c.JSON(http.StatusBadRequest, gin.H{"non_field_errors": []string{err.Error()}})
			return
		}
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{Token: token})
}

func (h *UserHandler) RevokeToken(c *gin.Context) {
	if err := h.tokens.RevokeToken(c.Request.Context(), middleware.UserID(c)); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) GetMe(c *gin.Context) {
	user, err := h.users.GetUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}

func (h *UserHandler) PatchMe(c *gin.Context) {
	var req updateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	h.update(c, service.UserUpdate{Email: req.Email, Password: req.Password, Name: req.Name})
}

// PutMe replaces the profile. Email and password are required, a missing
// name is cleared.
func (h *UserHandler) PutMe(c *gin.Context) {
	var req updateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	ve := &service.ValidationError{}
	if req.Email == nil {
		ve.Add("email", "This field is required.")
	}
	if req.Password == nil {
		ve.Add("password", "This field is required.")
	}
	if ve.HasErrors() {
		respondError(c, h.log, ve)
		return
	}
	if req.Name == nil {
		empty := ""
		req.Name = &empty
	}
	h.update(c, service.UserUpdate{Email: req.Email, Password: req.Password, Name: req.Name})
}

func (h *UserHandler) update(c *gin.Context, upd service.UserUpdate) {
	user, err := h.users.UpdateUser(c.Request.Context(), middleware.UserID(c), upd)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}
