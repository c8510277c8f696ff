package user

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IDRequest represents a URI ID parameter.
type IDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// UserHandler handles HTTP requests for user resources. Every route expects
// an upstream middleware to have stored the caller's id under ContextUserIDKey.
type UserHandler struct {
	router  *gin.RouterGroup
	service UserService
	logger  *zap.Logger
}

// NewUserHandler registers user endpoints on the given router group.
func NewUserHandler(router *gin.RouterGroup, service UserService, logger *zap.Logger) *UserHandler {
	h := &UserHandler{router: router, service: service, logger: logger}
	h.router.GET("/users", h.ListUsers)
	h.router.GET("/users/me", h.ReadCurrentUser)
	h.router.GET("/users/:id", h.ReadUserByID)
	return h
}

// ReadCurrentUser godoc
// @Summary      Get current user
// @Description  Fetch the profile of the authenticated user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} Profile
// @Failure      401 {object} map[string]string
// @Failure      404 {object} map[string]string
// @Router       /users/me [get]
func (h *UserHandler) ReadCurrentUser(c *gin.Context) {
	id := c.GetString(ContextUserIDKey)
	if id == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	h.respondProfile(c, id)
}

// ReadUserByID godoc
// @Summary      Get user by ID
// @Description  Fetch a user profile by id
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  Profile
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /users/{id} [get]
func (h *UserHandler) ReadUserByID(c *gin.Context) {
	var uri IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or missing id"})
		return
	}
	h.respondProfile(c, uri.ID)
}

// ListUsers godoc
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   Profile
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	profiles, err := h.service.ListProfiles(c.Request.Context())
	if err != nil {
		h.logger.Error("service.ListProfiles failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list users"})
		return
	}
	c.JSON(http.StatusOK, profiles)
}

func (h *UserHandler) respondProfile(c *gin.Context, id string) {
	profile, err := h.service.ReadProfile(c.Request.Context(), id)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, profile)
	case errors.Is(err, ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	default:
		h.logger.Error("service.ReadProfile failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch user"})
	}
}
