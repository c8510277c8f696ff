package authentication

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mehmetcc/boom-backend/internal/user"
)

// SignUpRequest is the payload for registering.
type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,strongpassword"`
	Name     string `json:"name" binding:"required,min=1,max=100"`
}

// SignInRequest is the payload for logging in.
type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,max=72"`
}

// RefreshRequest is the payload for rotating a refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// AuthHandler handles authentication-related HTTP endpoints.
type AuthHandler struct {
	router  *gin.RouterGroup
	service AuthenticationService
	logger  *zap.Logger
}

// NewAuthHandler registers auth endpoints on the given router group. requireAccess
// guards logout.
func NewAuthHandler(router *gin.RouterGroup, service AuthenticationService, requireAccess gin.HandlerFunc, logger *zap.Logger) *AuthHandler {
	h := &AuthHandler{router: router, service: service, logger: logger}
	h.router.POST("/auth/signup", h.SignUp)
	h.router.POST("/auth/signin", h.SignIn)
	h.router.POST("/auth/refresh", h.Refresh)
	h.router.POST("/auth/logout", requireAccess, h.Logout)
	return h
}

// SignUp godoc
// @Summary      Sign up
// @Description  Register a user and issue tokens
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      SignUpRequest  true  "Registration payload"
// @Success      201      {object}  AuthResponse
// @Failure      400      {object}  map[string]string
// @Failure      409      {object}  map[string]string
// @Failure      429      {object}  map[string]string
// @Failure      500      {object}  map[string]string
// @Router       /auth/signup [post]
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid signup payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email, password or name"})
		return
	}
	resp, err := h.service.SignUp(c.Request.Context(), req.Email, req.Password, req.Name)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, resp)
	case errors.Is(err, ErrEmailAlreadyRegistered):
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
	default:
		h.logger.Error("SignUp service failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not sign up"})
	}
}

// SignIn godoc
// @Summary      Sign in
// @Description  Authenticate a user and issue tokens
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      SignInRequest  true  "Credentials"
// @Success      200      {object}  AuthResponse
// @Failure      400      {object}  map[string]string
// @Failure      401      {object}  map[string]string
// @Failure      429      {object}  map[string]string
// @Failure      500      {object}  map[string]string
// @Router       /auth/signin [post]
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid signin payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email or password format"})
		return
	}
	resp, err := h.service.SignIn(c.Request.Context(), req.Email, req.Password)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, resp)
	case errors.Is(err, ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	default:
		h.logger.Error("SignIn service failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not sign in"})
	}
}

// Refresh godoc
// @Summary      Refresh tokens
// @Description  Consume a refresh token and issue a new pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      RefreshRequest  true  "Refresh token payload"
// @Success      200      {object}  AuthResponse
// @Failure      400      {object}  map[string]string
// @Failure      401      {object}  map[string]string
// @Failure      429      {object}  map[string]string
// @Failure      500      {object}  map[string]string
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid refresh payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "refresh token required"})
		return
	}
	resp, err := h.service.Refresh(c.Request.Context(), req.RefreshToken)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, resp)
	case errors.Is(err, ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired refresh token"})
	default:
		h.logger.Error("Refresh service failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not refresh token"})
	}
}

// Logout godoc
// @Summary      Logout
// @Description  Revoke every refresh token of the authenticated user
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Failure      401      {object}  map[string]string
// @Failure      500      {object}  map[string]string
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	userID := c.GetString(user.ContextUserIDKey)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if err := h.service.Logout(c.Request.Context(), userID); err != nil {
		h.logger.Error("Logout service failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not logout"})
		return
	}
	c.Status(http.StatusNoContent)
}
