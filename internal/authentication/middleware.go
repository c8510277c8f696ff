package authentication

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mehmetcc/boom-backend/internal/user"
	"github.com/mehmetcc/boom-backend/internal/utils"
)

const ContextEmailKey = "email"

// AccessVerifier is the part of TokenIssuer the middleware needs.
type AccessVerifier interface {
	VerifyAccess(raw string) (*utils.Claims, error)
}

// AuthMiddleware accepts only access tokens and stores the subject under
// user.ContextUserIDKey.
func AuthMiddleware(verifier AccessVerifier, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer <token>"})
			return
		}

		claims, err := verifier.VerifyAccess(parts[1])
		if err != nil {
			logger.Debug("access token rejected", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired access token"})
			return
		}

		c.Set(user.ContextUserIDKey, claims.Subject)
		c.Set(ContextEmailKey, claims.Email)
		c.Next()
	}
}
