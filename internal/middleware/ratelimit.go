package middleware

import (
	"net/http"
	"time"

	"github.com/didip/tollbooth/v7"
	"github.com/didip/tollbooth/v7/limiter"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const limiterEntryTTL = time.Hour

// RateLimit allows perSecond requests per client IP and route.
func RateLimit(perSecond float64, logger *zap.Logger) gin.HandlerFunc {
	lmt := tollbooth.NewLimiter(perSecond, &limiter.ExpirableOptions{
		DefaultExpirationTTL: limiterEntryTTL,
	})
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	lmt.SetBurst(burst)

	return func(c *gin.Context) {
		if httpErr := tollbooth.LimitByKeys(lmt, []string{c.ClientIP(), c.FullPath()}); httpErr != nil {
			logger.Warn("rate limit exceeded",
				zap.String("client_ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded, please try again later"})
			return
		}
		c.Next()
	}
}
