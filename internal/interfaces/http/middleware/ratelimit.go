package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/commerce/backend/internal/infrastructure/cache"
	"github.com/commerce/backend/internal/infrastructure/logger"
	"github.com/commerce/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Rate limit response headers
const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
)

// RateLimit returns a rate limiting middleware keyed by client IP
func RateLimit(limiter cache.RateLimiter) gin.HandlerFunc {
	return RateLimitByKey(limiter, func(c *gin.Context) string {
		return c.ClientIP()
	})
}

// RateLimitByKey returns a rate limiting middleware with custom key extractor.
// Limiter failures let the request through.
func RateLimitByKey(limiter cache.RateLimiter, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision, err := limiter.Allow(c.Request.Context(), keyFunc(c))
		if err != nil {
			logger.FromContext(c.Request.Context()).Warn("Rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}

		c.Header(HeaderRateLimitLimit, strconv.Itoa(decision.Limit))
		c.Header(HeaderRateLimitRemaining, strconv.Itoa(decision.Remaining))
		c.Header(HeaderRateLimitReset, strconv.FormatInt(decision.Reset.Unix(), 10))

		if !decision.Allowed {
			retryAfter := int(time.Until(decision.Reset).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRateLimited,
				"Too many requests. Please try again later.",
				c.GetString(logger.RequestIDKey),
			))
			return
		}

		c.Next()
	}
}
