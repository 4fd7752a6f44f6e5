package middleware

import (
	"net/http"
	"time"

	"github.com/erp/lifetime/internal/infrastructure/cache"
	"github.com/erp/lifetime/internal/infrastructure/logger"
	"github.com/erp/lifetime/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IdempotencyKeyHeader lets clients retry a POST without repeating its effect
const IdempotencyKeyHeader = "Idempotency-Key"

// maxIdempotencyKeyLength caps client supplied keys
const maxIdempotencyKeyLength = 255

// Idempotency rejects a POST whose Idempotency-Key was already used on the same route.
// Keys of failed requests are released so the client can retry them.
func Idempotency(store cache.IdempotencyStore, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if c.Request.Method != http.MethodPost || key == "" {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(
				dto.ErrCodeBadRequest, "Idempotency-Key is too long", GetRequestID(c)))
			return
		}

		ctx := c.Request.Context()
		scoped := c.FullPath() + ":" + key
		claimed, err := store.Claim(ctx, scoped, ttl)
		if err != nil {
			// Fail open: a store outage must not block writes
			logger.GetGinLogger(c).Warn("Idempotency store unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !claimed {
			c.AbortWithStatusJSON(http.StatusConflict, dto.NewErrorResponse(
				dto.ErrCodeConflict, "Request with this Idempotency-Key was already processed", GetRequestID(c)))
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			if err := store.Release(ctx, scoped); err != nil {
				logger.GetGinLogger(c).Warn("Failed to release idempotency key", zap.Error(err))
			}
		}
	}
}
