package middlewares

import (
	"fmt"
	"net/http"
	"time"

	"civicsetu-be/apperrors"
	"civicsetu-be/logger"
	"civicsetu-be/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// ReportRateLimiter caps how many reports a user may file in a 24h window.
// The window starts at the user's first report.
func ReportRateLimiter(client *redis.Client, keyPrefix string, limit int) gin.HandlerFunc {
	log := logger.WithComponent("ratelimit")
	return func(c *gin.Context) {
		userID, _, ok := CurrentUser(c)
		if !ok {
			utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
			return
		}

		ctx := c.Request.Context()
		userKey := keyPrefix + ":" + userID

		count, err := client.Incr(ctx, userKey).Result()
		if err != nil {
			log.Error("redis error incrementing count", "error", err, "key", userKey)
			utils.ErrorResponseWithError(c, apperrors.NewInternalError("rate limiter unavailable"))
			return
		}

		// Set TTL only for the first increment
		if count == 1 {
			if err := client.Expire(ctx, userKey, 24*time.Hour).Err(); err != nil {
				log.Error("redis error setting TTL", "error", err, "key", userKey)
				utils.ErrorResponseWithError(c, apperrors.NewInternalError("rate limiter unavailable"))
				return
			}
		}

		if count > int64(limit) {
			retryAfter, _ := client.TTL(ctx, userKey).Result()
			c.Header("Retry-After", fmt.Sprintf("%.0f", retryAfter.Seconds()))
			utils.ErrorResponseWithError(c, apperrors.NewTooManyRequestsError(
				"daily report limit reached",
				fmt.Sprintf("retry after %.0f seconds", retryAfter.Seconds()),
			))
			return
		}

		c.Next()
	}
}
