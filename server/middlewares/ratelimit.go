package middlewares

import (
	"fmt"
	"strconv"
	"time"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/Luismorlan/factfeed/utils"
	"github.com/Luismorlan/factfeed/utils/apperr"
	. "github.com/Luismorlan/factfeed/utils/log"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

const rateLimitPrefix = "factfeed:ratelimit:"

// RateLimiter is a fixed window counter per client ip kept in redis.
type RateLimiter struct {
	client   *redis.Client
	requests int
	window   time.Duration
	metrics  statsd.ClientInterface
	now      func() time.Time
}

// NewRateLimiter returns nil, meaning unlimited, without a redis client or
// with a non positive budget.
func NewRateLimiter(client *redis.Client, requests int, window time.Duration, metrics statsd.ClientInterface) *RateLimiter {
	if client == nil || requests <= 0 || window <= 0 {
		return nil
	}
	if metrics == nil {
		metrics = &statsd.NoOpClient{}
	}
	return &RateLimiter{client: client, requests: requests, window: window, metrics: metrics, now: time.Now}
}

// Middleware rejects requests past the budget of the current window with 429.
// Redis failures let the request through.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}
		now := l.now()
		slot := now.UnixNano() / int64(l.window)
		key := fmt.Sprintf("%s%s:%d", rateLimitPrefix, c.ClientIP(), slot)

		ctx := c.Request.Context()
		pipe := l.client.TxPipeline()
		incr := pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, l.window)
		if _, err := pipe.Exec(ctx); err != nil {
			Log.WithError(err).Warn("rate limiter unavailable, request allowed")
			c.Next()
			return
		}

		if incr.Val() > int64(l.requests) {
			windowEnd := time.Unix(0, (slot+1)*int64(l.window))
			retryAfter := int(windowEnd.Sub(now).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			_ = l.metrics.Incr(utils.DDOG_RATE_LIMITED, []string{"path:" + c.FullPath()}, 1)
			abort(c, apperr.NewRateLimited("rate limit of %d requests per %s exceeded", l.requests, l.window))
			return
		}
		c.Next()
	}
}
