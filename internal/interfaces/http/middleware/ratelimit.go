package middleware

import (
	"net/http"
	"time"

	"github.com/Oscarts/backery2-app-sub003/internal/infrastructure/logger"
	"github.com/Oscarts/backery2-app-sub003/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"
)

// RateLimitConfig configures the per tenant and client rate limiter
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	// Store defaults to an in-process memory store
	Store limiter.Store
	// SkipPaths are never limited
	SkipPaths []string
}

// RateLimit limits requests per tenant and client IP. Rejected requests get
// 429 with the RATE_LIMITED envelope. The X-RateLimit-* headers are set on
// every limited route.
func RateLimit(cfg RateLimitConfig, log *zap.Logger) gin.HandlerFunc {
	if cfg.Requests <= 0 {
		cfg.Requests = 100
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	store := cfg.Store
	if store == nil {
		store = memory.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          "bakery:ratelimit",
			CleanUpInterval: cfg.Window,
		})
	}
	instance := limiter.New(store, limiter.Rate{Period: cfg.Window, Limit: int64(cfg.Requests)})

	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	limited := mgin.NewMiddleware(instance,
		mgin.WithKeyGetter(rateLimitKey),
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				dto.NewErrorResponseWithDetails(dto.ErrCodeRateLimited, "Too many requests, retry later", nil, GetRequestID(c)))
		}),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			// A broken limiter store must not take the API down.
			log.Warn("Rate limiter unavailable", zap.Error(err))
			c.Next()
		}),
	)

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}
		limited(c)
	}
}

func rateLimitKey(c *gin.Context) string {
	tenant := c.GetHeader(logger.TenantHeader)
	if tenant == "" {
		tenant = "-"
	}
	return tenant + ":" + c.ClientIP()
}
