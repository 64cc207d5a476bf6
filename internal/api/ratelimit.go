package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/nekogravitycat/daycare-sub-backend/internal/pkg/response"
)

// NewAuthRateLimiter limits unauthenticated auth endpoints per client IP.
// rate uses the limiter format, e.g. "20-M" for 20 requests per minute.
// An empty rate disables limiting.
func NewAuthRateLimiter(rate string) (gin.HandlerFunc, error) {
	if rate == "" {
		return func(c *gin.Context) { c.Next() }, nil
	}

	r, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("invalid auth rate limit %q: %w", rate, err)
	}

	instance := limiter.New(memory.NewStore(), r)

	return mgin.NewMiddleware(instance,
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
		}),
		mgin.WithErrorHandler(rateLimitError),
	), nil
}

// rateLimitError answers store failures like any other unexpected error.
func rateLimitError(c *gin.Context, err error) {
	response.Error(c, err)
	c.Abort()
}
