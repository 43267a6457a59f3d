package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// DefaultPublishRate is the per-client publish allowance in requests per second.
const DefaultPublishRate = 10

// RateLimiter limits requests per client IP for the routes it is applied to.
// A non-positive limit uses DefaultPublishRate.
func RateLimiter(limit float64) echo.MiddlewareFunc {
	if limit <= 0 {
		limit = DefaultPublishRate
	}
	config := middleware.RateLimiterConfig{
		// In-memory store, suitable for a single gateway instance.
		Store: middleware.NewRateLimiterMemoryStore(rate.Limit(limit)),

		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "too many requests",
			})
		},
	}
	return middleware.RateLimiterWithConfig(config)
}
