package middleware

import (
	"net/http"
	"time"

	"dental_clinic_api/services/i18n"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines the configuration for rate limiting
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate allowed per client
	RequestsPerSecond float64
	// Burst is how many requests a client may make at once
	Burst int
	// ExpiresIn drops idle client entries from memory
	ExpiresIn time.Duration
	// KeyFunc returns the client key (defaults to IP)
	KeyFunc func(c echo.Context) string
}

// NewRateLimiter returns a per-client token bucket middleware backed by echo's memory store
func NewRateLimiter(config RateLimitConfig) echo.MiddlewareFunc {
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = 2
	}
	if config.Burst <= 0 {
		config.Burst = int(config.RequestsPerSecond*2) + 1
	}
	if config.ExpiresIn <= 0 {
		config.ExpiresIn = 3 * time.Minute
	}
	if config.KeyFunc == nil {
		config.KeyFunc = func(c echo.Context) string {
			return c.RealIP()
		}
	}

	store := echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(config.RequestsPerSecond),
		Burst:     config.Burst,
		ExpiresIn: config.ExpiresIn,
	})

	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return config.KeyFunc(c), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, i18n.T(c.Request().Context(), "errors.invalid_request"))
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			c.Response().Header().Set("Retry-After", "1")
			return echo.NewHTTPError(http.StatusTooManyRequests, i18n.T(c.Request().Context(), "errors.rate_limited"))
		},
	})
}
