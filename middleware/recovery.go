package middleware

import (
	"fmt"
	"net/http"
	"runtime"

	"dental_clinic_api/services/i18n"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Recovery turns panics into 500 responses and logs the stack
func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					var stack [4096]byte
					n := runtime.Stack(stack[:], false)

					logger.Error().
						Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
						Str("panic", fmt.Sprintf("%v", r)).
						Str("stack", string(stack[:n])).
						Msg("panic recovered")

					err = echo.NewHTTPError(http.StatusInternalServerError, i18n.T(c.Request().Context(), "errors.internal"))
				}
			}()
			return next(c)
		}
	}
}
