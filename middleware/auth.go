package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"dental_clinic_api/services/i18n"

	"github.com/labstack/echo/v4"
)

// RequireAPIToken is middleware that requires "Authorization: Bearer <token>".
// An empty expected token disables the check (development only, enforced by config).
func RequireAPIToken(token string) echo.MiddlewareFunc {
	expected := []byte(token)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if len(expected) == 0 {
				return next(c)
			}

			header := c.Request().Header.Get(echo.HeaderAuthorization)
			scheme, provided, found := strings.Cut(header, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") {
				return unauthorized(c)
			}

			if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(provided)), expected) != 1 {
				return unauthorized(c)
			}
			return next(c)
		}
	}
}

func unauthorized(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, `Bearer realm="api"`)
	return echo.NewHTTPError(http.StatusUnauthorized, i18n.T(c.Request().Context(), "errors.unauthorized"))
}
