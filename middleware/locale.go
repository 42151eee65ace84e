package middleware

import (
	"strings"

	"dental_clinic_api/services/i18n"

	"github.com/labstack/echo/v4"
)

// Locale middleware picks the response language.
// Priority:
// 1. Query param "lang"
// 2. Accept-Language header (first supported tag, by order)
// 3. Default ("es")
func Locale() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			lang := strings.ToLower(c.QueryParam("lang"))
			if !i18n.IsSupported(lang) {
				lang = fromAcceptLanguage(c.Request().Header.Get("Accept-Language"))
			}

			c.Set("locale", lang)
			c.Response().Header().Set("Content-Language", lang)

			ctx := i18n.WithLocale(c.Request().Context(), lang)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// fromAcceptLanguage returns the first supported primary tag, ignoring q-values
func fromAcceptLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		primary := strings.ToLower(strings.SplitN(tag, "-", 2)[0])
		if i18n.IsSupported(primary) {
			return primary
		}
	}
	return i18n.DefaultLanguage()
}
