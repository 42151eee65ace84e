package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"dental_clinic_api/services/i18n"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestLocale(t *testing.T) {
	e := echo.New()

	run := func(t *testing.T, target, acceptLanguage string) (echo.Context, string) {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, target, nil)
		if acceptLanguage != "" {
			req.Header.Set("Accept-Language", acceptLanguage)
		}
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		var ctxLocale string
		handler := Locale()(func(c echo.Context) error {
			ctxLocale = i18n.GetLocale(c.Request().Context())
			return c.NoContent(http.StatusOK)
		})
		assert.NoError(t, handler(c))
		assert.Equal(t, ctxLocale, rec.Header().Get("Content-Language"))
		return c, ctxLocale
	}

	t.Run("PriorityQueryParam", func(t *testing.T) {
		c, locale := run(t, "/?lang=en", "es-ES,es;q=0.9")
		assert.Equal(t, "en", c.Get("locale"))
		assert.Equal(t, "en", locale)
	})

	t.Run("UnsupportedQueryParamFallsThrough", func(t *testing.T) {
		_, locale := run(t, "/?lang=fr", "en-US")
		assert.Equal(t, "en", locale)
	})

	t.Run("PriorityHeader", func(t *testing.T) {
		_, locale := run(t, "/", "en-GB,en;q=0.9,es;q=0.8")
		assert.Equal(t, "en", locale)
	})

	t.Run("FirstSupportedHeaderTag", func(t *testing.T) {
		_, locale := run(t, "/", "fr-FR, es-MX;q=0.7")
		assert.Equal(t, "es", locale)
	})

	t.Run("DefaultLanguage", func(t *testing.T) {
		c, locale := run(t, "/", "")
		assert.Equal(t, "es", c.Get("locale"))
		assert.Equal(t, "es", locale)
	})
}
