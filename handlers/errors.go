package handlers

import (
	"errors"
	"net/http"
	"strings"

	"dental_clinic_api/middleware"
	"dental_clinic_api/services/i18n"

	"github.com/labstack/echo/v4"
)

// apiError builds an HTTP error with a message in the request's language
func apiError(c echo.Context, status int, key string, args ...map[string]interface{}) *echo.HTTPError {
	return echo.NewHTTPError(status, i18n.T(c.Request().Context(), key, args...))
}

// bindAndValidate decodes the JSON body into req and runs struct validation
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return apiError(c, http.StatusBadRequest, "errors.invalid_request")
	}
	if err := c.Validate(req); err != nil {
		var verr *middleware.ValidationError
		if errors.As(err, &verr) {
			return apiError(c, http.StatusBadRequest, "errors.validation", map[string]interface{}{
				"fields": strings.Join(verr.Fields(), ", "),
			})
		}
		return apiError(c, http.StatusBadRequest, "errors.invalid_request")
	}
	return nil
}

// detail strips the sentinel prefix from a wrapped error ("invalid x: detail" -> "detail")
func detail(err error, sentinel error) string {
	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, sentinel.Error()+": "); ok {
		return rest
	}
	return msg
}
