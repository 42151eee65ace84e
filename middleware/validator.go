package middleware

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CustomValidator plugs go-playground/validator into echo's c.Validate
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates the validator used by the echo instance
func NewValidator() *CustomValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names so messages match the request body
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return &ValidationError{cause: err}
	}
	return nil
}

// ValidationError carries the failing fields of a request body
type ValidationError struct {
	cause error
}

func (e *ValidationError) Error() string {
	return e.cause.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.cause
}

// Fields returns "namespace:tag" for each failing field, e.g. "config.widthMm:gt"
func (e *ValidationError) Fields() []string {
	var verrs validator.ValidationErrors
	if !errors.As(e.cause, &verrs) {
		return nil
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		ns := fe.Namespace()
		if i := strings.Index(ns, "."); i >= 0 {
			ns = ns[i+1:]
		}
		fields = append(fields, ns+":"+fe.Tag())
	}
	return fields
}
