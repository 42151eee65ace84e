package handlers

import (
	"context"
	"errors"
	"net/http"

	"dental_clinic_api/services/ai"

	"github.com/labstack/echo/v4"
)

// AIService is the generative AI client used by the handlers
type AIService interface {
	DigitizeAppointments(ctx context.Context, req ai.DigitizeRequest) (*ai.DigitizeResult, error)
	MotivationalNote(ctx context.Context, req ai.NoteRequest) (string, error)
}

// AIHandler serves the AI-assisted endpoints
type AIHandler struct {
	AI AIService
}

// DigitizeAppointments extracts appointments from free text or an agenda photo
func (h *AIHandler) DigitizeAppointments(c echo.Context) error {
	var req ai.DigitizeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.AI.DigitizeAppointments(c.Request().Context(), req)
	if err != nil {
		return aiError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// MotivationalNote writes a short note encouraging a patient
func (h *AIHandler) MotivationalNote(c echo.Context) error {
	var req ai.NoteRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	note, err := h.AI.MotivationalNote(c.Request().Context(), req)
	if err != nil {
		return aiError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"nota": note})
}

func aiError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, ai.ErrInvalidInput):
		return apiError(c, http.StatusBadRequest, "ai.invalid_input", map[string]interface{}{
			"detail": detail(err, ai.ErrInvalidInput),
		})
	case errors.Is(err, ai.ErrNotConfigured):
		return apiError(c, http.StatusServiceUnavailable, "ai.not_configured")
	case errors.Is(err, ai.ErrUpstream), errors.Is(err, ai.ErrEmptyResponse):
		return apiError(c, http.StatusBadGateway, "ai.upstream")
	default:
		return apiError(c, http.StatusInternalServerError, "errors.internal")
	}
}
