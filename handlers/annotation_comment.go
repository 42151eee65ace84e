package handlers

import (
	"errors"
	"net/http"

	"dental_clinic_api/db"
	"dental_clinic_api/services"

	"github.com/labstack/echo/v4"
)

type annotationCommentRequest struct {
	PatientID *string `json:"paciente_id" validate:"omitempty,max=100"`
	X         float64 `json:"x" validate:"gte=0,lte=1"`
	Y         float64 `json:"y" validate:"gte=0,lte=1"`
	Text      string  `json:"texto" validate:"required"`
	Author    string  `json:"autor" validate:"max=200"`
}

type updateAnnotationCommentRequest struct {
	Text string `json:"texto" validate:"required"`
}

// CreateAnnotationCommentHandler pins a comment on a clinical image
func CreateAnnotationCommentHandler(c echo.Context) error {
	imageID := c.Param("imageId")
	if imageID == "" || len(imageID) > 100 {
		return apiError(c, http.StatusBadRequest, "errors.invalid_request")
	}

	var req annotationCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	comment, err := services.CreateAnnotationComment(db.DB, services.AnnotationCommentInput{
		ImageID:   imageID,
		PatientID: req.PatientID,
		X:         req.X,
		Y:         req.Y,
		Text:      req.Text,
		Author:    req.Author,
	})
	if err != nil {
		return commentError(c, err)
	}

	return c.JSON(http.StatusCreated, comment)
}

// GetAnnotationCommentsHandler lists the comments of an image
func GetAnnotationCommentsHandler(c echo.Context) error {
	comments, err := services.ListAnnotationComments(db.DB, c.Param("imageId"))
	if err != nil {
		return apiError(c, http.StatusInternalServerError, "errors.internal")
	}
	return c.JSON(http.StatusOK, comments)
}

// UpdateAnnotationCommentHandler edits the text of a comment
func UpdateAnnotationCommentHandler(c echo.Context) error {
	var req updateAnnotationCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	comment, err := services.UpdateAnnotationComment(db.DB, c.Param("id"), req.Text)
	if err != nil {
		return commentError(c, err)
	}
	return c.JSON(http.StatusOK, comment)
}

// DeleteAnnotationCommentHandler removes a comment
func DeleteAnnotationCommentHandler(c echo.Context) error {
	if err := services.DeleteAnnotationComment(db.DB, c.Param("id")); err != nil {
		return commentError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func commentError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, services.ErrCommentNotFound):
		return apiError(c, http.StatusNotFound, "comments.not_found")
	case errors.Is(err, services.ErrEmptyComment):
		return apiError(c, http.StatusBadRequest, "comments.empty")
	case errors.Is(err, services.ErrCommentTooLong):
		return apiError(c, http.StatusBadRequest, "comments.too_long", map[string]interface{}{"max": services.MaxCommentLength})
	case errors.Is(err, services.ErrInvalidAnchor):
		return apiError(c, http.StatusBadRequest, "comments.invalid_anchor")
	default:
		return apiError(c, http.StatusInternalServerError, "errors.internal")
	}
}
