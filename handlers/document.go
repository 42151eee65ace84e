package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"dental_clinic_api/models"
	"dental_clinic_api/services"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// DocumentStore reads the generated-document archive
type DocumentStore interface {
	List(ctx context.Context, limit, offset int) ([]models.GeneratedDocument, int64, error)
	Open(ctx context.Context, id string) (io.ReadCloser, *models.GeneratedDocument, error)
}

// DocumentHandler serves archived PDFs. A nil Archive answers 404 on every route.
type DocumentHandler struct {
	Archive DocumentStore
	Logger  zerolog.Logger
}

// ListDocuments returns archive records, newest first
func (h *DocumentHandler) ListDocuments(c echo.Context) error {
	if h.Archive == nil {
		return apiError(c, http.StatusNotFound, "documents.archive_disabled")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	docs, total, err := h.Archive.List(c.Request().Context(), limit, offset)
	if err != nil {
		h.Logger.Error().Err(err).Msg("Failed to list documents")
		return apiError(c, http.StatusInternalServerError, "errors.internal")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"documentos": docs,
		"total":      total,
	})
}

// DownloadDocument streams an archived PDF
func (h *DocumentHandler) DownloadDocument(c echo.Context) error {
	if h.Archive == nil {
		return apiError(c, http.StatusNotFound, "documents.archive_disabled")
	}

	reader, doc, err := h.Archive.Open(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrDocumentNotFound) {
			return apiError(c, http.StatusNotFound, "documents.not_found")
		}
		h.Logger.Error().Err(err).Str("document_id", c.Param("id")).Msg("Failed to open document")
		return apiError(c, http.StatusInternalServerError, "errors.internal")
	}
	defer reader.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", doc.ID+".pdf"))
	return c.Stream(http.StatusOK, "application/pdf", reader)
}
