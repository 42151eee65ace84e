package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"dental_clinic_api/models"
	"dental_clinic_api/services/pdf"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// PDFRenderer is the part of the PDF service the handler needs. Archiving
// needs the raw bytes, plain responses go straight to base64.
type PDFRenderer interface {
	GeneratePDFFromHTML(ctx context.Context, req pdf.RenderRequest) (string, error)
	Render(ctx context.Context, req pdf.RenderRequest) ([]byte, error)
}

// DocumentSaver archives rendered PDFs
type DocumentSaver interface {
	Save(ctx context.Context, pdfBytes []byte, title string, page pdf.PageConfig) (*models.GeneratedDocument, error)
}

// PDFHandler serves the HTML to PDF endpoint
type PDFHandler struct {
	Renderer PDFRenderer
	// Archive is optional; nil disables archiving
	Archive DocumentSaver
	Logger  zerolog.Logger
}

type generatePDFRequest struct {
	ContentHTML string         `json:"contenido_html"`
	Config      pdf.PageConfig `json:"config"`
	Title       string         `json:"titulo" validate:"max=255"`
}

type generatePDFResponse struct {
	PDFBase64  string `json:"pdf_base64"`
	DocumentID string `json:"documento_id,omitempty"`
}

// GeneratePDF renders an HTML fragment on the requested page and returns it as base64
func (h *PDFHandler) GeneratePDF(c echo.Context) error {
	var req generatePDFRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	renderReq := pdf.RenderRequest{ContentHTML: req.ContentHTML, Page: req.Config}
	if h.Archive == nil {
		encoded, err := h.Renderer.GeneratePDFFromHTML(ctx, renderReq)
		if err != nil {
			return h.renderError(c, err)
		}
		return c.JSON(http.StatusOK, generatePDFResponse{PDFBase64: encoded})
	}

	pdfBytes, err := h.Renderer.Render(ctx, renderReq)
	if err != nil {
		return h.renderError(c, err)
	}

	resp := generatePDFResponse{PDFBase64: pdf.EncodeBase64(pdfBytes)}
	// Archiving must not fail a successful render, and must not be cut
	// short by the client closing the connection
	archiveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	doc, err := h.Archive.Save(archiveCtx, pdfBytes, req.Title, req.Config)
	cancel()
	if err != nil {
		h.Logger.Warn().Err(err).Msg("Failed to archive generated PDF")
	} else {
		resp.DocumentID = doc.ID
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *PDFHandler) renderError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, pdf.ErrInvalidPageConfig):
		return apiError(c, http.StatusBadRequest, "pdf.invalid_page_config", map[string]interface{}{
			"detail": detail(err, pdf.ErrInvalidPageConfig),
		})
	case errors.Is(err, pdf.ErrContentTooLarge):
		return apiError(c, http.StatusRequestEntityTooLarge, "pdf.content_too_large")
	case errors.Is(err, pdf.ErrContentLoadTimeout):
		return apiError(c, http.StatusGatewayTimeout, "pdf.content_timeout")
	default:
		h.Logger.Error().Err(err).Msg("PDF generation failed")
		return apiError(c, http.StatusInternalServerError, "pdf.render_failed")
	}
}
