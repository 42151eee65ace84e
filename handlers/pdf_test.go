package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"dental_clinic_api/models"
	"dental_clinic_api/services/pdf"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPDFRenderer struct {
	mock.Mock
}

func (m *mockPDFRenderer) GeneratePDFFromHTML(ctx context.Context, req pdf.RenderRequest) (string, error) {
	args := m.Called(req)
	return args.String(0), args.Error(1)
}

func (m *mockPDFRenderer) Render(ctx context.Context, req pdf.RenderRequest) ([]byte, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type mockDocumentSaver struct {
	mock.Mock
}

func (m *mockDocumentSaver) Save(ctx context.Context, pdfBytes []byte, title string, page pdf.PageConfig) (*models.GeneratedDocument, error) {
	args := m.Called(pdfBytes, title, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GeneratedDocument), args.Error(1)
}

const a4Body = `{"contenido_html":"<p>Hola</p>","config":{"widthMm":210,"heightMm":297,"margenes":{"top":20,"right":20,"bottom":20,"left":20}},"titulo":"Consentimiento"}`

var a4Config = pdf.PageConfig{WidthMM: 210, HeightMM: 297, Margins: pdf.Margins{Top: 20, Right: 20, Bottom: 20, Left: 20}}

func TestGeneratePDF(t *testing.T) {
	renderer := new(mockPDFRenderer)
	renderer.On("GeneratePDFFromHTML", pdf.RenderRequest{ContentHTML: "<p>Hola</p>", Page: a4Config}).
		Return(base64.StdEncoding.EncodeToString([]byte("%PDF-1.7 fake")), nil)

	h := &PDFHandler{Renderer: renderer, Logger: zerolog.Nop()}
	_, c, rec := setupEcho(http.MethodPost, "/api/pdf/generar", strings.NewReader(a4Body))

	require.NoError(t, h.GeneratePDF(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	decoded, err := base64.StdEncoding.DecodeString(resp["pdf_base64"])
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 fake", string(decoded))
	_, hasDocID := resp["documento_id"]
	assert.False(t, hasDocID)
	renderer.AssertExpectations(t)
	renderer.AssertNotCalled(t, "Render", mock.Anything)
}

func TestGeneratePDFArchives(t *testing.T) {
	renderer := new(mockPDFRenderer)
	renderer.On("Render", mock.Anything).Return([]byte("%PDF"), nil)
	archive := new(mockDocumentSaver)
	archive.On("Save", []byte("%PDF"), "Consentimiento", a4Config).
		Return(&models.GeneratedDocument{ID: "doc-1"}, nil)

	h := &PDFHandler{Renderer: renderer, Archive: archive, Logger: zerolog.Nop()}
	_, c, rec := setupEcho(http.MethodPost, "/api/pdf/generar", strings.NewReader(a4Body))

	require.NoError(t, h.GeneratePDF(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"documento_id":"doc-1"`)
	assert.Contains(t, rec.Body.String(), pdf.EncodeBase64([]byte("%PDF")))
	archive.AssertExpectations(t)
	renderer.AssertNotCalled(t, "GeneratePDFFromHTML", mock.Anything)
}

func TestGeneratePDFArchiveFailureStillSucceeds(t *testing.T) {
	renderer := new(mockPDFRenderer)
	renderer.On("Render", mock.Anything).Return([]byte("%PDF"), nil)
	archive := new(mockDocumentSaver)
	archive.On("Save", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("bucket down"))

	h := &PDFHandler{Renderer: renderer, Archive: archive, Logger: zerolog.Nop()}
	_, c, rec := setupEcho(http.MethodPost, "/api/pdf/generar", strings.NewReader(a4Body))

	require.NoError(t, h.GeneratePDF(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pdf_base64")
}

func TestGeneratePDFErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"InvalidPage", fmt.Errorf("%w: width and height must be positive", pdf.ErrInvalidPageConfig), http.StatusBadRequest},
		{"TooLarge", fmt.Errorf("%w: limit is 10 bytes", pdf.ErrContentTooLarge), http.StatusRequestEntityTooLarge},
		{"LoadTimeout", fmt.Errorf("%w after 30s", pdf.ErrContentLoadTimeout), http.StatusGatewayTimeout},
		{"RenderFailed", fmt.Errorf("%w: launch: exec not found", pdf.ErrRenderFailed), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			renderer := new(mockPDFRenderer)
			renderer.On("GeneratePDFFromHTML", mock.Anything).Return("", tt.err)

			h := &PDFHandler{Renderer: renderer, Logger: zerolog.Nop()}
			_, c, _ := setupEcho(http.MethodPost, "/api/pdf/generar", strings.NewReader(a4Body))

			err := h.GeneratePDF(c)
			var he *echo.HTTPError
			require.ErrorAs(t, err, &he)
			assert.Equal(t, tt.wantStatus, he.Code)
		})
	}
}

func TestGeneratePDFInvalidPageDetail(t *testing.T) {
	renderer := new(mockPDFRenderer)
	renderer.On("GeneratePDFFromHTML", mock.Anything).
		Return("", fmt.Errorf("%w: margins must not be negative", pdf.ErrInvalidPageConfig))

	h := &PDFHandler{Renderer: renderer, Logger: zerolog.Nop()}
	_, c, _ := setupEcho(http.MethodPost, "/api/pdf/generar", strings.NewReader(a4Body))

	err := h.GeneratePDF(c)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, "La configuración de página no es válida: margins must not be negative", he.Message)
}

func TestGeneratePDFMalformedBody(t *testing.T) {
	h := &PDFHandler{Renderer: new(mockPDFRenderer), Logger: zerolog.Nop()}
	_, c, _ := setupEcho(http.MethodPost, "/api/pdf/generar", strings.NewReader(`{"config":`))

	err := h.GeneratePDF(c)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}
