package pdf

import (
	"context"
	"fmt"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
)

// RenderRequest is one HTML fragment plus the page it must be laid out on.
type RenderRequest struct {
	ContentHTML string     `json:"contenido_html"`
	Page        PageConfig `json:"config"`
}

// ServiceOptions configures the PDF service.
type ServiceOptions struct {
	// SanitizeHTML strips scripts and event handlers from fragments before rendering.
	// Leave it off only when callers guarantee pre-sanitized HTML.
	SanitizeHTML bool
	// MaxHTMLBytes rejects oversized fragments. Zero disables the check.
	MaxHTMLBytes int
}

// Service composes validation, templating, rendering and encoding.
type Service struct {
	renderer  Renderer
	sanitizer *bluemonday.Policy
	opts      ServiceOptions
	logger    zerolog.Logger
}

// NewService wires a renderer into the pipeline.
func NewService(renderer Renderer, opts ServiceOptions, logger zerolog.Logger) *Service {
	s := &Service{
		renderer: renderer,
		opts:     opts,
		logger:   logger.With().Str("component", "pdf_service").Logger(),
	}
	if opts.SanitizeHTML {
		s.sanitizer = FragmentPolicy()
	}
	return s
}

// FragmentPolicy keeps the formatting a rich-text editor produces and drops
// anything executable.
func FragmentPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowStyling()
	p.AllowDataURIImages()
	p.AllowStyles(
		"text-align", "color", "background-color", "font-size", "font-family",
		"font-weight", "font-style", "text-decoration", "line-height",
		"margin-left", "padding-left", "width", "height",
	).Globally()
	return p
}

// Render validates the request and returns the raw PDF.
func (s *Service) Render(ctx context.Context, req RenderRequest) ([]byte, error) {
	if err := req.Page.Validate(); err != nil {
		return nil, err
	}
	if s.opts.MaxHTMLBytes > 0 && len(req.ContentHTML) > s.opts.MaxHTMLBytes {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrContentTooLarge, s.opts.MaxHTMLBytes)
	}

	fragment := req.ContentHTML
	if s.sanitizer != nil {
		fragment = s.sanitizer.Sanitize(fragment)
	}

	document, err := BuildDocument(fragment, req.Page)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	pdfBuf, err := s.renderer.Render(ctx, document, req.Page.ContentWidthPx(), req.Page.PageHeightPx())
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Float64("width_mm", req.Page.WidthMM).
		Float64("height_mm", req.Page.HeightMM).
		Int("viewport_width", req.Page.ContentWidthPx()).
		Int("bytes", len(pdfBuf)).
		Dur("elapsed", time.Since(started)).
		Msg("PDF generated")

	return pdfBuf, nil
}

// GeneratePDFFromHTML renders the request and returns the PDF as base64.
func (s *Service) GeneratePDFFromHTML(ctx context.Context, req RenderRequest) (string, error) {
	pdfBuf, err := s.Render(ctx, req)
	if err != nil {
		return "", err
	}
	return EncodeBase64(pdfBuf), nil
}
