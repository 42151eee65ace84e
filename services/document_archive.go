package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"dental_clinic_api/models"
	"dental_clinic_api/services/pdf"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

var ErrDocumentNotFound = errors.New("document not found")

// DocumentArchive keeps copies of rendered PDFs in storage with a database record
type DocumentArchive struct {
	db      *gorm.DB
	storage StorageProvider
	logger  zerolog.Logger
	now     func() time.Time
}

// NewDocumentArchive creates an archive backed by the given storage provider
func NewDocumentArchive(db *gorm.DB, storage StorageProvider, logger zerolog.Logger) *DocumentArchive {
	return &DocumentArchive{
		db:      db,
		storage: storage,
		logger:  logger.With().Str("component", "document_archive").Logger(),
		now:     time.Now,
	}
}

// Save uploads the PDF and records it. The upload is removed again if the
// record cannot be written.
func (a *DocumentArchive) Save(ctx context.Context, pdfBytes []byte, title string, page pdf.PageConfig) (*models.GeneratedDocument, error) {
	key := GenerateDocumentKey(a.now())

	result, err := a.storage.UploadReader(ctx, bytes.NewReader(pdfBytes), key, "application/pdf", int64(len(pdfBytes)))
	if err != nil {
		return nil, fmt.Errorf("failed to store PDF: %w", err)
	}

	doc := &models.GeneratedDocument{
		Title:             strings.TrimSpace(title),
		StorageKey:        result.Key,
		SizeBytes:         int64(len(pdfBytes)),
		WidthMM:           page.WidthMM,
		HeightMM:          page.HeightMM,
		StyleSheetVersion: pdf.StyleSheetVersion,
	}
	if err := a.db.WithContext(ctx).Create(doc).Error; err != nil {
		if delErr := a.storage.Delete(ctx, result.Key); delErr != nil {
			a.logger.Warn().Err(delErr).Str("key", result.Key).Msg("Failed to remove orphaned PDF")
		}
		return nil, fmt.Errorf("failed to record PDF: %w", err)
	}

	a.logger.Info().Str("document_id", doc.ID).Str("key", doc.StorageKey).Int64("bytes", doc.SizeBytes).Msg("PDF archived")
	return doc, nil
}

// List returns archived documents, newest first
func (a *DocumentArchive) List(ctx context.Context, limit, offset int) ([]models.GeneratedDocument, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var total int64
	if err := a.db.WithContext(ctx).Model(&models.GeneratedDocument{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var docs []models.GeneratedDocument
	err := a.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&docs).Error
	return docs, total, err
}

// Open returns a reader over an archived PDF
func (a *DocumentArchive) Open(ctx context.Context, id string) (io.ReadCloser, *models.GeneratedDocument, error) {
	var doc models.GeneratedDocument
	if err := a.db.WithContext(ctx).First(&doc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrDocumentNotFound
		}
		return nil, nil, err
	}

	reader, _, err := a.storage.Get(ctx, doc.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read archived PDF: %w", err)
	}
	return reader, &doc, nil
}
