package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GeneratedDocument is an archived copy of a rendered PDF
type GeneratedDocument struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Title      string `gorm:"size:255" json:"title"`
	StorageKey string `gorm:"size:500;not null" json:"storage_key"`
	SizeBytes  int64  `gorm:"not null" json:"size_bytes"`

	// Page geometry used for the render
	WidthMM  float64 `gorm:"not null" json:"width_mm"`
	HeightMM float64 `gorm:"not null" json:"height_mm"`

	StyleSheetVersion string `gorm:"size:50" json:"style_sheet_version"`
}

// BeforeCreate hook to generate UUID
func (d *GeneratedDocument) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for GeneratedDocument model
func (GeneratedDocument) TableName() string {
	return "generated_documents"
}

// AllModels lists every model that needs a table
func AllModels() []interface{} {
	return []interface{}{
		&AnnotationComment{},
		&Material{},
		&MaterialAssignment{},
		&GeneratedDocument{},
	}
}
