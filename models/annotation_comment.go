package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AnnotationComment is a note pinned to a point of a clinical image (x-ray, intraoral photo)
type AnnotationComment struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Image the comment belongs to
	ImageID   string  `gorm:"size:100;index;not null" json:"image_id"`
	PatientID *string `gorm:"size:100;index" json:"patient_id,omitempty"`

	// Anchor point, normalized to the image size (0..1)
	X float64 `gorm:"not null" json:"x"`
	Y float64 `gorm:"not null" json:"y"`

	Text   string `gorm:"type:text;not null" json:"text"`
	Author string `gorm:"size:200;not null" json:"author"`
}

// BeforeCreate hook to generate UUID
func (a *AnnotationComment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for AnnotationComment model
func (AnnotationComment) TableName() string {
	return "annotation_comments"
}
