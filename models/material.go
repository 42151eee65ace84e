package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Material units
const (
	MaterialUnitPiece   = "unidad"
	MaterialUnitBox     = "caja"
	MaterialUnitML      = "ml"
	MaterialUnitGram    = "g"
	MaterialUnitSyringe = "jeringa"
)

// Material is an inventory item consumed during treatments
type Material struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name     string  `gorm:"size:200;not null;uniqueIndex" json:"name"`
	Unit     string  `gorm:"size:20;not null;default:'unidad'" json:"unit"`
	Stock    float64 `gorm:"not null;default:0" json:"stock"`
	MinStock float64 `gorm:"not null;default:0" json:"min_stock"`
}

// BeforeCreate hook to generate UUID
func (m *Material) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.Unit == "" {
		m.Unit = MaterialUnitPiece
	}
	return nil
}

// TableName specifies the table name for Material model
func (Material) TableName() string {
	return "materials"
}

// IsLowStock reports whether the stock reached the reorder threshold
func (m *Material) IsLowStock() bool {
	return m.Stock <= m.MinStock
}

// IsValidMaterialUnit checks if the unit is supported
func IsValidMaterialUnit(unit string) bool {
	switch unit {
	case MaterialUnitPiece, MaterialUnitBox, MaterialUnitML, MaterialUnitGram, MaterialUnitSyringe:
		return true
	}
	return false
}

// MaterialAssignment records material handed out for a patient's treatment
type MaterialAssignment struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	MaterialID string   `gorm:"type:uuid;index;not null" json:"material_id"`
	Material   Material `gorm:"foreignKey:MaterialID" json:"material,omitempty"`

	PatientID      string  `gorm:"size:100;index;not null" json:"patient_id"`
	AppointmentRef *string `gorm:"size:100;index" json:"appointment_ref,omitempty"`
	Quantity       float64 `gorm:"not null" json:"quantity"`
	AssignedBy     string  `gorm:"size:200;not null" json:"assigned_by"`
	Notes          *string `gorm:"type:text" json:"notes,omitempty"`
}

// BeforeCreate hook to generate UUID
func (a *MaterialAssignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for MaterialAssignment model
func (MaterialAssignment) TableName() string {
	return "material_assignments"
}
