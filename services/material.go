package services

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"dental_clinic_api/models"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

var (
	ErrMaterialNotFound  = errors.New("material not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be greater than zero")
	ErrInvalidMaterial   = errors.New("invalid material")
	ErrDuplicateMaterial = errors.New("a material with this name already exists")
)

// AssignMaterialInput holds the data needed to hand out material for a patient
type AssignMaterialInput struct {
	MaterialID     string
	PatientID      string
	AppointmentRef *string
	Quantity       float64
	AssignedBy     string
	Notes          *string
}

// AssignmentFilter narrows a material assignment listing
type AssignmentFilter struct {
	PatientID  string
	MaterialID string
	From       *time.Time
	To         *time.Time
}

// CreateMaterial validates and stores a new inventory item
func CreateMaterial(db *gorm.DB, material *models.Material) error {
	material.Name = strings.TrimSpace(material.Name)
	if material.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidMaterial)
	}
	if material.Unit != "" && !models.IsValidMaterialUnit(material.Unit) {
		return fmt.Errorf("%w: unknown unit %q", ErrInvalidMaterial, material.Unit)
	}
	if material.Stock < 0 || material.MinStock < 0 {
		return fmt.Errorf("%w: stock cannot be negative", ErrInvalidMaterial)
	}

	var count int64
	if err := db.Model(&models.Material{}).Where("LOWER(name) = LOWER(?)", material.Name).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateMaterial
	}

	return db.Create(material).Error
}

// ListMaterials returns inventory items ordered by name
func ListMaterials(db *gorm.DB, lowStockOnly bool) ([]models.Material, error) {
	var materials []models.Material
	query := db.Order("name ASC")
	if lowStockOnly {
		query = query.Where("stock <= min_stock")
	}
	err := query.Find(&materials).Error
	return materials, err
}

// RestockMaterial adds units to a material's stock
func RestockMaterial(db *gorm.DB, id string, quantity float64) (*models.Material, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	result := db.Model(&models.Material{}).
		Where("id = ?", id).
		Update("stock", gorm.Expr("stock + ?", quantity))
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrMaterialNotFound
	}

	var material models.Material
	if err := db.First(&material, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &material, nil
}

// AssignMaterial decrements stock and records the assignment in one transaction
func AssignMaterial(db *gorm.DB, input AssignMaterialInput) (*models.MaterialAssignment, error) {
	if input.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	var assignment *models.MaterialAssignment
	err := db.Transaction(func(tx *gorm.DB) error {
		var material models.Material
		if err := tx.First(&material, "id = ?", input.MaterialID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMaterialNotFound
			}
			return err
		}

		// Conditional decrement so concurrent assignments cannot overdraw the stock
		result := tx.Model(&models.Material{}).
			Where("id = ? AND stock >= ?", material.ID, input.Quantity).
			Update("stock", gorm.Expr("stock - ?", input.Quantity))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: %s has %g %s available", ErrInsufficientStock, material.Name, material.Stock, material.Unit)
		}

		assignment = &models.MaterialAssignment{
			MaterialID:     material.ID,
			PatientID:      input.PatientID,
			AppointmentRef: input.AppointmentRef,
			Quantity:       input.Quantity,
			AssignedBy:     input.AssignedBy,
			Notes:          input.Notes,
		}
		if err := tx.Create(assignment).Error; err != nil {
			return fmt.Errorf("failed to record assignment: %w", err)
		}

		material.Stock -= input.Quantity
		assignment.Material = material
		return nil
	})
	if err != nil {
		return nil, err
	}
	return assignment, nil
}

// ListMaterialAssignments returns assignments matching the filter, newest first
func ListMaterialAssignments(db *gorm.DB, filter AssignmentFilter) ([]models.MaterialAssignment, error) {
	var assignments []models.MaterialAssignment
	query := db.Preload("Material").Order("created_at DESC")

	if filter.PatientID != "" {
		query = query.Where("patient_id = ?", filter.PatientID)
	}
	if filter.MaterialID != "" {
		query = query.Where("material_id = ?", filter.MaterialID)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", *filter.To)
	}

	err := query.Find(&assignments).Error
	return assignments, err
}

// ExportMaterialAssignments writes the assignments to an XLSX workbook
func ExportMaterialAssignments(assignments []models.MaterialAssignment) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Asignaciones"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Fecha", "Paciente", "Cita", "Material", "Cantidad", "Unidad", "Asignado por", "Notas"}
	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for i, a := range assignments {
		row := i + 2
		values := []interface{}{
			a.CreatedAt.Format("2006-01-02 15:04"),
			a.PatientID,
			derefString(a.AppointmentRef),
			a.Material.Name,
			a.Quantity,
			a.Material.Unit,
			a.AssignedBy,
			derefString(a.Notes),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(sheet, cell, v)
		}
	}

	f.SetColWidth(sheet, "A", "A", 18)
	f.SetColWidth(sheet, "D", "D", 30)
	f.SetColWidth(sheet, "H", "H", 40)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
