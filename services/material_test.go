package services

import (
	"sync"
	"testing"

	"dental_clinic_api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

func createTestMaterial(t *testing.T, db *gorm.DB, name string, stock, minStock float64) *models.Material {
	t.Helper()
	material := &models.Material{Name: name, Unit: models.MaterialUnitPiece, Stock: stock, MinStock: minStock}
	require.NoError(t, CreateMaterial(db, material))
	return material
}

func TestCreateMaterial(t *testing.T) {
	db := setupTestDB(t)

	material := &models.Material{Name: "  Resina A2 ", Stock: 10, MinStock: 2}
	require.NoError(t, CreateMaterial(db, material))
	assert.Equal(t, "Resina A2", material.Name)
	assert.Equal(t, models.MaterialUnitPiece, material.Unit)

	t.Run("duplicate name is case insensitive", func(t *testing.T) {
		err := CreateMaterial(db, &models.Material{Name: "resina a2"})
		assert.ErrorIs(t, err, ErrDuplicateMaterial)
	})

	t.Run("invalid input", func(t *testing.T) {
		assert.ErrorIs(t, CreateMaterial(db, &models.Material{Name: " "}), ErrInvalidMaterial)
		assert.ErrorIs(t, CreateMaterial(db, &models.Material{Name: "Guantes", Unit: "palet"}), ErrInvalidMaterial)
		assert.ErrorIs(t, CreateMaterial(db, &models.Material{Name: "Guantes", Stock: -1}), ErrInvalidMaterial)
	})
}

func TestListMaterials(t *testing.T) {
	db := setupTestDB(t)

	createTestMaterial(t, db, "Guantes", 100, 20)
	createTestMaterial(t, db, "Anestesia", 3, 5)
	createTestMaterial(t, db, "Composite", 5, 5)

	all, err := ListMaterials(db, false)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Anestesia", all[0].Name)

	low, err := ListMaterials(db, true)
	require.NoError(t, err)
	require.Len(t, low, 2)
	for _, m := range low {
		assert.True(t, m.IsLowStock())
	}
}

func TestRestockMaterial(t *testing.T) {
	db := setupTestDB(t)
	material := createTestMaterial(t, db, "Guantes", 10, 0)

	updated, err := RestockMaterial(db, material.ID, 15)
	require.NoError(t, err)
	assert.Equal(t, 25.0, updated.Stock)

	_, err = RestockMaterial(db, material.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = RestockMaterial(db, "missing", 1)
	assert.ErrorIs(t, err, ErrMaterialNotFound)
}

func TestAssignMaterial(t *testing.T) {
	db := setupTestDB(t)
	material := createTestMaterial(t, db, "Anestesia", 5, 1)

	assignment, err := AssignMaterial(db, AssignMaterialInput{
		MaterialID:     material.ID,
		PatientID:      "pac-1",
		AppointmentRef: stringPtr("cita-9"),
		Quantity:       2,
		AssignedBy:     "Dr. Gómez",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, assignment.ID)
	assert.Equal(t, 3.0, assignment.Material.Stock)

	var stored models.Material
	require.NoError(t, db.First(&stored, "id = ?", material.ID).Error)
	assert.Equal(t, 3.0, stored.Stock)

	t.Run("insufficient stock leaves stock untouched", func(t *testing.T) {
		_, err := AssignMaterial(db, AssignMaterialInput{MaterialID: material.ID, PatientID: "pac-2", Quantity: 4, AssignedBy: "x"})
		assert.ErrorIs(t, err, ErrInsufficientStock)

		require.NoError(t, db.First(&stored, "id = ?", material.ID).Error)
		assert.Equal(t, 3.0, stored.Stock)

		var count int64
		db.Model(&models.MaterialAssignment{}).Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("invalid quantity", func(t *testing.T) {
		_, err := AssignMaterial(db, AssignMaterialInput{MaterialID: material.ID, PatientID: "pac-2", Quantity: 0})
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})

	t.Run("unknown material", func(t *testing.T) {
		_, err := AssignMaterial(db, AssignMaterialInput{MaterialID: "missing", PatientID: "pac-2", Quantity: 1})
		assert.ErrorIs(t, err, ErrMaterialNotFound)
	})
}

func TestAssignMaterialNeverOverdraws(t *testing.T) {
	db := setupTestDB(t)
	material := createTestMaterial(t, db, "Fresas", 5, 0)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := AssignMaterial(db, AssignMaterialInput{MaterialID: material.ID, PatientID: "pac", Quantity: 1, AssignedBy: "x"}); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	var stored models.Material
	require.NoError(t, db.First(&stored, "id = ?", material.ID).Error)
	assert.GreaterOrEqual(t, stored.Stock, 0.0)
	assert.Equal(t, 5.0-float64(succeeded), stored.Stock)
}

func TestListMaterialAssignmentsFilters(t *testing.T) {
	db := setupTestDB(t)
	guantes := createTestMaterial(t, db, "Guantes", 100, 0)
	resina := createTestMaterial(t, db, "Resina", 100, 0)

	_, err := AssignMaterial(db, AssignMaterialInput{MaterialID: guantes.ID, PatientID: "pac-1", Quantity: 2, AssignedBy: "a"})
	require.NoError(t, err)
	_, err = AssignMaterial(db, AssignMaterialInput{MaterialID: resina.ID, PatientID: "pac-1", Quantity: 1, AssignedBy: "a"})
	require.NoError(t, err)
	_, err = AssignMaterial(db, AssignMaterialInput{MaterialID: resina.ID, PatientID: "pac-2", Quantity: 1, AssignedBy: "b"})
	require.NoError(t, err)

	byPatient, err := ListMaterialAssignments(db, AssignmentFilter{PatientID: "pac-1"})
	require.NoError(t, err)
	assert.Len(t, byPatient, 2)

	byMaterial, err := ListMaterialAssignments(db, AssignmentFilter{MaterialID: resina.ID})
	require.NoError(t, err)
	require.Len(t, byMaterial, 2)
	assert.Equal(t, "Resina", byMaterial[0].Material.Name)
}

func TestExportMaterialAssignments(t *testing.T) {
	db := setupTestDB(t)
	material := createTestMaterial(t, db, "Anestesia", 10, 0)

	_, err := AssignMaterial(db, AssignMaterialInput{
		MaterialID: material.ID,
		PatientID:  "pac-1",
		Quantity:   2,
		AssignedBy: "Dra. Ruiz",
		Notes:      stringPtr("Bloqueo mandibular"),
	})
	require.NoError(t, err)

	assignments, err := ListMaterialAssignments(db, AssignmentFilter{})
	require.NoError(t, err)

	buf, err := ExportMaterialAssignments(assignments)
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Asignaciones")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Fecha", rows[0][0])
	assert.Equal(t, "pac-1", rows[1][1])
	assert.Equal(t, "Anestesia", rows[1][3])
	assert.Equal(t, "2", rows[1][4])
	assert.Equal(t, "Dra. Ruiz", rows[1][6])
	assert.Equal(t, "Bloqueo mandibular", rows[1][7])
}
