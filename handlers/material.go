package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"dental_clinic_api/db"
	"dental_clinic_api/models"
	"dental_clinic_api/services"

	"github.com/labstack/echo/v4"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type createMaterialRequest struct {
	Name     string  `json:"nombre" validate:"required,max=200"`
	Unit     string  `json:"unidad" validate:"omitempty,oneof=unidad caja ml g jeringa"`
	Stock    float64 `json:"stock" validate:"gte=0"`
	MinStock float64 `json:"stock_minimo" validate:"gte=0"`
}

type assignMaterialRequest struct {
	MaterialID     string  `json:"material_id" validate:"required"`
	PatientID      string  `json:"paciente_id" validate:"required,max=100"`
	AppointmentRef *string `json:"cita_id" validate:"omitempty,max=100"`
	Quantity       float64 `json:"cantidad" validate:"gt=0"`
	AssignedBy     string  `json:"asignado_por" validate:"required,max=200"`
	Notes          *string `json:"notas" validate:"omitempty,max=2000"`
}

// CreateMaterialHandler adds an item to the inventory
func CreateMaterialHandler(c echo.Context) error {
	var req createMaterialRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	material := &models.Material{
		Name:     req.Name,
		Unit:     req.Unit,
		Stock:    req.Stock,
		MinStock: req.MinStock,
	}
	if err := services.CreateMaterial(db.DB, material); err != nil {
		return materialError(c, err)
	}
	return c.JSON(http.StatusCreated, material)
}

// GetMaterialsHandler lists the inventory; ?bajo_stock=true keeps only items to reorder
func GetMaterialsHandler(c echo.Context) error {
	lowStock := c.QueryParam("bajo_stock") == "true"

	materials, err := services.ListMaterials(db.DB, lowStock)
	if err != nil {
		return apiError(c, http.StatusInternalServerError, "errors.internal")
	}

	type materialResponse struct {
		models.Material
		LowStock bool `json:"bajo_stock"`
	}
	resp := make([]materialResponse, 0, len(materials))
	for _, m := range materials {
		resp = append(resp, materialResponse{Material: m, LowStock: m.IsLowStock()})
	}
	return c.JSON(http.StatusOK, resp)
}

type restockMaterialRequest struct {
	Quantity float64 `json:"cantidad" validate:"gt=0"`
}

// RestockMaterialHandler adds received units to a material
func RestockMaterialHandler(c echo.Context) error {
	var req restockMaterialRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	material, err := services.RestockMaterial(db.DB, c.Param("id"), req.Quantity)
	if err != nil {
		return materialError(c, err)
	}
	return c.JSON(http.StatusOK, material)
}

// AssignMaterialHandler hands out material for a patient and decrements the stock
func AssignMaterialHandler(c echo.Context) error {
	var req assignMaterialRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	assignment, err := services.AssignMaterial(db.DB, services.AssignMaterialInput{
		MaterialID:     req.MaterialID,
		PatientID:      req.PatientID,
		AppointmentRef: req.AppointmentRef,
		Quantity:       req.Quantity,
		AssignedBy:     req.AssignedBy,
		Notes:          req.Notes,
	})
	if err != nil {
		return materialError(c, err)
	}
	return c.JSON(http.StatusCreated, assignment)
}

// GetMaterialAssignmentsHandler lists assignments filtered by patient, material and date range
func GetMaterialAssignmentsHandler(c echo.Context) error {
	filter, err := assignmentFilterFromQuery(c)
	if err != nil {
		return err
	}

	assignments, err := services.ListMaterialAssignments(db.DB, filter)
	if err != nil {
		return apiError(c, http.StatusInternalServerError, "errors.internal")
	}
	return c.JSON(http.StatusOK, assignments)
}

// ExportMaterialAssignmentsHandler downloads the filtered assignments as an XLSX workbook
func ExportMaterialAssignmentsHandler(c echo.Context) error {
	filter, err := assignmentFilterFromQuery(c)
	if err != nil {
		return err
	}

	assignments, err := services.ListMaterialAssignments(db.DB, filter)
	if err != nil {
		return apiError(c, http.StatusInternalServerError, "errors.internal")
	}

	buf, err := services.ExportMaterialAssignments(assignments)
	if err != nil {
		return apiError(c, http.StatusInternalServerError, "errors.internal")
	}

	filename := fmt.Sprintf("asignaciones_%s.xlsx", time.Now().Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

// assignmentFilterFromQuery reads paciente_id, material_id, desde and hasta (YYYY-MM-DD, inclusive)
func assignmentFilterFromQuery(c echo.Context) (services.AssignmentFilter, error) {
	filter := services.AssignmentFilter{
		PatientID:  c.QueryParam("paciente_id"),
		MaterialID: c.QueryParam("material_id"),
	}

	from, to, err := services.ParseDateRange(c.QueryParam("desde"), c.QueryParam("hasta"))
	if err != nil {
		return filter, apiError(c, http.StatusBadRequest, "materials.invalid_date")
	}
	filter.From, filter.To = from, to
	return filter, nil
}

func materialError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, services.ErrMaterialNotFound):
		return apiError(c, http.StatusNotFound, "materials.not_found")
	case errors.Is(err, services.ErrInsufficientStock):
		return apiError(c, http.StatusConflict, "materials.insufficient_stock")
	case errors.Is(err, services.ErrInvalidQuantity):
		return apiError(c, http.StatusBadRequest, "materials.invalid_quantity")
	case errors.Is(err, services.ErrDuplicateMaterial):
		return apiError(c, http.StatusConflict, "materials.duplicate")
	case errors.Is(err, services.ErrInvalidMaterial):
		return apiError(c, http.StatusBadRequest, "materials.invalid", map[string]interface{}{
			"detail": detail(err, services.ErrInvalidMaterial),
		})
	default:
		return apiError(c, http.StatusInternalServerError, "errors.internal")
	}
}
