package handlers

import (
	"net/http"

	"dental_clinic_api/db"

	"github.com/labstack/echo/v4"
)

// HealthHandler reports liveness and database reachability
func HealthHandler(c echo.Context) error {
	status := "ok"
	code := http.StatusOK

	if db.DB == nil {
		status, code = "degraded", http.StatusServiceUnavailable
	} else if sqlDB, err := db.DB.DB(); err != nil || sqlDB.PingContext(c.Request().Context()) != nil {
		status, code = "degraded", http.StatusServiceUnavailable
	}

	return c.JSON(code, map[string]string{"status": status})
}
