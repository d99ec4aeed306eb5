package adminapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/shyamtrading/siteserver/internal/storage"
	"github.com/shyamtrading/siteserver/internal/store"
)

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, apiResponse{Success: true, Data: data})
}

func fail(c echo.Context, status int, code, message string, details interface{}) error {
	return c.JSON(status, apiResponse{Success: false, Error: &apiError{
		Code:    code,
		Message: message,
		Details: details,
	}})
}

// failStore maps store-layer errors onto the API error vocabulary.
func failStore(c echo.Context, err error) error {
	switch {
	case errors.Is(err, store.ErrValidation):
		return fail(c, http.StatusBadRequest, "VALIDATION_FAILED", err.Error(), nil)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Record not found", nil)
	case errors.Is(err, store.ErrNotConfigured), errors.Is(err, storage.ErrNotConfigured):
		return fail(c, http.StatusServiceUnavailable, "NOT_CONFIGURED", err.Error(), nil)
	case errors.Is(err, storage.ErrFileTooLarge), errors.Is(err, storage.ErrInvalidFileType):
		return fail(c, http.StatusBadRequest, "UPLOAD_REJECTED", err.Error(), nil)
	case errors.Is(err, store.ErrNothingToMigrate):
		return fail(c, http.StatusConflict, "MIGRATION_BLOCKED", err.Error(), nil)
	default:
		return fail(c, http.StatusInternalServerError, "STORAGE_ERROR", err.Error(), nil)
	}
}
