package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/moneymap/payments/internal/domain"
)

// APIResponse is the uniform envelope for every endpoint.
type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

type APIError struct {
	Code    string `json:"code"`
	Details string `json:"details"`
}

type pagedData struct {
	Items   interface{} `json:"items"`
	Page    int         `json:"page"`
	PerPage int         `json:"per_page"`
	Total   int         `json:"total"`
}

func respond(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	})
}

func respondFailure(c echo.Context, status int, code, details string) error {
	return c.JSON(status, APIResponse{
		Success:   false,
		Message:   details,
		Error:     &APIError{Code: code, Details: details},
		Timestamp: time.Now(),
	})
}

// respondError maps domain errors onto HTTP statuses and machine-readable
// codes.
func respondError(c echo.Context, err error) error {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return respondFailure(c, http.StatusBadRequest, string(validationErr.Code), validationErr.Message)
	}

	switch {
	case errors.Is(err, domain.ErrIllegalTransition):
		return respondFailure(c, http.StatusBadRequest, string(domain.ErrCodeInvalidStatusTransition), err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return respondFailure(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrDuplicate):
		return respondFailure(c, http.StatusConflict, "DUPLICATE_RESOURCE", err.Error())
	case errors.Is(err, domain.ErrVersionConflict):
		return respondFailure(c, http.StatusConflict, "CONCURRENT_MODIFICATION", err.Error())
	default:
		return respondFailure(c, http.StatusInternalServerError, string(domain.ErrCodeProcessingError), "internal error")
	}
}
