package response

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	apperrors "handcraft/pkg/errors"
)

// Envelope is the standard API response body. The conversation endpoints
// keep their own wire shapes for client compatibility and bypass it.
type Envelope struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorBody  `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type PaginatedData struct {
	Items  interface{} `json:"items"`
	Total  int         `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

func Success(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, Envelope{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
	})
}

func Created(c echo.Context, data interface{}) error {
	return Success(c, http.StatusCreated, data)
}

func Paginated(c echo.Context, items interface{}, total, limit, offset int) error {
	return Success(c, http.StatusOK, PaginatedData{
		Items:  items,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// Error maps any error to the envelope. AppErrors keep their code and
// status, everything else becomes a 500.
func Error(c echo.Context, err error) error {
	appErr, ok := err.(*apperrors.AppError)
	if !ok {
		appErr = apperrors.Internal("An unexpected error occurred", err)
	}

	return c.JSON(appErr.Status, Envelope{
		Success: false,
		Error: &ErrorBody{
			Code:    appErr.Code,
			Message: appErr.Message,
		},
		Timestamp: time.Now(),
	})
}

// ValidationError reports field-level validation failures.
func ValidationError(c echo.Context, details interface{}) error {
	return c.JSON(http.StatusBadRequest, Envelope{
		Success: false,
		Error: &ErrorBody{
			Code:    "VALIDATION_ERROR",
			Message: "Request validation failed",
			Details: details,
		},
		Timestamp: time.Now(),
	})
}
