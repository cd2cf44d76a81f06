package common

import (
	"errors"

	"github.com/labstack/echo/v4"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error struct {
		Code      string            `json:"code"`
		Message   string            `json:"message"`
		Details   map[string]string `json:"details,omitempty"`
		Retryable bool              `json:"retryable,omitempty"`
	} `json:"error"`
}

// CreateErrorResponse creates a standardized error response
func CreateErrorResponse(code string, message string, details map[string]string) *ErrorResponse {
	var resp ErrorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	resp.Error.Details = details
	return &resp
}

// SendError writes err using the error envelope. Authorization failures and
// internal errors are reduced to generic messages.
func SendError(c echo.Context, err error) error {
	kind := KindOf(err)
	status := HTTPStatus(kind)

	var e *Error
	message := "operation could not be completed"
	var details map[string]string
	if errors.As(err, &e) {
		message = e.Msg
		details = e.Details
	}

	switch kind {
	case KindInsufficientRole:
		message = "Insufficient permissions"
		details = nil
	case KindInternal:
		message = "operation could not be completed"
		details = nil
	case KindUnavailable:
		c.Response().Header().Set("Retry-After", "1")
	}
	if message == "" {
		message = string(kind)
	}

	resp := CreateErrorResponse(string(kind), message, details)
	resp.Error.Retryable = kind == KindUnavailable
	return c.JSON(status, resp)
}

// NewHTTPErrorHandler renders *Error values returned by middleware and
// handlers with SendError and leaves everything else to echo's default.
func NewHTTPErrorHandler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		var appErr *Error
		if errors.As(err, &appErr) {
			if sendErr := SendError(c, appErr); sendErr != nil {
				e.Logger.Error(sendErr)
			}
			return
		}
		e.DefaultHTTPErrorHandler(err, c)
	}
}
