package apperror

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Error represents an application error with HTTP status and error code
type Error struct {
	HTTPStatus int
	Code       string
	Message    string
	Internal   error
	Details    map[string]any
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the internal error
func (e *Error) Unwrap() error {
	return e.Internal
}

// Is reports whether target is an *Error carrying the same code, so callers
// can match against the sentinels below with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// ToEchoError converts the app error to an echo.HTTPError for proper handling
func (e *Error) ToEchoError() *echo.HTTPError {
	return echo.NewHTTPError(e.HTTPStatus, map[string]any{
		"error": e.body(),
	})
}

func (e *Error) body() map[string]any {
	errBody := map[string]any{
		"code":    e.Code,
		"message": e.Message,
	}
	if len(e.Details) > 0 {
		errBody["details"] = e.Details
	}
	return errBody
}

// WithInternal returns a copy of the error with an internal error attached
func (e *Error) WithInternal(err error) *Error {
	return &Error{
		HTTPStatus: e.HTTPStatus,
		Code:       e.Code,
		Message:    e.Message,
		Internal:   err,
		Details:    e.Details,
	}
}

// WithMessage returns a copy of the error with a custom message
func (e *Error) WithMessage(message string) *Error {
	return &Error{
		HTTPStatus: e.HTTPStatus,
		Code:       e.Code,
		Message:    message,
		Internal:   e.Internal,
		Details:    e.Details,
	}
}

// WithDetails returns a copy of the error with details attached
func (e *Error) WithDetails(details map[string]any) *Error {
	return &Error{
		HTTPStatus: e.HTTPStatus,
		Code:       e.Code,
		Message:    e.Message,
		Internal:   e.Internal,
		Details:    details,
	}
}

// WithStatus returns a copy of the error answering with a different HTTP status
func (e *Error) WithStatus(status int) *Error {
	return &Error{
		HTTPStatus: status,
		Code:       e.Code,
		Message:    e.Message,
		Internal:   e.Internal,
		Details:    e.Details,
	}
}

// New creates a new application error
func New(status int, code, message string) *Error {
	return &Error{
		HTTPStatus: status,
		Code:       code,
		Message:    message,
	}
}

// Common error definitions
var (
	// Input errors
	ErrBadRequest   = New(http.StatusBadRequest, "bad_request", "Invalid request")
	ErrInvalidInput = New(http.StatusBadRequest, "invalid_input", "Invalid input")
	ErrValidation   = New(http.StatusBadRequest, "validation_error", "Validation failed")

	// Resource errors
	ErrNotFound      = New(http.StatusNotFound, "not_found", "Resource not found")
	ErrAlreadyExists = New(http.StatusBadRequest, "already_exists", "Resource already exists")
	ErrUpdateFailed  = New(http.StatusBadRequest, "update_failed", "Update matched no node")

	ErrRateLimited = New(http.StatusTooManyRequests, "rate_limited", "Too many requests")

	// Server errors
	ErrInternal = New(http.StatusInternalServerError, "internal_error", "An internal error occurred")
	ErrStore    = New(http.StatusInternalServerError, "store_error", "Graph store operation failed")
)

// ToHTTPError converts an app error to an HTTP-friendly format
func ToHTTPError(err error) (int, map[string]any) {
	if appErr, ok := err.(*Error); ok {
		return appErr.HTTPStatus, map[string]any{
			"error": appErr.body(),
		}
	}

	// Default to internal server error for unknown errors
	return http.StatusInternalServerError, map[string]any{
		"error": map[string]any{
			"code":    "internal_error",
			"message": "An internal error occurred",
		},
	}
}

// NewBadRequest creates a bad request error with a custom message
func NewBadRequest(message string) *Error {
	return ErrBadRequest.WithMessage(message)
}

// NewInvalidInput creates an invalid input error with a custom message
func NewInvalidInput(message string) *Error {
	return ErrInvalidInput.WithMessage(message)
}

// NewValidation creates a validation error with a custom message
func NewValidation(message string) *Error {
	return ErrValidation.WithMessage(message)
}

// NewNotFound creates a not found error for a resource type and ID
func NewNotFound(resourceType, id string) *Error {
	return ErrNotFound.WithMessage(fmt.Sprintf("%s '%s' not found", resourceType, id))
}

// NewAlreadyExists creates an already exists error for a resource type and ID
func NewAlreadyExists(resourceType, id string) *Error {
	return ErrAlreadyExists.WithMessage(fmt.Sprintf("%s '%s' already exists", resourceType, id))
}

// NewStore wraps a graph store failure
func NewStore(message string, err error) *Error {
	return ErrStore.WithMessage(message).WithInternal(err)
}
