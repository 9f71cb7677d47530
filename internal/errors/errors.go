package errors

import (
	"net/http"

	"github.com/go-playground/validator/v10"
)

// APIError represents an application error with its HTTP status.
type APIError struct {
	Status   int    `json:"-"`
	Message  string `json:"error"`
	Details  any    `json:"details,omitempty"`
	Internal error  `json:"-"`
}

// Error returns the error message
func (e *APIError) Error() string {
	if e.Internal != nil {
		return e.Message + ": " + e.Internal.Error()
	}
	return e.Message
}

// Unwrap returns the original error
func (e *APIError) Unwrap() error {
	return e.Internal
}

// WithDetails returns a copy carrying structured detail for the client.
func (e *APIError) WithDetails(details any) *APIError {
	return &APIError{
		Status:   e.Status,
		Message:  e.Message,
		Details:  details,
		Internal: e.Internal,
	}
}

func New(status int, message string, err error) *APIError {
	return &APIError{Status: status, Message: message, Internal: err}
}

func BadRequest(message string, err error) *APIError {
	return New(http.StatusBadRequest, message, err)
}

func Unauthorized(message string, err error) *APIError {
	return New(http.StatusUnauthorized, message, err)
}

func Forbidden(message string, err error) *APIError {
	return New(http.StatusForbidden, message, err)
}

func NotFound(message string, err error) *APIError {
	return New(http.StatusNotFound, message, err)
}

func Conflict(message string, err error) *APIError {
	return New(http.StatusConflict, message, err)
}

func UnprocessableEntity(message string, err error) *APIError {
	return New(http.StatusUnprocessableEntity, message, err)
}

func Internal(err error) *APIError {
	return New(http.StatusInternalServerError, "Internal server error", err)
}

// NewValidationError wraps a binding failure with field-level detail.
func NewValidationError(err error) *APIError {
	if verrs, ok := err.(validator.ValidationErrors); ok {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		return BadRequest("Invalid input", err).WithDetails(fields)
	}
	return BadRequest("Invalid input", err)
}
