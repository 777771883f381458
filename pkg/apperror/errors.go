package apperror

import (
	"errors"
	"net/http"
)

// ErrorType classifies an AppError so callers can branch on the failure category
type ErrorType string

const (
	TypeValidation   ErrorType = "validation_error"
	TypeNotFound     ErrorType = "not_found"
	TypeConflict     ErrorType = "conflict"
	TypeIntegration  ErrorType = "integration_error"
	TypeBadRequest   ErrorType = "bad_request"
	TypeUnauthorized ErrorType = "unauthorized"
	TypeForbidden    ErrorType = "forbidden"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    int          `json:"code"`
	Type    ErrorType    `json:"type"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
	// Details carries structured context, e.g. the current state on a conflict.
	Details interface{} `json:"details,omitempty"`

	cause error
}

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	if e.cause != nil && e.Type == TypeIntegration {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *AppError) Unwrap() error {
	return e.cause
}

// Common errors
var (
	ErrNotFound       = &AppError{Code: http.StatusNotFound, Type: TypeNotFound, Message: "Resource not found"}
	ErrUnauthorized   = &AppError{Code: http.StatusUnauthorized, Type: TypeUnauthorized, Message: "Unauthorized"}
	ErrForbidden      = &AppError{Code: http.StatusForbidden, Type: TypeForbidden, Message: "Forbidden"}
	ErrBadRequest     = &AppError{Code: http.StatusBadRequest, Type: TypeBadRequest, Message: "Bad request"}
	ErrInternalServer = &AppError{Code: http.StatusInternalServerError, Type: TypeIntegration, Message: "Internal server error"}
	ErrConflict       = &AppError{Code: http.StatusConflict, Type: TypeConflict, Message: "Resource already exists"}
	ErrInvalidToken   = &AppError{Code: http.StatusUnauthorized, Type: TypeUnauthorized, Message: "Invalid token"}
)

// NewAppError creates a new application error
func NewAppError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(fieldErrors []FieldError) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Type:    TypeValidation,
		Message: "Validation failed",
		Errors:  fieldErrors,
	}
}

// NewFieldError is a shorthand for a validation error on a single field
func NewFieldError(field, message string) *AppError {
	return NewValidationError([]FieldError{{Field: field, Message: message}})
}

// NewNotFoundError creates a not found error with a custom message
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Type:    TypeNotFound,
		Message: resource + " not found",
	}
}

// NewConflictError creates a conflict error with a custom message
func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Type:    TypeConflict,
		Message: message,
	}
}

// NewConflictErrorWithDetails creates a conflict error that reports the current state
func NewConflictErrorWithDetails(message string, details interface{}) *AppError {
	err := NewConflictError(message)
	err.Details = details
	return err
}

// NewIntegrationError wraps a persistence or downstream failure. The message
// returned to clients is generic; the cause is kept for logs.
func NewIntegrationError(cause error) *AppError {
	return &AppError{
		Code:    http.StatusInternalServerError,
		Type:    TypeIntegration,
		Message: "Internal server error",
		cause:   cause,
	}
}

// NewBadRequestError creates a bad request error with a custom message
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Type:    TypeBadRequest,
		Message: message,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError converts an error to AppError if possible. Unknown errors are
// reported as integration errors without exposing their text.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewIntegrationError(err)
}

// TypeOf returns the category of err, treating unknown errors as integration errors.
func TypeOf(err error) ErrorType {
	if err == nil {
		return ""
	}
	return GetAppError(err).Type
}

func IsValidation(err error) bool  { return err != nil && TypeOf(err) == TypeValidation }
func IsNotFound(err error) bool    { return err != nil && TypeOf(err) == TypeNotFound }
func IsConflict(err error) bool    { return err != nil && TypeOf(err) == TypeConflict }
func IsIntegration(err error) bool { return err != nil && TypeOf(err) == TypeIntegration }
