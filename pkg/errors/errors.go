package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Domain errors
	ErrorTypeValidation   ErrorType = "VALIDATION"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeProtected    ErrorType = "PROTECTED_RECORD"
	ErrorTypeReferential  ErrorType = "REFERENTIAL_INTEGRITY"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"

	// Infrastructure errors
	ErrorTypeStorage  ErrorType = "STORAGE"
	ErrorTypePlatform ErrorType = "PLATFORM_UNAVAILABLE"
	ErrorTypeInternal ErrorType = "INTERNAL"
)

// StorageCause classifies a storage failure for user-facing messaging.
// The raw persistence primitive reports failures as opaque strings, so the
// classification is derived from inspecting the underlying error text.
type StorageCause string

const (
	StorageCauseSystem     StorageCause = "system"
	StorageCauseCorruption StorageCause = "corruption"
	StorageCausePermission StorageCause = "permission"
	StorageCauseQuota      StorageCause = "quota"
)

// AppError represents an application-specific error
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Code       string                 `json:"code,omitempty"`
	Cause      StorageCause           `json:"cause,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Err        error                  `json:"-"`
	HTTPStatus int                    `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithCode adds an error code
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithDetails adds error details
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// WithCause wraps an underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// Constructor functions for common error types

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
	}
}

// NewProtectedRecordError creates an error for attempts to delete a protected record
func NewProtectedRecordError(resource string) *AppError {
	return &AppError{
		Type:       ErrorTypeProtected,
		Message:    fmt.Sprintf("%s is protected and cannot be deleted", resource),
		HTTPStatus: http.StatusForbidden,
	}
}

// NewReferentialIntegrityError creates an error for operations blocked by dependent records
func NewReferentialIntegrityError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeReferential,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewConflictError creates a conflict error
func NewConflictError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError(message string) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewStorageError creates a storage error classified from the underlying failure
func NewStorageError(operation string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeStorage,
		Message:    fmt.Sprintf("storage operation '%s' failed", operation),
		Cause:      ClassifyStorageCause(err),
		Err:        err,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// NewPlatformUnavailableError creates an error for operations against an absent platform collaborator
func NewPlatformUnavailableError(service string) *AppError {
	return &AppError{
		Type:       ErrorTypePlatform,
		Message:    fmt.Sprintf("'%s' is not available on this platform", service),
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// Helper functions

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from an error chain
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == errType
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return IsType(err, ErrorTypeNotFound)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return IsType(err, ErrorTypeValidation)
}

// IsProtectedRecord checks if an error is a protected record error
func IsProtectedRecord(err error) bool {
	return IsType(err, ErrorTypeProtected)
}

// IsReferentialIntegrity checks if an error is a referential integrity error
func IsReferentialIntegrity(err error) bool {
	return IsType(err, ErrorTypeReferential)
}

// IsStorage checks if an error is a storage error
func IsStorage(err error) bool {
	return IsType(err, ErrorTypeStorage)
}

// IsPlatformUnavailable checks if an error is a platform unavailability error
func IsPlatformUnavailable(err error) bool {
	return IsType(err, ErrorTypePlatform)
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	// If it's already an AppError, add context to message
	if appErr := GetAppError(err); appErr != nil {
		appErr.Message = fmt.Sprintf("%s: %s", message, appErr.Message)
		return appErr
	}

	// Otherwise create a new internal error
	return NewInternalError(message).WithCause(err)
}

// Wrapf wraps an error with formatted message
func Wrapf(err error, format string, args ...interface{}) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}
