package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrTypeInvalidArgument represents caller precondition violations
	ErrTypeInvalidArgument ErrorType = "invalid_argument"
	// ErrTypeNotFound represents resource not found errors
	ErrTypeNotFound ErrorType = "not_found"
	// ErrTypeMalformedInput represents unparseable inbound payloads
	ErrTypeMalformedInput ErrorType = "malformed_input"
	// ErrTypeUpstream represents failures of external collaborators
	ErrTypeUpstream ErrorType = "upstream"
	// ErrTypeCrypto represents encryption or decryption failures
	ErrTypeCrypto ErrorType = "crypto"
	// ErrTypeConflict represents uniqueness violations on external resources
	ErrTypeConflict ErrorType = "conflict"
	// ErrTypeConfig represents configuration errors
	ErrTypeConfig ErrorType = "config"
)

// AppError represents a structured application error
type AppError struct {
	Type    ErrorType              `json:"type"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	parts := []string{string(e.Type), e.Message}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause=%v", e.Cause))
	}

	if len(e.Context) > 0 {
		contextParts := make([]string, 0, len(e.Context))
		for k, v := range e.Context {
			contextParts = append(contextParts, fmt.Sprintf("%s=%v", k, v))
		}
		parts = append(parts, fmt.Sprintf("context={%s}", strings.Join(contextParts, ", ")))
	}

	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// InvalidArgumentError creates a new invalid argument error.
// These surface immediately and are never retried.
func InvalidArgumentError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeInvalidArgument,
		Message: msg,
	}
}

// NotFoundError creates a new not found error
func NotFoundError(resource string) *AppError {
	return &AppError{
		Type:    ErrTypeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// MalformedInputError creates a new malformed input error
func MalformedInputError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeMalformedInput,
		Message: msg,
		Cause:   cause,
	}
}

// UpstreamError creates a new upstream failure error
func UpstreamError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeUpstream,
		Message: msg,
		Cause:   cause,
	}
}

// CryptoError creates a new encryption/decryption error
func CryptoError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeCrypto,
		Message: msg,
		Cause:   cause,
	}
}

// ConflictError creates a new conflict error
func ConflictError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeConflict,
		Message: msg,
		Cause:   cause,
	}
}

// ConfigError creates a new configuration error
func ConfigError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeConfig,
		Message: msg,
	}
}

// IsType checks if an error is of a specific type anywhere in its chain
func IsType(err error, errType ErrorType) bool {
	if err == nil {
		return false
	}

	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}

	return appErr.Type == errType
}

// GetType returns the error type if it's an AppError, otherwise returns ErrTypeUpstream
func GetType(err error) ErrorType {
	if err == nil {
		return ""
	}

	var appErr *AppError
	if !errors.As(err, &appErr) {
		return ErrTypeUpstream
	}

	return appErr.Type
}
