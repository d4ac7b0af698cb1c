// Package errors provides typed errors for cicd-cache
package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of error
type ErrorType int

const (
	// ErrConfig indicates a configuration error
	ErrConfig ErrorType = iota
	// ErrValidation indicates a caller passed an invalid argument
	ErrValidation
	// ErrStorage indicates a disk read or write failed
	ErrStorage
	// ErrCodec indicates a value could not be encoded or decoded
	ErrCodec
)

// CICDError is the base error type for all cicd-cache errors
type CICDError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error returns the error message
func (e *CICDError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", errorTypeString(e.Type), e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", errorTypeString(e.Type), e.Message)
}

// Unwrap returns the underlying cause
func (e *CICDError) Unwrap() error {
	return e.Cause
}

// New creates a new CICDError
func New(errType ErrorType, message string, cause error) *CICDError {
	return &CICDError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds context to the error
func (e *CICDError) WithContext(key string, value interface{}) *CICDError {
	e.Context[key] = value
	return e
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	var cicdErr *CICDError
	if err == nil {
		return false
	}
	if errors.As(err, &cicdErr) {
		return cicdErr.Type == errType
	}
	return false
}

// IsEnvironmental reports whether err comes from the environment (disk,
// corrupt data) rather than from a caller mistake. Cache operations absorb
// environmental errors and surface everything else.
func IsEnvironmental(err error) bool {
	var cicdErr *CICDError
	if !errors.As(err, &cicdErr) {
		return false
	}

	switch cicdErr.Type {
	case ErrStorage, ErrCodec:
		return true
	default:
		return false
	}
}

func errorTypeString(et ErrorType) string {
	switch et {
	case ErrConfig:
		return "CONFIG"
	case ErrValidation:
		return "VALIDATION"
	case ErrStorage:
		return "STORAGE"
	case ErrCodec:
		return "CODEC"
	default:
		return "UNKNOWN"
	}
}

// Convenience functions for common errors

// ConfigError creates a configuration error
func ConfigError(message string, cause error) *CICDError {
	return New(ErrConfig, message, cause)
}

// ValidationError creates a validation error
func ValidationError(message string, cause error) *CICDError {
	return New(ErrValidation, message, cause)
}

// StorageError creates a storage error
func StorageError(message string, cause error) *CICDError {
	return New(ErrStorage, message, cause)
}

// CodecError creates an encode/decode error
func CodecError(message string, cause error) *CICDError {
	return New(ErrCodec, message, cause)
}
