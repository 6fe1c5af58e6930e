// Package errors provides typed error definitions for harbormaster.
// This package consolidates error handling and provides structured error types
// that can be used for better error classification and handling.
package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode represents a unique identifier for different error types
type ErrorCode string

const (
	// Configuration errors
	ErrConfigNotFound ErrorCode = "CONFIG_NOT_FOUND"
	ErrConfigInvalid  ErrorCode = "CONFIG_INVALID"
	ErrConfigParse    ErrorCode = "CONFIG_PARSE"

	// Project errors
	ErrProjectNotFound ErrorCode = "PROJECT_NOT_FOUND"
	ErrProjectExists   ErrorCode = "PROJECT_EXISTS"
	ErrProjectState    ErrorCode = "PROJECT_STATE"

	// Validation errors
	ErrValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrInvalidInput     ErrorCode = "INVALID_INPUT"
	ErrInvalidPort      ErrorCode = "INVALID_PORT"
	ErrMissingEnvVars   ErrorCode = "MISSING_ENV_VARS"

	// Conflict errors
	ErrPortConflict ErrorCode = "PORT_CONFLICT"

	// Compose errors
	ErrComposeFileNotFound ErrorCode = "COMPOSE_FILE_NOT_FOUND"
	ErrComposeParse        ErrorCode = "COMPOSE_PARSE"

	// External tool errors
	ErrToolFailed      ErrorCode = "TOOL_FAILED"
	ErrToolUnavailable ErrorCode = "TOOL_UNAVAILABLE"

	// Container errors
	ErrContainerNotFound ErrorCode = "CONTAINER_NOT_FOUND"
	ErrContainerQuery    ErrorCode = "CONTAINER_QUERY"

	// Git errors
	ErrGitCloneFailed ErrorCode = "GIT_CLONE_FAILED"
	ErrGitPullFailed  ErrorCode = "GIT_PULL_FAILED"
	ErrGitRepoInvalid ErrorCode = "GIT_REPO_INVALID"

	// File/IO errors
	ErrFileRead   ErrorCode = "FILE_READ"
	ErrFileWrite  ErrorCode = "FILE_WRITE"
	ErrFileSystem ErrorCode = "FILE_SYSTEM"

	// JSON errors
	ErrJSONMarshal   ErrorCode = "JSON_MARSHAL"
	ErrJSONUnmarshal ErrorCode = "JSON_UNMARSHAL"

	// Internal errors
	ErrInternal ErrorCode = "INTERNAL_ERROR"
)

// HarbormasterError represents a structured error with additional context
type HarbormasterError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	Context    map[string]interface{} `json:"context,omitempty"`
	HTTPStatus int                    `json:"-"`
}

// Error implements the error interface
func (e *HarbormasterError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *HarbormasterError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *HarbormasterError) WithContext(key string, value interface{}) *HarbormasterError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// GetHTTPStatus returns the appropriate HTTP status code for this error
func (e *HarbormasterError) GetHTTPStatus() int {
	if e.HTTPStatus != 0 {
		return e.HTTPStatus
	}

	switch e.Code {
	case ErrProjectNotFound, ErrContainerNotFound, ErrConfigNotFound, ErrComposeFileNotFound:
		return http.StatusNotFound
	case ErrValidationFailed, ErrInvalidInput, ErrInvalidPort, ErrMissingEnvVars:
		return http.StatusBadRequest
	case ErrProjectExists, ErrPortConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// New creates a new HarbormasterError
func New(code ErrorCode, message string) *HarbormasterError {
	return &HarbormasterError{
		Code:    code,
		Message: message,
	}
}

// NewWithDetails creates a new HarbormasterError with details
func NewWithDetails(code ErrorCode, message, details string) *HarbormasterError {
	return &HarbormasterError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// Wrap creates a new HarbormasterError that wraps an existing error
func Wrap(code ErrorCode, message string, cause error) *HarbormasterError {
	return &HarbormasterError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapWithDetails creates a new HarbormasterError with details that wraps an existing error
func WrapWithDetails(code ErrorCode, message, details string, cause error) *HarbormasterError {
	return &HarbormasterError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}

// GetCode extracts the error code from an error, if it's a HarbormasterError
func GetCode(err error) ErrorCode {
	if he, ok := err.(*HarbormasterError); ok {
		return he.Code
	}
	return ""
}

// HasCode checks if an error has a specific error code
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}
