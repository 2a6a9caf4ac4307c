// Package errors provides domain-specific error types.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes for domain errors.
const (
	ErrCodeConfiguration    = "CONFIGURATION_ERROR"
	ErrCodeConnection       = "CONNECTION_ERROR"
	ErrCodeInvalidArgument  = "INVALID_ARGUMENT"
	ErrCodeClosedConnection = "CLOSED_CONNECTION"
	ErrCodeStore            = "STORE_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// DomainError represents a domain-specific error.
type DomainError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"`
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewConfigurationError reports a connection parameter that no configuration layer provides.
func NewConfigurationError(key string, details string) *DomainError {
	return &DomainError{
		Code:       ErrCodeConfiguration,
		Message:    fmt.Sprintf("missing required connection parameter %q", key),
		Details:    details,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// NewConnectionError creates an error for an unreachable store or a lost connection.
func NewConnectionError(message string, err error) *DomainError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &DomainError{
		Code:       ErrCodeConnection,
		Message:    message,
		Details:    details,
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

// NewInvalidArgumentError creates an error for a caller-supplied value out of contract.
func NewInvalidArgumentError(message string, details string) *DomainError {
	return &DomainError{
		Code:       ErrCodeInvalidArgument,
		Message:    message,
		Details:    details,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewClosedConnectionError creates an error for an operation attempted after close.
func NewClosedConnectionError(operation string) *DomainError {
	return &DomainError{
		Code:       ErrCodeClosedConnection,
		Message:    "connection is closed",
		Details:    operation,
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

// NewStoreError wraps a failure surfaced by the underlying store.
// The driver error is kept unchanged and reachable through errors.Unwrap.
func NewStoreError(operation string, err error) *DomainError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &DomainError{
		Code:       ErrCodeStore,
		Message:    fmt.Sprintf("%s failed", operation),
		Details:    details,
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// NewNotFoundError creates a new not found error.
func NewNotFoundError(resource, identifier string) *DomainError {
	return &DomainError{
		Code:       ErrCodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		Details:    identifier,
		HTTPStatus: http.StatusNotFound,
	}
}

// NewInternalError creates a new internal error.
func NewInternalError(message string, err error) *DomainError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &DomainError{
		Code:       ErrCodeInternal,
		Message:    message,
		Details:    details,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// IsDomainError checks if the error is a domain error.
func IsDomainError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr)
}

// GetDomainError extracts the domain error from an error.
func GetDomainError(err error) (*DomainError, bool) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr, true
	}
	return nil, false
}

func hasCode(err error, code string) bool {
	domainErr, ok := GetDomainError(err)
	return ok && domainErr.Code == code
}

// IsConfigurationError checks if the error is a configuration error.
func IsConfigurationError(err error) bool {
	return hasCode(err, ErrCodeConfiguration)
}

// IsConnectionError checks if the error is a connection error.
func IsConnectionError(err error) bool {
	return hasCode(err, ErrCodeConnection)
}

// IsInvalidArgument checks if the error is an invalid argument error.
func IsInvalidArgument(err error) bool {
	return hasCode(err, ErrCodeInvalidArgument)
}

// IsClosedConnection checks if the error was caused by using a closed connection.
func IsClosedConnection(err error) bool {
	return hasCode(err, ErrCodeClosedConnection)
}

// IsStoreError checks if the error is a pass-through store error.
func IsStoreError(err error) bool {
	return hasCode(err, ErrCodeStore)
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}
