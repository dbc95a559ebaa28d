package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeProvider represents LLM backend errors
	ErrorTypeProvider ErrorType = "provider"
	// ErrorTypeStore represents term store errors
	ErrorTypeStore ErrorType = "store"
	// ErrorTypeGraph represents graph database errors
	ErrorTypeGraph ErrorType = "graph"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeContext represents context cancellation/timeout errors
	ErrorTypeContext ErrorType = "context"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Provider Errors

// ErrProviderNoChoices is returned when a completion response carries no choices
var ErrProviderNoChoices = NewBaseError(ErrorTypeProvider, "no choices in completion response", nil)

// ErrProviderCallFailed is returned when a completion request fails
type ErrProviderCallFailed struct {
	*BaseError
	Provider  string
	Model     string
	Attempts  int
	Retryable bool
}

func NewProviderCallFailed(provider, model string, attempts int, retryable bool, err error) *ErrProviderCallFailed {
	return &ErrProviderCallFailed{
		BaseError: NewBaseError(ErrorTypeProvider, fmt.Sprintf("%s/%s completion failed after %d attempts", provider, model, attempts), err),
		Provider:  provider,
		Model:     model,
		Attempts:  attempts,
		Retryable: retryable,
	}
}

// ErrProviderUnknown is returned when a backend names a provider with no adapter
type ErrProviderUnknown struct {
	*BaseError
	Provider string
}

func NewProviderUnknown(provider string) *ErrProviderUnknown {
	return &ErrProviderUnknown{
		BaseError: NewBaseError(ErrorTypeProvider, fmt.Sprintf("unknown provider: %s", provider), nil),
		Provider:  provider,
	}
}

// Store Errors

// ErrStoreInvalidModel is returned when a model id cannot be used as a file name
type ErrStoreInvalidModel struct {
	*BaseError
	Model string
}

func NewStoreInvalidModel(model string) *ErrStoreInvalidModel {
	return &ErrStoreInvalidModel{
		BaseError: NewBaseError(ErrorTypeStore, fmt.Sprintf("invalid model id: %q", model), nil),
		Model:     model,
	}
}

// ErrStoreReadFailed is returned when a term file exists but cannot be decoded
type ErrStoreReadFailed struct {
	*BaseError
	Path string
}

func NewStoreReadFailed(path string, err error) *ErrStoreReadFailed {
	return &ErrStoreReadFailed{
		BaseError: NewBaseError(ErrorTypeStore, fmt.Sprintf("failed to read %s", path), err),
		Path:      path,
	}
}

// ErrStoreWriteFailed is returned when a term file cannot be persisted
type ErrStoreWriteFailed struct {
	*BaseError
	Path string
}

func NewStoreWriteFailed(path string, err error) *ErrStoreWriteFailed {
	return &ErrStoreWriteFailed{
		BaseError: NewBaseError(ErrorTypeStore, fmt.Sprintf("failed to write %s", path), err),
		Path:      path,
	}
}

// Graph Errors

// ErrGraphConnectionFailed is returned when Neo4j connection fails
type ErrGraphConnectionFailed struct {
	*BaseError
	URI string
}

func NewGraphConnectionFailed(uri string, err error) *ErrGraphConnectionFailed {
	return &ErrGraphConnectionFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("failed to connect to Neo4j: %s", uri), err),
		URI:       uri,
	}
}

// ErrGraphQueryFailed is returned when a graph query fails
type ErrGraphQueryFailed struct {
	*BaseError
	Query string
}

func NewGraphQueryFailed(query string, err error) *ErrGraphQueryFailed {
	return &ErrGraphQueryFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("query failed: %s", query), err),
		Query:     query,
	}
}

// Context Errors

// ErrContextCancelled is returned when context is cancelled
type ErrContextCancelled struct {
	*BaseError
	Operation string
}

func NewContextCancelled(operation string, err error) *ErrContextCancelled {
	return &ErrContextCancelled{
		BaseError: NewBaseError(ErrorTypeContext, fmt.Sprintf("context cancelled: %s", operation), err),
		Operation: operation,
	}
}

// Config Errors

// ErrConfigValidationFailed is returned when configuration validation fails
type ErrConfigValidationFailed struct {
	*BaseError
	Field  string
	Reason string
}

func NewConfigValidationFailed(field, reason string) *ErrConfigValidationFailed {
	return &ErrConfigValidationFailed{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("config validation failed: %s - %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// Helper functions

// typed is satisfied by every error in this package through the embedded BaseError.
type typed interface {
	errorType() ErrorType
}

func (e *BaseError) errorType() ErrorType { return e.Type }

// IsErrorType checks if an error, or any error it wraps, is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	for err != nil {
		if t, ok := err.(typed); ok && t.errorType() == errType {
			return true
		}
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range joined.Unwrap() {
				if IsErrorType(e, errType) {
					return true
				}
			}
			return false
		}
		err = stderrors.Unwrap(err)
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	// Context errors are not retryable
	if IsErrorType(err, ErrorTypeContext) {
		return false
	}
	var callErr *ErrProviderCallFailed
	if stderrors.As(err, &callErr) {
		return callErr.Retryable
	}
	// Graph connection errors are retryable
	var connErr *ErrGraphConnectionFailed
	return stderrors.As(err, &connErr)
}
