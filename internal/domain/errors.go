// Package domain defines the core types, plans, and errors shared by the
// query planners, backend executors, and the orchestrator.
package domain

import "fmt"

// ValidationError indicates invalid caller input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NotFoundError indicates a referenced resource does not exist.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ConfigError indicates missing or inconsistent configuration, such as
// absent credentials. It is surfaced as a user-facing message rather than
// a crash.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string { return e.Message }

// UpstreamError wraps a failure from an external collaborator (the
// reporting API, the spreadsheet source, or the language model).
type UpstreamError struct {
	Backend string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s backend: %v", e.Backend, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrConfig creates a ConfigError with a formatted message.
func ErrConfig(format string, args ...interface{}) *ConfigError {
	return &ConfigError{Message: fmt.Sprintf(format, args...)}
}

// ErrUpstream wraps err as an UpstreamError for the named backend.
func ErrUpstream(backend string, err error) *UpstreamError {
	return &UpstreamError{Backend: backend, Err: err}
}

// ErrPropertyIDRequired is returned when a question needs the analytics
// backend but no property identifier was supplied with the request.
var ErrPropertyIDRequired = &ValidationError{
	Message: "a property ID is required for analytics queries; include propertyId in the request",
}
