// Package errors provides a lightweight structured error type (ReadmeGenError)
// for category-based classification and exit-code mapping in the CLI.
package errors

import (
	"fmt"
)

// ErrorCategory represents the category of a readmegen error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryFormat     ErrorCategory = "format"
	CategoryPlacement  ErrorCategory = "placement"

	// Build and processing errors
	CategoryBuild      ErrorCategory = "build"
	CategorySource     ErrorCategory = "source"
	CategoryFileSystem ErrorCategory = "filesystem"

	// Runtime and infrastructure errors
	CategoryHistory  ErrorCategory = "history"
	CategoryNotify   ErrorCategory = "notify"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// ReadmeGenError is a structured error with category, retryability, and context
type ReadmeGenError struct {
	Category  ErrorCategory `json:"category"`
	Severity  ErrorSeverity `json:"severity"`
	Message   string        `json:"message"`
	Cause     error         `json:"cause,omitempty"`
	Retryable bool          `json:"retryable"`
	Context   ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for ReadmeGenError
type ContextFields map[string]any

// Error implements the error interface
func (e *ReadmeGenError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *ReadmeGenError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *ReadmeGenError) WithContext(key string, value any) *ReadmeGenError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new ReadmeGenError
func New(category ErrorCategory, severity ErrorSeverity, message string) *ReadmeGenError {
	return &ReadmeGenError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Retryable: false,
	}
}

// Wrap creates a new ReadmeGenError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *ReadmeGenError {
	return &ReadmeGenError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: false,
	}
}

// WrapRetryable creates a new retryable ReadmeGenError that wraps an existing error
func WrapRetryable(err error, category ErrorCategory, severity ErrorSeverity, message string) *ReadmeGenError {
	return &ReadmeGenError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: true,
	}
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if rge, ok := err.(*ReadmeGenError); ok {
		return rge.Category == category
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if rge, ok := err.(*ReadmeGenError); ok {
		return rge.Retryable
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a ReadmeGenError
func GetCategory(err error) ErrorCategory {
	if rge, ok := err.(*ReadmeGenError); ok {
		return rge.Category
	}
	return CategoryInternal
}
