package core

import (
	"errors"
	"fmt"
)

// ExecutionError represents a structured error with category and details
type ExecutionError struct {
	Category ErrorCategory
	Code     string                 // Machine-readable code: element_not_found, wait_timeout, etc.
	Message  string                 // Human-readable message
	Details  map[string]interface{} // Additional context
	Cause    error                  // Underlying error
}

// Error implements the error interface
func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is matches any ExecutionError with the same code, so copies made with
// WithMessage or WithDetails still match the predefined errors.
func (e *ExecutionError) Is(target error) bool {
	var t *ExecutionError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// WithCause returns a copy of the error with the given cause
func (e *ExecutionError) WithCause(cause error) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  e.Details,
		Cause:    cause,
	}
}

// WithMessage returns a copy of the error with a custom message
func (e *ExecutionError) WithMessage(msg string) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  msg,
		Details:  e.Details,
		Cause:    e.Cause,
	}
}

// WithDetails returns a copy of the error with additional details
func (e *ExecutionError) WithDetails(details map[string]interface{}) *ExecutionError {
	merged := make(map[string]interface{})
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  merged,
		Cause:    e.Cause,
	}
}

// Predefined errors
var (
	// Resolution errors
	ErrElementNotFound = &ExecutionError{
		Category: ErrCategoryNotFound,
		Code:     "element_not_found",
		Message:  "element not found",
	}

	// Assertion errors
	ErrAssertionsFailed = &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "assertions_failed",
		Message:  "ui state verification failed",
	}

	// Timeout errors
	ErrWaitTimeout = &ExecutionError{
		Category: ErrCategoryTimeout,
		Code:     "wait_timeout",
		Message:  "wait condition timed out",
	}

	// Programming errors: never deferred
	ErrInvalidOperator = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "invalid_comparison_operator",
		Message:  "invalid comparison operator",
	}
	ErrInvalidProperty = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "invalid_property",
		Message:  "invalid property",
	}
	ErrMissingLocator = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "missing_locator",
		Message:  "no locator configured",
	}
	ErrUnsupportedDialect = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "unsupported_dialect",
		Message:  "driver does not support this locator dialect",
	}
	ErrTranslationMissing = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "translation_missing",
		Message:  "translation missing",
	}
	ErrUnknownElement = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "unknown_element",
		Message:  "no element registered under that name",
	}
	ErrInvalidConfig = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "invalid_config",
		Message:  "invalid configuration",
	}

	// Connection errors
	ErrBrowserDisconnected = &ExecutionError{
		Category: ErrCategoryConnection,
		Code:     "browser_disconnected",
		Message:  "browser connection lost",
	}
)

// NewExecutionError creates a new ExecutionError with the given parameters
func NewExecutionError(category ErrorCategory, code, message string) *ExecutionError {
	return &ExecutionError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}

// CategoryOf returns the category of the first ExecutionError in err's chain.
func CategoryOf(err error) ErrorCategory {
	var e *ExecutionError
	if errors.As(err, &e) {
		return e.Category
	}
	return ErrCategoryNone
}
