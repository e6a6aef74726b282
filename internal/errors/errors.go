package errors

import (
	stderrors "errors"
	"fmt"
)

// IndexError is the structured error type for indexwrap.
// It carries a stable code for logs and CLI output plus the underlying cause.
type IndexError struct {
	// Code is the unique error code (e.g., "ERR_503_NO_ROUTE").
	Code string

	// Message is the human-readable error message.
	Message string

	Category Category
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *IndexError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *IndexError) Unwrap() error {
	return e.Cause
}

// Is matches another IndexError by code.
func (e *IndexError) Is(target error) bool {
	if t, ok := target.(*IndexError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
func (e *IndexError) WithDetail(key, value string) *IndexError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *IndexError) WithSuggestion(suggestion string) *IndexError {
	e.Suggestion = suggestion
	return e
}

// New creates a new IndexError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *IndexError {
	return &IndexError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Newf is New with a formatted message.
func Newf(code string, cause error, format string, args ...any) *IndexError {
	return New(code, fmt.Sprintf(format, args...), cause)
}

// Wrap creates an IndexError from an existing error.
// The error's message becomes the IndexError message.
func Wrap(code string, err error) *IndexError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *IndexError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// StoreError creates an index store error.
func StoreError(message string, cause error) *IndexError {
	return New(ErrCodeStoreFailed, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *IndexError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *IndexError {
	return New(ErrCodeInternal, message, cause)
}

// As finds the first IndexError in err's chain.
func As(err error) (*IndexError, bool) {
	var ie *IndexError
	if stderrors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}

// IsRetryable reports whether any IndexError in the chain is retryable.
func IsRetryable(err error) bool {
	ie, ok := As(err)
	return ok && ie.Retryable
}

// IsFatal checks if an error has fatal severity.
func IsFatal(err error) bool {
	ie, ok := As(err)
	return ok && ie.Severity == SeverityFatal
}

// GetCode extracts the error code from the first IndexError in the chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	if ie, ok := As(err); ok {
		return ie.Code
	}
	return ""
}

// GetCategory extracts the category from the first IndexError in the chain.
func GetCategory(err error) Category {
	if ie, ok := As(err); ok {
		return ie.Category
	}
	return ""
}
