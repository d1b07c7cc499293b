// Package errors provides structured error types for the msgforge compiler.
// All errors include a category, code, message, and retryable flag for
// consistent error handling across components.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors by compiler stage or subsystem.
type ErrorCategory string

const (
	ErrCategoryParse    ErrorCategory = "PARSE"
	ErrCategoryResolve  ErrorCategory = "RESOLVE"
	ErrCategoryGenerate ErrorCategory = "GENERATE"
	ErrCategoryStorage  ErrorCategory = "STORAGE"
	ErrCategoryManifest ErrorCategory = "MANIFEST"
	ErrCategoryCache    ErrorCategory = "CACHE"
	ErrCategoryConfig   ErrorCategory = "CONFIG"
	ErrCategoryInternal ErrorCategory = "INTERNAL"
)

// Error codes for each category.
const (
	// Parse codes
	CodeSyntax              = "SYNTAX"
	CodeBadLayout           = "BAD_LAYOUT"
	CodeDuplicateDefinition = "DUPLICATE_DEFINITION"

	// Resolve codes
	CodeUnknownReference = "UNKNOWN_REFERENCE"
	CodeReferenceCycle   = "REFERENCE_CYCLE"

	// Generate codes
	CodeEmitFailed  = "EMIT_FAILED"
	CodeWriteFailed = "WRITE_FAILED"

	// Storage codes
	CodeUploadFailed   = "UPLOAD_FAILED"
	CodeDownloadFailed = "DOWNLOAD_FAILED"
	CodeObjectNotFound = "OBJECT_NOT_FOUND"

	// Manifest codes
	CodeOpenFailed     = "OPEN_FAILED"
	CodeWriteConflict  = "WRITE_CONFLICT"
	CodeModuleNotFound = "MODULE_NOT_FOUND"

	// Cache codes
	CodeCorruptEntry = "CORRUPT_ENTRY"

	// Config codes
	CodeInvalidConfig = "INVALID_CONFIG"

	// Internal codes
	CodeUnexpected = "UNEXPECTED"
)

// ForgeError is the structured error type used throughout the compiler.
type ForgeError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Details   map[string]interface{}
	Cause     error
	Retryable bool
}

// Error returns a formatted error string.
func (e *ForgeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *ForgeError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
func (e *ForgeError) Is(target error) bool {
	var t *ForgeError
	if errors.As(target, &t) {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// New creates a new ForgeError.
func New(category ErrorCategory, code, message string) *ForgeError {
	return &ForgeError{
		Category:  category,
		Code:      code,
		Message:   message,
		Retryable: isRetryable(category, code),
	}
}

// Wrap creates a new ForgeError wrapping an existing error.
func Wrap(category ErrorCategory, code, message string, cause error) *ForgeError {
	return &ForgeError{
		Category:  category,
		Code:      code,
		Message:   message,
		Cause:     cause,
		Retryable: isRetryable(category, code),
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *ForgeError) WithDetails(details map[string]interface{}) *ForgeError {
	cp := *e
	cp.Details = details
	return &cp
}

// IsRetryable checks whether an error (or its chain) is retryable.
func IsRetryable(err error) bool {
	var fe *ForgeError
	if errors.As(err, &fe) {
		return fe.Retryable
	}
	return false
}

// GetCategory extracts the error category from an error chain.
// Returns empty string if the error is not a ForgeError.
func GetCategory(err error) ErrorCategory {
	var fe *ForgeError
	if errors.As(err, &fe) {
		return fe.Category
	}
	return ""
}

// GetCode extracts the error code from an error chain.
// Returns empty string if the error is not a ForgeError.
func GetCode(err error) string {
	var fe *ForgeError
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}

// isRetryable determines if an error code is retryable. Source trees and
// generated output are immutable between runs, so only transient transport
// and lock contention qualify.
func isRetryable(category ErrorCategory, code string) bool {
	switch {
	case category == ErrCategoryStorage && code == CodeUploadFailed:
		return true
	case category == ErrCategoryStorage && code == CodeDownloadFailed:
		return true
	case category == ErrCategoryManifest && code == CodeWriteConflict:
		return true
	default:
		return false
	}
}

// Convenience constructors for common errors.

func NewParseError(code, message string, cause error) *ForgeError {
	return Wrap(ErrCategoryParse, code, message, cause)
}

func NewResolveError(code, message string, cause error) *ForgeError {
	return Wrap(ErrCategoryResolve, code, message, cause)
}

func NewGenerateError(code, message string, cause error) *ForgeError {
	return Wrap(ErrCategoryGenerate, code, message, cause)
}

func NewStorageError(code, message string, cause error) *ForgeError {
	return Wrap(ErrCategoryStorage, code, message, cause)
}

func NewManifestError(code, message string, cause error) *ForgeError {
	return Wrap(ErrCategoryManifest, code, message, cause)
}

func NewCacheError(code, message string, cause error) *ForgeError {
	return Wrap(ErrCategoryCache, code, message, cause)
}

func NewConfigError(message string) *ForgeError {
	return New(ErrCategoryConfig, CodeInvalidConfig, message)
}

func NewInternalError(message string, cause error) *ForgeError {
	return Wrap(ErrCategoryInternal, CodeUnexpected, message, cause)
}
