// Package errors defines the structured error type shared by livefield packages.
//
// Construction of a partial fails with a parse or resolve error; everything that
// happens at render time degrades to an abstain instead of an error. Host-level
// failures (configuration, I/O, authorization) use the same error type so the
// server and CLI can branch on ErrorType.
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeParse     ErrorType = "parse"
	ErrorTypeResolve   ErrorType = "resolve"
	ErrorTypeForbidden ErrorType = "forbidden"
	ErrorTypeIO        ErrorType = "io"
	ErrorTypeConfig    ErrorType = "config"
	ErrorTypeInternal  ErrorType = "internal"
)

// Common error codes.
const (
	ErrCodeMalformedID      = "ERR_MALFORMED_ID"
	ErrCodeUnknownType      = "ERR_UNKNOWN_TYPE"
	ErrCodeForbidden        = "ERR_FORBIDDEN"
	ErrCodeFileNotFound     = "ERR_FILE_NOT_FOUND"
	ErrCodeContentInvalid   = "ERR_CONTENT_INVALID"
	ErrCodeConfigInvalid    = "ERR_CONFIG_INVALID"
	ErrCodeInternalError    = "ERR_INTERNAL"
	ErrCodePolicyLoadFailed = "ERR_POLICY_LOAD"
)

// Sentinels for errors.Is comparisons. Is matches on type and code only.
var (
	ErrMalformedID = &PreviewError{Type: ErrorTypeParse, Code: ErrCodeMalformedID, Message: "malformed identifier"}
	ErrUnknownType = &PreviewError{Type: ErrorTypeResolve, Code: ErrCodeUnknownType, Message: "unknown content type"}
	ErrForbidden   = &PreviewError{Type: ErrorTypeForbidden, Code: ErrCodeForbidden, Message: "forbidden"}
)

// PreviewError is a structured error type with context.
type PreviewError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	PartialID   string
	FilePath    string
	Recoverable bool
}

// Error implements the error interface.
func (e *PreviewError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.PartialID != "" {
		parts = append(parts, fmt.Sprintf("partial:%q", e.PartialID))
	}

	if e.FilePath != "" {
		parts = append(parts, e.FilePath)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *PreviewError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *PreviewError) Is(target error) bool {
	var t *PreviewError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *PreviewError) WithContext(key string, value interface{}) *PreviewError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithPartial records the identifier the error is about.
func (e *PreviewError) WithPartial(id string) *PreviewError {
	e.PartialID = id

	return e
}

// WithFile adds file location information.
func (e *PreviewError) WithFile(filePath string) *PreviewError {
	e.FilePath = filePath

	return e
}

// Error creation functions

// NewParseError creates an error for an identifier that does not match the grammar.
func NewParseError(id string, cause error) *PreviewError {
	return &PreviewError{
		Type:      ErrorTypeParse,
		Code:      ErrCodeMalformedID,
		Message:   "malformed identifier",
		Cause:     cause,
		PartialID: id,
	}
}

// NewResolveError creates an error for an identifier naming an unknown or
// non-public content type.
func NewResolveError(id, contentType string) *PreviewError {
	return (&PreviewError{
		Type:      ErrorTypeResolve,
		Code:      ErrCodeUnknownType,
		Message:   "unknown content type",
		PartialID: id,
	}).WithContext("content_type", contentType)
}

// NewForbiddenError creates an authorization error.
func NewForbiddenError(id, capability string) *PreviewError {
	return (&PreviewError{
		Type:        ErrorTypeForbidden,
		Code:        ErrCodeForbidden,
		Message:     "forbidden",
		PartialID:   id,
		Recoverable: true,
	}).WithContext("capability", capability)
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *PreviewError {
	return &PreviewError{
		Type:        ErrorTypeIO,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *PreviewError {
	return &PreviewError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *PreviewError {
	return &PreviewError{
		Type:        ErrorTypeInternal,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// Error recovery and handling utilities

// IsParseError checks if an error came from identifier parsing.
func IsParseError(err error) bool {
	return hasType(err, ErrorTypeParse)
}

// IsResolveError checks if an error came from content type resolution.
func IsResolveError(err error) bool {
	return hasType(err, ErrorTypeResolve)
}

// IsConstructionError reports whether err aborted creation of a partial.
func IsConstructionError(err error) bool {
	return IsParseError(err) || IsResolveError(err)
}

// IsForbidden checks if an error is an authorization failure.
func IsForbidden(err error) bool {
	return hasType(err, ErrorTypeForbidden)
}

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var pe *PreviewError
	if errors.As(err, &pe) {
		return pe.Recoverable
	}

	return false
}

func hasType(err error, t ErrorType) bool {
	var pe *PreviewError
	if errors.As(err, &pe) {
		return pe.Type == t
	}

	return false
}

// ErrorHandler provides centralized error handling.
type ErrorHandler struct {
	logger Logger
}

// Logger interface for error logging.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs an error at a level chosen by its type.
func (h *ErrorHandler) Handle(ctx context.Context, err error) {
	if err == nil || h.logger == nil {
		return
	}

	var pe *PreviewError
	if !errors.As(err, &pe) {
		h.logger.Error(ctx, err, "Unhandled error occurred")
		return
	}

	switch pe.Type {
	case ErrorTypeParse, ErrorTypeResolve, ErrorTypeForbidden:
		h.logger.Warn(ctx, err, "Partial rejected",
			"type", pe.Type,
			"code", pe.Code,
			"partial", pe.PartialID)
	default:
		h.logger.Error(ctx, err, "Error occurred",
			"type", pe.Type,
			"code", pe.Code,
			"file", pe.FilePath)
	}
}
