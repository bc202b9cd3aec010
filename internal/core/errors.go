package core

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors for handling decisions.
type ErrorCategory string

const (
	ErrCatFormat     ErrorCategory = "format"     // Malformed tool argument
	ErrCatValidation ErrorCategory = "validation" // Well-formed but invalid fields
	ErrCatExtraction ErrorCategory = "extraction" // LLM output is not recoverable JSON
	ErrCatExternal   ErrorCategory = "external"   // Tracker or LLM call failed
	ErrCatAuth       ErrorCategory = "auth"       // Authentication failure
	ErrCatNotFound   ErrorCategory = "not_found"  // Resource not found
	ErrCatState      ErrorCategory = "state"      // Session state conflict
	ErrCatInternal   ErrorCategory = "internal"   // Unexpected internal error
)

// DomainError represents a structured error from the domain layer.
type DomainError struct {
	Category ErrorCategory
	Code     string
	Message  string
	Cause    error
	Details  map[string]any
}

func (e *DomainError) Error() string {
	s := fmt.Sprintf("[%s] %s: %s", e.Category, e.Code, e.Message)
	if e.Cause != nil {
		s += fmt.Sprintf(" (%v)", e.Cause)
	}
	return s
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches another DomainError with the same category and code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && e.Category == t.Category && e.Code == t.Code
}

// WithCause wraps an underlying error.
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// WithDetail attaches a key/value for callers that render the error.
func (e *DomainError) WithDetail(key string, value any) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func newError(cat ErrorCategory, code, message string) *DomainError {
	return &DomainError{Category: cat, Code: code, Message: message}
}

// ErrFormat creates an input-format error.
func ErrFormat(code, message string) *DomainError {
	return newError(ErrCatFormat, code, message)
}

// ErrValidation is for well-formed input with invalid fields.
func ErrValidation(code, message string) *DomainError {
	return newError(ErrCatValidation, code, message)
}

// ErrExtraction creates an extraction error carrying the raw model output.
func ErrExtraction(code, message, raw string) *DomainError {
	return newError(ErrCatExtraction, code, message).WithDetail("raw", raw)
}

// ErrExternal creates an error for a failed tracker or LLM call.
func ErrExternal(code, message string) *DomainError {
	return newError(ErrCatExternal, code, message)
}

// ErrAuth reports rejected credentials.
func ErrAuth(message string) *DomainError {
	return newError(ErrCatAuth, "AUTH_FAILED", message)
}

// ErrNotFound reports a missing resource by kind and ID.
func ErrNotFound(resource, id string) *DomainError {
	return newError(ErrCatNotFound, "NOT_FOUND", fmt.Sprintf("%s not found: %s", resource, id))
}

// ErrState reports a session state conflict.
func ErrState(code, message string) *DomainError {
	return newError(ErrCatState, code, message)
}

// GetCategory returns the category of the first DomainError in err's
// chain, or ErrCatInternal.
func GetCategory(err error) ErrorCategory {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Category
	}
	return ErrCatInternal
}

// IsCategory reports whether err has category cat.
func IsCategory(err error, cat ErrorCategory) bool {
	return GetCategory(err) == cat
}

// UserMessage returns the text shown to the user for err.
// Domain errors render their message, plus the raw model output for
// extraction errors or the cause's user message for external errors.
// Anything else renders err.Error().
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var domErr *DomainError
	if !errors.As(err, &domErr) {
		return err.Error()
	}
	msg := domErr.Message
	if raw, ok := domErr.Details["raw"].(string); ok {
		msg += ":\n" + raw
	}
	if domErr.Cause != nil && domErr.Category == ErrCatExternal {
		msg += ": " + UserMessage(domErr.Cause)
	}
	return msg
}

// Predefined error codes
const (
	CodeInvalidProjectKey = "INVALID_PROJECT_KEY"
	CodeMissingFields     = "MISSING_FIELDS"
	CodeInvalidEditFormat = "INVALID_EDIT_FORMAT"
	CodeUnrecognizedEdit  = "UNRECOGNIZED_EDIT_FORMAT"
	CodeInvalidGenerate   = "INVALID_GENERATE_FORMAT"

	CodeJSONNotFound     = "JSON_NOT_FOUND"
	CodeJSONParseFailed  = "JSON_PARSE_FAILED"
	CodeUnexpectedFormat = "UNEXPECTED_FORMAT"

	CodeTrackerFailed = "TRACKER_FAILED"
	CodeLLMFailed     = "LLM_FAILED"
	CodeUnknownTool   = "UNKNOWN_TOOL"
	CodeTurnPanicked  = "TURN_PANICKED"
)
