package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for resolution outcomes.
var (
	// ErrTransport indicates that no transport strategy produced content.
	ErrTransport = errors.New("transport failure")

	// ErrNotFound indicates that a mirror answered with its "not found" page.
	ErrNotFound = errors.New("not found")

	// ErrMalformed indicates that no locator cascade matched the document.
	ErrMalformed = errors.New("malformed document")

	// ErrBudgetExhausted indicates that the attempt budget of a call ran out.
	ErrBudgetExhausted = errors.New("attempt budget exhausted")

	// ErrInvalidInput indicates that the input data is invalid.
	ErrInvalidInput = errors.New("invalid input")
)

// ValidationError represents a validation error for a specific field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// TransportError describes why one fetch of a URL failed. When every rung of
// the escalation ladder fails, Cause joins the per-strategy errors.
type TransportError struct {
	Strategy   string
	URL        string
	StatusCode int
	Cause      error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	var sb strings.Builder
	sb.WriteString("transport")
	if e.Strategy != "" {
		sb.WriteString(" [")
		sb.WriteString(e.Strategy)
		sb.WriteString("]")
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&sb, ": HTTP %d", e.StatusCode)
	}
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

// Unwrap exposes both the sentinel and the cause.
func (e *TransportError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrTransport}
	}
	return []error{ErrTransport, e.Cause}
}

// ExtractionReason classifies why a document could not become a record.
type ExtractionReason string

const (
	// ReasonNotFound is used when the title matched a "not found" sentinel.
	ReasonNotFound ExtractionReason = "not_found"
	// ReasonMalformed is used when no locator matched at all.
	ReasonMalformed ExtractionReason = "malformed"
)

// ExtractionError provides details about a rejected document.
type ExtractionError struct {
	Reason ExtractionReason
	Detail string
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("extraction failed: %s", e.Reason)
	}
	return fmt.Sprintf("extraction failed: %s: %s", e.Reason, e.Detail)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *ExtractionError) Unwrap() error {
	if e.Reason == ReasonNotFound {
		return ErrNotFound
	}
	return ErrMalformed
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewTransportError creates a new TransportError.
func NewTransportError(strategy, url string, statusCode int, cause error) *TransportError {
	return &TransportError{
		Strategy:   strategy,
		URL:        url,
		StatusCode: statusCode,
		Cause:      cause,
	}
}

// NewNotFoundError creates an ExtractionError for a "not found" page.
func NewNotFoundError(detail string) *ExtractionError {
	return &ExtractionError{Reason: ReasonNotFound, Detail: detail}
}

// NewMalformedError creates an ExtractionError for an unparseable page.
func NewMalformedError(detail string) *ExtractionError {
	return &ExtractionError{Reason: ReasonMalformed, Detail: detail}
}
