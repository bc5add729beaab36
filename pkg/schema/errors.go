package schema

import (
	"errors"
	"fmt"
)

// Error codes for structured error reporting.
const (
	ErrCodeSelection  = "SELECTION_ERROR"
	ErrCodeParse      = "PARSE_ERROR"
	ErrCodeValidation = "VALIDATION_ERROR"
	ErrCodeNotFound   = "NOT_FOUND"
	ErrCodeExpression = "EXPRESSION_ERROR"
	ErrCodeRender     = "RENDER_ERROR"
)

// ViewError is the structured error type for all n8nview operations.
type ViewError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	NodeID  string         `json:"node_id,omitempty"`
	Cause   error          `json:"-"`
}

func (e *ViewError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("[%s] node %s: %s", e.Code, e.NodeID, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *ViewError) Unwrap() error {
	return e.Cause
}

// NewError creates a new ViewError.
func NewError(code, message string) *ViewError {
	return &ViewError{Code: code, Message: message}
}

// NewErrorf creates a new ViewError with a formatted message.
func NewErrorf(code, format string, args ...any) *ViewError {
	return &ViewError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithNode attaches a node ID to the error.
func (e *ViewError) WithNode(nodeID string) *ViewError {
	e.NodeID = nodeID
	return e
}

// WithCause attaches an underlying cause.
func (e *ViewError) WithCause(err error) *ViewError {
	e.Cause = err
	return e
}

// WithDetails attaches key-value details.
func (e *ViewError) WithDetails(details map[string]any) *ViewError {
	e.Details = details
	return e
}

// IsCode reports whether err wraps a *ViewError carrying the given code.
func IsCode(err error, code string) bool {
	var ve *ViewError
	return errors.As(err, &ve) && ve.Code == code
}
