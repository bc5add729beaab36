package schema

import "fmt"

// Severity indicates whether an issue is an error or warning.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic codes emitted while converting a document.
const (
	DiagUnknownSource = "UNKNOWN_SOURCE"
	DiagUnknownTarget = "UNKNOWN_TARGET"
)

// Issue is a single problem with location context. Path uses the document's
// own addressing, e.g. connections/Check/main/0/1.
type Issue struct {
	Path     string   `json:"path"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// Report aggregates issues found while loading or converting a document.
type Report struct {
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
}

// Valid returns true if there are no errors (warnings are acceptable).
func (r *Report) Valid() bool {
	return len(r.Errors) == 0
}

// AddError appends an error-severity issue.
func (r *Report) AddError(path, code, message string) {
	r.Errors = append(r.Errors, Issue{
		Path: path, Code: code, Message: message, Severity: SeverityError,
	})
}

// AddWarning appends a warning-severity issue.
func (r *Report) AddWarning(path, code, message string) {
	r.Warnings = append(r.Warnings, Issue{
		Path: path, Code: code, Message: message, Severity: SeverityWarning,
	})
}

// Merge combines another Report into this one.
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// ToError converts the report to a ViewError if invalid, nil if valid.
func (r *Report) ToError() error {
	if r.Valid() {
		return nil
	}

	msg := r.Errors[0].Message
	if len(r.Errors) > 1 {
		msg = fmt.Sprintf("validation failed with %d errors", len(r.Errors))
	}

	return NewError(ErrCodeValidation, msg).
		WithDetails(map[string]any{
			"error_count":   len(r.Errors),
			"warning_count": len(r.Warnings),
			"errors":        r.Errors,
			"warnings":      r.Warnings,
		})
}
