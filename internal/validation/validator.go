package validation

import "github.com/rendis/n8nview/pkg/schema"

// Validator checks raw workflow files before they are converted.
// Only the presence of the two top-level keys is enforced; everything else in
// the document is passed through as-is.
type Validator interface {
	ValidateDocument(data []byte) error
	Parse(data []byte) (*schema.Document, error)
}
