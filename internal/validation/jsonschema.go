package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rendis/n8nview/pkg/schema"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

const documentSchemaURL = "https://n8nview.dev/schemas/workflow.json"

// documentSchemaJSON is the JSON Schema for an exported n8n workflow.
// It mirrors the loader's only rule: nodes and connections must be present and
// usable as a list and a mapping. Node and connection contents are not checked.
const documentSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://n8nview.dev/schemas/workflow.json",
  "type": "object",
  "required": ["nodes", "connections"],
  "properties": {
    "nodes": {
      "type": "array",
      "items": { "type": "object" }
    },
    "connections": {
      "type": "object"
    }
  }
}`

// JSONSchemaValidator implements Validator using JSON Schema Draft 2020-12.
// It is safe for concurrent use.
type JSONSchemaValidator struct {
	documentSchema *jsonschema.Schema
}

var _ Validator = (*JSONSchemaValidator)(nil)

// NewJSONSchemaValidator creates a JSONSchemaValidator with the document schema pre-compiled.
func NewJSONSchemaValidator() (*JSONSchemaValidator, error) {
	c := jsonschema.NewCompiler()
	c.AssertFormat()

	schemaDoc, err := jsonschema.UnmarshalJSON(strings.NewReader(documentSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("unmarshal document schema: %w", err)
	}
	if err := c.AddResource(documentSchemaURL, schemaDoc); err != nil {
		return nil, fmt.Errorf("add document schema resource: %w", err)
	}

	docSchema, err := c.Compile(documentSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile document schema: %w", err)
	}

	return &JSONSchemaValidator{documentSchema: docSchema}, nil
}

// ValidateDocument checks raw JSON against the document schema.
// Malformed JSON yields a PARSE_ERROR, a schema violation a VALIDATION_ERROR.
func (v *JSONSchemaValidator) ValidateDocument(data []byte) error {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return schema.NewError(schema.ErrCodeParse, "file is not valid JSON").WithCause(err)
	}

	if err := v.documentSchema.Validate(doc); err != nil {
		return toViewError(err)
	}
	return nil
}

// Parse validates raw JSON and decodes it into a Document.
func (v *JSONSchemaValidator) Parse(data []byte) (*schema.Document, error) {
	if err := v.ValidateDocument(data); err != nil {
		return nil, err
	}

	var doc schema.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, schema.NewError(schema.ErrCodeParse, "file does not decode as a workflow").WithCause(err)
	}
	if doc.Connections == nil {
		doc.Connections = schema.NewConnections()
	}
	return &doc, nil
}

// toViewError converts a jsonschema.ValidationError into a ViewError
// listing every leaf violation.
func toViewError(err error) *schema.ViewError {
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return schema.NewError(schema.ErrCodeValidation, err.Error())
	}

	violations := collectViolations(verr)
	if len(violations) == 0 {
		return schema.NewError(schema.ErrCodeValidation, verr.Error())
	}

	if len(violations) == 1 {
		return schema.NewError(schema.ErrCodeValidation, violations[0]).
			WithDetails(map[string]any{"violations": violations})
	}

	msg := fmt.Sprintf("validation failed with %d errors", len(violations))
	return schema.NewError(schema.ErrCodeValidation, msg).
		WithDetails(map[string]any{"violations": violations})
}

// collectViolations walks a ValidationError tree and collects leaf error
// messages with their instance locations.
func collectViolations(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		loc := "/"
		if len(verr.InstanceLocation) > 0 {
			loc = "/" + strings.Join(verr.InstanceLocation, "/")
		}
		return []string{fmt.Sprintf("%s: %s", loc, verr.Error())}
	}

	var violations []string
	for _, cause := range verr.Causes {
		violations = append(violations, collectViolations(cause)...)
	}
	return violations
}
