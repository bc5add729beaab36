package flow

import "strings"

// Category is the display family of a node, derived from its type string.
// It decides both the summary payload and the card background.
type Category int

const (
	CategoryGeneric Category = iota
	CategoryConditional
	CategorySpreadsheet
	CategoryEmail
)

// Classify maps an n8n node type to its Category. The checks run in a fixed
// order and are case-sensitive substring matches, so "n8n-nodes-base.if" and
// any other type containing "if" are conditional.
func Classify(nodeType string) Category {
	switch {
	case strings.Contains(nodeType, "if"):
		return CategoryConditional
	case strings.Contains(nodeType, "googleSheets"):
		return CategorySpreadsheet
	case strings.Contains(nodeType, "gmail"):
		return CategoryEmail
	default:
		return CategoryGeneric
	}
}

func (c Category) String() string {
	switch c {
	case CategoryConditional:
		return "conditional"
	case CategorySpreadsheet:
		return "spreadsheet"
	case CategoryEmail:
		return "email"
	default:
		return "generic"
	}
}

// Background is the card fill color used by every renderer.
func (c Category) Background() string {
	switch c {
	case CategoryConditional:
		return "#e6f3ff"
	case CategorySpreadsheet:
		return "#e6ffe6"
	case CategoryEmail:
		return "#ffe6e6"
	default:
		return "#fff"
	}
}

// MarshalText lets categories appear by name in JSON and expression scopes.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
